package runner

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithril-vault/mithril/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup(false)
	os.Exit(m.Run())
}

func TestRunCapturesStdout(t *testing.T) {
	res, err := NewExecRunner().Run(context.Background(), []string{"sh", "-c", "echo hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
}

func TestRunFeedsStdin(t *testing.T) {
	res, err := NewExecRunner().Run(context.Background(), []string{"cat"}, []byte("pass\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "pass\n\n", string(res.Stdout))
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	res, err := NewExecRunner().Run(context.Background(),
		[]string{"sh", "-c", "echo oops 1>&2; exit 3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", string(res.Stderr))
}

func TestRunMissingBinary(t *testing.T) {
	_, err := NewExecRunner().Run(context.Background(), []string{"definitely-not-a-binary-xyz"}, nil)
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, err.Error(), "definitely-not-a-binary-xyz")
}

func TestRunEmptyArgv(t *testing.T) {
	_, err := NewExecRunner().Run(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestRunDeadlineKillsProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewExecRunner().Run(ctx, []string{"sleep", "10"}, nil)
	require.ErrorIs(t, err, ErrProcessTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunCancellationReportedAsTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewExecRunner().Run(ctx, []string{"sleep", "10"}, nil)
	require.ErrorIs(t, err, ErrProcessTimeout)
}
