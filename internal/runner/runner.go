// Package runner executes external commands as explicit argument vectors.
// Arguments are never joined into a shell string, so user-supplied values
// (paths, mount flags) cannot be re-interpreted by a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/mithril-vault/mithril/internal/log"
)

// ErrToolNotFound is returned when the requested binary cannot be
// resolved on PATH.
var ErrToolNotFound = errors.New("tool not found")

// ErrProcessTimeout is returned when the context expires before the
// process finishes. The process is killed. Explicit cancellation is
// reported the same way.
var ErrProcessTimeout = errors.New("process timed out")

// Result holds the outcome of a finished process. A non-zero exit code
// is a normal result, not an error; callers interpret it.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner runs external commands to completion.
type Runner interface {
	// Run executes argv[0] with argv[1:] as arguments. When stdin is
	// non-nil its bytes are fed to the process's standard input. The
	// context bounds the process lifetime.
	Run(ctx context.Context, argv []string, stdin []byte) (*Result, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command described by argv. The binary is resolved via
// exec.LookPath; no shell is ever involved.
func (r *ExecRunner) Run(ctx context.Context, argv []string, stdin []byte) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argument vector")
	}

	binary, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, argv[0])
	}

	log.Debug("running command", "binary", binary, "args", argv[1:])

	cmd := exec.CommandContext(ctx, binary, argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	runErr := cmd.Run()

	// A context expiry kills the process; report it uniformly whether
	// it was a deadline or an explicit cancellation.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrProcessTimeout, argv[0])
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", argv[0], runErr)
		}
	}

	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}

	log.Debug("command finished", "binary", binary, "exit", res.ExitCode)
	return res, nil
}
