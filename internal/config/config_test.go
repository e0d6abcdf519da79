package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Tool)
	assert.Zero(t, cfg.OperationTimeoutSecs)
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `
tool = "/opt/bin/gocryptfs"
operation_timeout = 120
notifications = true

[terminal]
enabled = true
visible = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/gocryptfs", cfg.Tool)
	assert.Equal(t, 120*time.Second, cfg.OperationTimeout())
	assert.True(t, cfg.Notifications)
	assert.True(t, cfg.TerminalEnabled())
	assert.True(t, cfg.Terminal.Visible)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "tool = [not toml")
	_, err := Load(path)
	require.Error(t, err)
}

func TestMergePrecedence(t *testing.T) {
	path := writeConfig(t, `
tool = "from-file"
operation_timeout = 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Merge("from-flag", "", 0)
	assert.Equal(t, "from-flag", cfg.Tool)
	// Unset flags leave file values alone.
	assert.Equal(t, 30, cfg.OperationTimeoutSecs)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultTool, cfg.Tool)
	assert.NotEmpty(t, cfg.ProfilesPath)
	assert.Equal(t, DefaultOperationTimeout, cfg.OperationTimeout())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Tool: "gocryptfs", OperationTimeoutSecs: 60}, false},
		{"missing tool", Config{OperationTimeoutSecs: 60}, true},
		{"zero timeout", Config{Tool: "gocryptfs"}, true},
		{"negative timeout", Config{Tool: "gocryptfs", OperationTimeoutSecs: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTerminalEnabledTriState(t *testing.T) {
	cfg := &Config{}
	// Never asked: disabled, but eligible for the first-run prompt.
	assert.False(t, cfg.TerminalEnabled())
	assert.True(t, cfg.ShouldPromptTerminalSetup())

	no := false
	cfg.Terminal.Enabled = &no
	assert.False(t, cfg.TerminalEnabled())
	assert.False(t, cfg.ShouldPromptTerminalSetup())

	yes := true
	cfg.Terminal.Enabled = &yes
	assert.True(t, cfg.TerminalEnabled())
}

func TestSettersPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.ApplyDefaults()

	require.NoError(t, cfg.SetTerminalEnabled(true))
	require.NoError(t, cfg.SetTerminalVisible(true))
	require.NoError(t, cfg.MarkTerminalSetupDone())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, reloaded.TerminalEnabled())
	assert.True(t, reloaded.Terminal.Visible)
	assert.True(t, reloaded.Terminal.SetupDone)
	assert.False(t, reloaded.ShouldPromptTerminalSetup())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveWithoutBackingFile(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Save())
}
