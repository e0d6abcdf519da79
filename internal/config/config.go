package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultTool is the external encryption tool binary
	DefaultTool = "gocryptfs"
	// DefaultOperationTimeout bounds every external tool invocation
	DefaultOperationTimeout = 60 * time.Second
)

// DefaultConfigPath returns the default location for the config file
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// DefaultProfilesPath returns the default location of the profile store
func DefaultProfilesPath() string {
	return filepath.Join(configDir(), "profiles.json")
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mithril")
	}
	return filepath.Join(os.TempDir(), "mithril")
}

// Terminal holds the persisted embedded-terminal settings. Enabled is a
// tri-state: nil means the user has never been asked.
type Terminal struct {
	// Enabled controls whether the rich terminal provider may be used
	Enabled *bool `toml:"enabled"`
	// Visible is the last terminal panel visibility
	Visible bool `toml:"visible"`
	// SetupDone records that the first-run terminal prompt was shown
	SetupDone bool `toml:"setup_done"`
}

// Config holds the mithril configuration. Mutable settings change only
// through the setter methods below, never through ambient global state.
type Config struct {
	// Tool is the encryption tool binary name or path
	Tool string `toml:"tool"`
	// ProfilesPath is the location of the volume profile store
	ProfilesPath string `toml:"profiles"`
	// DefaultMountLocation is where new mount points are suggested
	DefaultMountLocation string `toml:"default_mount_location"`
	// OperationTimeoutSecs bounds each external tool invocation
	OperationTimeoutSecs int `toml:"operation_timeout"`
	// Notifications enables desktop notifications on completion
	Notifications bool `toml:"notifications"`
	// Terminal holds the embedded-terminal settings
	Terminal Terminal `toml:"terminal"`

	// path the config was loaded from, used by Save
	path string `toml:"-"`
}

// Load loads configuration from a TOML file.
// Returns a config with zero values if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := &Config{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Merge merges CLI flags into the config, with CLI flags taking
// precedence over config file values. Empty CLI values are ignored.
func (c *Config) Merge(tool, profilesPath string, timeoutSecs int) {
	if tool != "" {
		c.Tool = tool
	}
	if profilesPath != "" {
		c.ProfilesPath = profilesPath
	}
	if timeoutSecs > 0 {
		c.OperationTimeoutSecs = timeoutSecs
	}
}

// ApplyDefaults applies default values for any unset fields
func (c *Config) ApplyDefaults() {
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.ProfilesPath == "" {
		c.ProfilesPath = DefaultProfilesPath()
	}
	if c.DefaultMountLocation == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DefaultMountLocation = home
		}
	}
	if c.OperationTimeoutSecs <= 0 {
		c.OperationTimeoutSecs = int(DefaultOperationTimeout / time.Second)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Tool == "" {
		return fmt.Errorf("tool binary name is required")
	}
	if c.OperationTimeoutSecs <= 0 {
		return fmt.Errorf("operation_timeout must be positive, got %d", c.OperationTimeoutSecs)
	}
	return nil
}

// OperationTimeout returns the per-invocation timeout as a duration.
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutSecs) * time.Second
}

// TerminalEnabled reports whether the rich terminal provider may be used.
func (c *Config) TerminalEnabled() bool {
	return c.Terminal.Enabled != nil && *c.Terminal.Enabled
}

// ShouldPromptTerminalSetup reports whether the caller should show the
// first-run terminal prompt: the flag was never set and the prompt has
// not been shown before.
func (c *Config) ShouldPromptTerminalSetup() bool {
	return c.Terminal.Enabled == nil && !c.Terminal.SetupDone
}

// SetTerminalEnabled updates and persists the terminal-enabled flag.
func (c *Config) SetTerminalEnabled(enabled bool) error {
	c.Terminal.Enabled = &enabled
	return c.Save()
}

// SetTerminalVisible updates and persists the terminal visibility flag.
func (c *Config) SetTerminalVisible(visible bool) error {
	c.Terminal.Visible = visible
	return c.Save()
}

// MarkTerminalSetupDone records that the first-run prompt was shown.
func (c *Config) MarkTerminalSetupDone() error {
	c.Terminal.SetupDone = true
	return c.Save()
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no backing file")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
