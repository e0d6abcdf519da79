package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/mithril-vault/mithril/internal/log"
)

// EmbeddedProvider runs a detected terminal emulator as a child
// process and feeds command lines to the shell inside it.
type EmbeddedProvider struct {
	binary string

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewEmbeddedProvider creates a provider for the given emulator binary.
func NewEmbeddedProvider(binary string) *EmbeddedProvider {
	return &EmbeddedProvider{binary: binary}
}

// Name identifies the provider
func (p *EmbeddedProvider) Name() string {
	return p.binary
}

// Open starts the emulator with the session's shell and working
// directory. The emulator outlives the context; the context only
// bounds startup.
func (p *EmbeddedProvider) Open(ctx context.Context, s Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("terminal session already open")
	}

	shell := s.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "sh"
	}

	path, err := exec.LookPath(p.binary)
	if err != nil {
		return fmt.Errorf("terminal emulator %s disappeared from PATH: %w", p.binary, err)
	}

	cmd := exec.Command(path, p.launchArgs(shell)...)
	cmd.Dir = s.WorkingDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open terminal stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("start terminal emulator: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	log.Debug("terminal session opened", "provider", p.binary, "session", s.ID, "pid", cmd.Process.Pid)
	return ctx.Err()
}

// launchArgs builds the emulator arguments that run the shell without
// window chrome.
func (p *EmbeddedProvider) launchArgs(shell string) []string {
	switch p.binary {
	case "konsole":
		return []string{"--nomenubar", "--notabbar", "--hide-menubar", "-e", shell}
	case "qterminal":
		return []string{"-e", shell}
	default:
		return []string{"-e", shell}
	}
}

// Write sends a line of text to the shell running in the emulator.
func (p *EmbeddedProvider) Write(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdin == nil {
		return fmt.Errorf("terminal session not open")
	}
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write to terminal: %w", err)
	}
	return nil
}

// Resize is handled by the embedding window manager; accepted here so
// all providers share one contract.
func (p *EmbeddedProvider) Resize(cols, rows int) error {
	return nil
}

// Close terminates the emulator process.
func (p *EmbeddedProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}

	p.stdin.Close()
	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("terminate terminal emulator: %w", err)
	}
	_ = p.cmd.Wait()

	p.cmd = nil
	p.stdin = nil
	return nil
}

// Guidance returns empty text; the live provider renders a real
// session instead.
func (p *EmbeddedProvider) Guidance() string {
	return ""
}
