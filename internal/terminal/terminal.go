// Package terminal selects the embedded-terminal capability for the
// host. A sealed set of providers is probed in order at startup; when
// none is available, callers receive a guidance provider that renders
// install instructions instead of a live session. All providers share
// the same contract, so callers never branch on the concrete type.
package terminal

import (
	"context"

	"github.com/google/uuid"
)

// Session describes one terminal session request.
type Session struct {
	// ID identifies the session in logs
	ID string
	// WorkingDir is the initial working directory
	WorkingDir string
	// Shell overrides the user's shell when non-empty
	Shell string
}

// NewSession creates a session rooted at workingDir.
func NewSession(workingDir, shell string) Session {
	return Session{
		ID:         uuid.NewString(),
		WorkingDir: workingDir,
		Shell:      shell,
	}
}

// Provider is the capability contract every terminal provider
// implements. The guidance provider accepts all lifecycle calls as
// no-ops, so callers need no availability checks.
type Provider interface {
	// Name identifies the provider
	Name() string
	// Open starts the session
	Open(ctx context.Context, s Session) error
	// Write sends a line of text to the session
	Write(line string) error
	// Resize adjusts the rendered surface
	Resize(cols, rows int) error
	// Close ends the session
	Close() error
	// Guidance returns advisory text for callers to render; empty for
	// live providers
	Guidance() string
}
