package terminal

import (
	"context"
	"fmt"
	"strings"
)

// GuidanceProvider is the always-available fallback. Lifecycle calls
// are accepted no-ops and Guidance renders install instructions
// derived from host identification data. The text is advisory only.
type GuidanceProvider struct {
	detection Detection
}

// NewGuidanceProvider creates the fallback provider for a detection
// result.
func NewGuidanceProvider(det Detection) *GuidanceProvider {
	return &GuidanceProvider{detection: det}
}

// Name identifies the provider
func (p *GuidanceProvider) Name() string {
	return "guidance"
}

// Open accepts the session without starting anything.
func (p *GuidanceProvider) Open(ctx context.Context, s Session) error {
	return nil
}

// Write discards the line.
func (p *GuidanceProvider) Write(line string) error {
	return nil
}

// Resize is accepted and ignored.
func (p *GuidanceProvider) Resize(cols, rows int) error {
	return nil
}

// Close is accepted and ignored.
func (p *GuidanceProvider) Close() error {
	return nil
}

// Guidance renders the install-hint text for the host.
func (p *GuidanceProvider) Guidance() string {
	var b strings.Builder
	b.WriteString("Embedded terminal is disabled or unavailable.\n")

	if p.detection.InstallHint != "" {
		fmt.Fprintf(&b, "Install hint: %s\n", p.detection.InstallHint)
	}
	if len(p.detection.SuggestedPackages) > 0 {
		fmt.Fprintf(&b, "Suggested packages: %s\n", strings.Join(p.detection.SuggestedPackages, ", "))
	}
	for _, note := range p.detection.Notes {
		fmt.Fprintf(&b, "Note: %s\n", note)
	}
	if len(p.detection.Probed) > 0 {
		fmt.Fprintf(&b, "Probed emulators: %s\n", strings.Join(p.detection.Probed, ", "))
	}

	return b.String()
}
