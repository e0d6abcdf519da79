package terminal

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithril-vault/mithril/internal/log"
	"github.com/mithril-vault/mithril/internal/osrelease"
)

func TestMain(m *testing.M) {
	log.Setup(false)
	os.Exit(m.Run())
}

// fakeLookPath resolves only the listed binaries.
func fakeLookPath(available ...string) lookPathFunc {
	set := make(map[string]bool, len(available))
	for _, name := range available {
		set[name] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", fmt.Errorf("%s: executable file not found in $PATH", name)
	}
}

func TestDetectPrefersKonsole(t *testing.T) {
	det := detect(fakeLookPath("konsole", "qterminal", "xterm", "apt"), osrelease.Info{"id": "ubuntu"})

	assert.True(t, det.Available)
	assert.Equal(t, "konsole", det.Provider)
	// Probing stops at the first hit.
	assert.Equal(t, []string{"konsole"}, det.Probed)
}

func TestDetectFallsBackThroughProbeOrder(t *testing.T) {
	det := detect(fakeLookPath("xterm", "dnf"), osrelease.Info{"id": "fedora"})

	assert.True(t, det.Available)
	assert.Equal(t, "xterm", det.Provider)
	assert.Equal(t, []string{"konsole", "qterminal", "xterm"}, det.Probed)
}

func TestDetectNothingAvailable(t *testing.T) {
	det := detect(fakeLookPath("apt"), osrelease.Info{"id": "debian"})

	assert.False(t, det.Available)
	assert.Empty(t, det.Provider)
	assert.Equal(t, []string{"konsole", "qterminal", "xterm"}, det.Probed)
	assert.Equal(t, "apt", det.PackageManager)
	assert.Equal(t, "sudo apt install konsole qterminal", det.InstallHint)
}

func TestDetectDistroPackageSuggestions(t *testing.T) {
	tests := []struct {
		distro string
		want   []string
	}{
		{"ubuntu", []string{"konsole", "qterminal"}},
		{"alpine", []string{"qterminal"}},
		{"Ubuntu", []string{"konsole", "qterminal"}}, // case-insensitive match
		{"voidlinux", []string{"konsole", "qterminal"}},
	}
	for _, tt := range tests {
		t.Run(tt.distro, func(t *testing.T) {
			det := detect(fakeLookPath(), osrelease.Info{"id": tt.distro})
			assert.Equal(t, tt.want, det.SuggestedPackages)
		})
	}
}

func TestDetectNoPackageManagerIsANote(t *testing.T) {
	det := detect(fakeLookPath(), osrelease.Info{"id": "ubuntu"})

	assert.Empty(t, det.PackageManager)
	assert.Empty(t, det.InstallHint)
	require.Len(t, det.Notes, 1)
	assert.Contains(t, det.Notes[0], "package manager")
}

func TestRegistryAcquireNeverFails(t *testing.T) {
	r := NewRegistry(
		WithLookPath(fakeLookPath()),
		WithHostInfo(osrelease.Info{"id": "debian"}),
	)

	provider := r.Acquire()
	require.NotNil(t, provider)
	assert.Equal(t, "guidance", provider.Name())

	// Guidance text carries probe details.
	guidance := provider.Guidance()
	assert.Contains(t, guidance, "Probed emulators: konsole, qterminal, xterm")
}

func TestRegistrySelectsEmbeddedProviderWhenAvailable(t *testing.T) {
	r := NewRegistry(
		WithLookPath(fakeLookPath("qterminal")),
		WithHostInfo(osrelease.Info{"id": "arch"}),
	)

	provider := r.Acquire()
	assert.Equal(t, "qterminal", provider.Name())
	assert.Empty(t, provider.Guidance())
}

func TestRegistryDisabledForcesGuidance(t *testing.T) {
	r := NewRegistry(
		WithEnabledFunc(func() bool { return false }),
		WithLookPath(fakeLookPath("konsole")),
		WithHostInfo(osrelease.Info{"id": "ubuntu"}),
	)

	// Detection still reports the capability; selection honors the
	// setting.
	assert.True(t, r.Detection().Available)
	assert.Equal(t, "guidance", r.Acquire().Name())
}

func TestRegistryDetectionRunsOnce(t *testing.T) {
	calls := 0
	r := NewRegistry(
		WithLookPath(func(name string) (string, error) {
			calls++
			return "", fmt.Errorf("not found")
		}),
		WithHostInfo(osrelease.Info{"id": "ubuntu"}),
	)

	r.Detection()
	first := calls
	r.Detection()
	r.Acquire()
	assert.Equal(t, first, calls)
}

func TestRegistryReselectPicksUpEnabledChange(t *testing.T) {
	enabled := false
	r := NewRegistry(
		WithEnabledFunc(func() bool { return enabled }),
		WithLookPath(fakeLookPath("konsole")),
		WithHostInfo(osrelease.Info{"id": "ubuntu"}),
	)

	assert.Equal(t, "guidance", r.Acquire().Name())

	enabled = true
	assert.Equal(t, "konsole", r.Reselect().Name())
	assert.Equal(t, "konsole", r.Acquire().Name())

	enabled = false
	assert.Equal(t, "guidance", r.Reselect().Name())
}

func TestGuidanceLifecycleCallsAreAccepted(t *testing.T) {
	p := NewGuidanceProvider(Detection{})
	require.NoError(t, p.Open(t.Context(), NewSession("/tmp", "/bin/sh")))
	require.NoError(t, p.Write("ls"))
	require.NoError(t, p.Resize(80, 24))
	require.NoError(t, p.Close())
}
