package terminal

import (
	"sync"

	"github.com/mithril-vault/mithril/internal/osrelease"
)

// Registry performs provider detection once per process and hands out
// the selected provider. Re-detection is not required mid-session; new
// provider kinds join the probe order without changing callers.
type Registry struct {
	once      sync.Once
	detection Detection
	provider  Provider

	// enabled gates the rich provider; when it reports false the
	// guidance provider is selected even if detection succeeded.
	enabled  func() bool
	lookPath lookPathFunc
	hostInfo func() osrelease.Info
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithEnabledFunc gates the rich provider behind the given check,
// typically the persisted terminal-enabled setting.
func WithEnabledFunc(enabled func() bool) RegistryOption {
	return func(r *Registry) {
		r.enabled = enabled
	}
}

// WithLookPath overrides binary resolution (for testing).
func WithLookPath(lookPath lookPathFunc) RegistryOption {
	return func(r *Registry) {
		r.lookPath = lookPath
	}
}

// WithHostInfo overrides host identification data (for testing).
func WithHostInfo(info osrelease.Info) RegistryOption {
	return func(r *Registry) {
		r.hostInfo = func() osrelease.Info { return info }
	}
}

// NewRegistry creates a registry. Detection runs lazily on first use
// and is cached for the process lifetime.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		enabled:  func() bool { return true },
		hostInfo: osrelease.Load,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) resolve() {
	r.once.Do(func() {
		lookPath := r.lookPath
		if lookPath == nil {
			r.detection = Detect()
		} else {
			r.detection = detect(lookPath, r.hostInfo())
		}

		r.provider = r.selectProvider()
	})
}

func (r *Registry) selectProvider() Provider {
	if r.detection.Available && r.enabled() {
		return NewEmbeddedProvider(r.detection.Provider)
	}
	return NewGuidanceProvider(r.detection)
}

// Reselect re-runs provider selection against the cached detection,
// picking up a changed enabled setting. Detection itself is not
// repeated.
func (r *Registry) Reselect() Provider {
	r.resolve()
	r.provider = r.selectProvider()
	return r.provider
}

// Detection returns the cached detection result.
func (r *Registry) Detection() Detection {
	r.resolve()
	return r.detection
}

// Acquire returns the selected provider. It never fails: when no rich
// capability is present the guidance provider is returned.
func (r *Registry) Acquire() Provider {
	r.resolve()
	return r.provider
}
