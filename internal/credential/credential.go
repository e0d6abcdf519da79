// Package credential holds passphrase bytes for the duration of a single
// operation. Secrets are wiped as soon as they have been written to the
// external tool's input stream and are never logged or persisted.
package credential

import "runtime"

// Secret wraps passphrase bytes with explicit zeroing. The wrapped slice
// is owned by the Secret; callers must not retain it.
type Secret struct {
	data []byte
}

// New creates a Secret from the given bytes, taking ownership of them.
func New(data []byte) *Secret {
	s := &Secret{data: data}

	// Last-chance wipe if the caller forgets; explicit Wipe is still
	// required for deterministic lifetime.
	runtime.SetFinalizer(s, func(sec *Secret) {
		sec.Wipe()
	})

	return s
}

// Payload builds the stdin payload for the external tool: the passphrase
// verbatim followed by exactly terminators newline bytes. The terminator
// count is independent of the passphrase content, including embedded
// newlines. The caller must wipe the returned slice after use.
func (s *Secret) Payload(terminators int) []byte {
	if s == nil {
		return nil
	}
	payload := make([]byte, 0, len(s.data)+terminators)
	payload = append(payload, s.data...)
	for i := 0; i < terminators; i++ {
		payload = append(payload, '\n')
	}
	return payload
}

// Len returns the passphrase length in bytes.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.data)
}

// Wipe overwrites the passphrase bytes and drops the reference.
func (s *Secret) Wipe() {
	if s == nil || s.data == nil {
		return
	}
	WipeBytes(s.data)
	s.data = nil
}

// WipeBytes zeroes a byte slice in place.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
