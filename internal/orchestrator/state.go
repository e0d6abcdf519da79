package orchestrator

import "errors"

// State is the mount state of one volume profile.
type State int

const (
	// StateUnmounted means no decrypted view is exposed
	StateUnmounted State = iota
	// StateInitializing means container initialization is in flight
	StateInitializing
	// StateMounting means a mount is in flight
	StateMounting
	// StateMounted means the decrypted view is exposed
	StateMounted
	// StateUnmounting means an unmount is in flight
	StateUnmounting
	// StateError means the last operation failed and the caller must
	// reconcile before anything but a retry is accepted
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnmounted:
		return "unmounted"
	case StateInitializing:
		return "initializing"
	case StateMounting:
		return "mounting"
	case StateMounted:
		return "mounted"
	case StateUnmounting:
		return "unmounting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Op names an orchestrator operation.
type Op string

const (
	// OpInitialize creates a new encrypted container
	OpInitialize Op = "initialize"
	// OpMount exposes the decrypted view
	OpMount Op = "mount"
	// OpUnmount removes the decrypted view
	OpUnmount Op = "unmount"
)

var (
	// ErrOperationInProgress is returned when an operation is requested
	// while another is in flight for the same profile. Rejected before
	// any process is spawned; requests are never queued.
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrIllegalTransition is returned when an operation is not legal
	// in the profile's current state, e.g. unmounting an unmounted
	// volume.
	ErrIllegalTransition = errors.New("operation not legal in current state")

	// ErrUnmountFailed is returned when every unmount strategy has
	// been exhausted without success.
	ErrUnmountFailed = errors.New("all unmount strategies failed")
)
