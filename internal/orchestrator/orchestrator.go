// Package orchestrator sequences encrypted-volume operations against
// the external encryption tool. It owns one state machine per volume
// profile, serializes operations per profile, and reports completion
// asynchronously so callers are never blocked on an external process.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mithril-vault/mithril/internal/credential"
	"github.com/mithril-vault/mithril/internal/gocryptfs"
	"github.com/mithril-vault/mithril/internal/log"
	"github.com/mithril-vault/mithril/internal/notify"
	"github.com/mithril-vault/mithril/internal/procmounts"
	"github.com/mithril-vault/mithril/internal/profile"
	"github.com/mithril-vault/mithril/internal/runner"
)

const (
	// defaultBusyBackoff is the pause before the single busy-target
	// unmount retry
	defaultBusyBackoff = 500 * time.Millisecond

	// maxMessageLen caps the stderr-derived message in outcomes
	maxMessageLen = 2000
)

// Outcome is the result of a finished operation, delivered on the
// channel returned by the operation call. The message is derived from
// the tool's stderr; credential bytes never appear in it.
type Outcome struct {
	// OperationID identifies the operation in logs
	OperationID string
	// ProfileID is the volume profile the operation ran against
	ProfileID string
	// Op is the operation that finished
	Op Op
	// State is the profile's state after the operation
	State State
	// Err is the typed failure, nil on success
	Err error
	// Message is a human-readable description of the failure
	Message string
	// Duration is how long the operation took
	Duration time.Duration
}

// Status is a point-in-time snapshot of one profile's session.
type Status struct {
	ProfileID string
	State     State
	Busy      bool
	LastErr   error
}

// session is the per-profile mutable state. It is owned exclusively by
// the orchestrator and touched only while the orchestrator lock is
// held.
type session struct {
	profileID string
	state     State
	busy      bool
	lastOp    Op
	lastErr   error
	startedAt time.Time
	cancel    context.CancelFunc
}

// Orchestrator runs init/mount/unmount operations for volume profiles.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*session

	run         runner.Runner
	tool        gocryptfs.Tool
	notifier    notify.Notifier
	timeout     time.Duration
	busyBackoff time.Duration
	loadMounts  func() (*procmounts.Table, error)
}

// Option is a functional option for the orchestrator
type Option func(*Orchestrator)

// WithNotifier sets the completion notifier
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithTimeout bounds each external tool invocation
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithBusyBackoff sets the pause before the busy-unmount retry
func WithBusyBackoff(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.busyBackoff = d
	}
}

// WithMountTable overrides how the kernel mount table is read (for
// testing)
func WithMountTable(load func() (*procmounts.Table, error)) Option {
	return func(o *Orchestrator) {
		o.loadMounts = load
	}
}

// New creates an orchestrator that invokes the given tool through run.
func New(run runner.Runner, tool gocryptfs.Tool, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:    make(map[string]*session),
		run:         run,
		tool:        tool,
		notifier:    notify.NopNotifier{},
		timeout:     60 * time.Second,
		busyBackoff: defaultBusyBackoff,
		loadMounts:  procmounts.Load,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initialize creates a new encrypted container for the profile. Legal
// only from the unmounted state with no existing container at the
// target path. Completion is delivered on the returned channel.
func (o *Orchestrator) Initialize(ctx context.Context, p profile.Profile, cred *credential.Secret) (<-chan Outcome, error) {
	s, opCtx, opID, err := o.begin(ctx, p.ID, OpInitialize, StateInitializing)
	if err != nil {
		return nil, err
	}

	ch := make(chan Outcome, 1)
	go func() {
		start := time.Now()
		runErr := o.doInitialize(opCtx, p, cred)
		o.finish(p, s, ch, Outcome{
			OperationID: opID,
			ProfileID:   p.ID,
			Op:          OpInitialize,
			Err:         runErr,
			Duration:    time.Since(start),
		})
	}()
	return ch, nil
}

// Mount exposes the decrypted view of the profile's container. Legal
// only from the unmounted state. Completion is delivered on the
// returned channel.
func (o *Orchestrator) Mount(ctx context.Context, p profile.Profile, cred *credential.Secret) (<-chan Outcome, error) {
	s, opCtx, opID, err := o.begin(ctx, p.ID, OpMount, StateMounting)
	if err != nil {
		return nil, err
	}

	ch := make(chan Outcome, 1)
	go func() {
		start := time.Now()
		runErr := o.doMount(opCtx, p, cred)
		o.finish(p, s, ch, Outcome{
			OperationID: opID,
			ProfileID:   p.ID,
			Op:          OpMount,
			Err:         runErr,
			Duration:    time.Since(start),
		})
	}()
	return ch, nil
}

// Unmount removes the decrypted view. Legal from the mounted state, or
// from the error state as a reconciliation step. Completion is
// delivered on the returned channel.
func (o *Orchestrator) Unmount(ctx context.Context, p profile.Profile) (<-chan Outcome, error) {
	s, opCtx, opID, err := o.begin(ctx, p.ID, OpUnmount, StateUnmounting)
	if err != nil {
		return nil, err
	}

	ch := make(chan Outcome, 1)
	go func() {
		start := time.Now()
		runErr := o.doUnmount(opCtx, p)
		o.finish(p, s, ch, Outcome{
			OperationID: opID,
			ProfileID:   p.ID,
			Op:          OpUnmount,
			Err:         runErr,
			Duration:    time.Since(start),
		})
	}()
	return ch, nil
}

// Cancel terminates the in-flight operation for the profile, if any.
// The killed operation always finishes in the error state so the
// caller is forced to reconcile.
func (o *Orchestrator) Cancel(profileID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[profileID]
	if !ok || !s.busy || s.cancel == nil {
		return fmt.Errorf("no operation in flight for profile %s", profileID)
	}
	s.cancel()
	return nil
}

// Status returns the current session snapshot for a profile. Profiles
// without a session are unmounted.
func (o *Orchestrator) Status(profileID string) Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[profileID]
	if !ok {
		return Status{ProfileID: profileID, State: StateUnmounted}
	}
	return Status{ProfileID: profileID, State: s.state, Busy: s.busy, LastErr: s.lastErr}
}

// Reconcile aligns session state with the kernel mount table. It is
// the startup policy for sessions of unknown state: the mount table is
// probed rather than trusting anything persisted. Busy sessions are
// left alone.
func (o *Orchestrator) Reconcile(profiles []profile.Profile) error {
	table, err := o.loadMounts()
	if err != nil {
		return fmt.Errorf("probe mount table: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, p := range profiles {
		s, ok := o.sessions[p.ID]
		if ok && s.busy {
			continue
		}

		if table.GocryptfsMountedAt(p.MountPoint) {
			if !ok {
				s = &session{profileID: p.ID}
				o.sessions[p.ID] = s
			}
			s.state = StateMounted
			s.lastErr = nil
			log.Debug("reconciled to mounted", "profile", p.ID, "mount_point", p.MountPoint)
		} else if ok && s.state == StateMounted {
			delete(o.sessions, p.ID)
			log.Debug("reconciled to unmounted", "profile", p.ID, "mount_point", p.MountPoint)
		}
	}
	return nil
}

// Close attempts to unmount every still-mounted session. It blocks
// until all attempts finish and joins their errors.
func (o *Orchestrator) Close(ctx context.Context, profiles []profile.Profile) error {
	byID := make(map[string]profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	o.mu.Lock()
	var mounted []profile.Profile
	for id, s := range o.sessions {
		if s.state == StateMounted && !s.busy {
			if p, ok := byID[id]; ok {
				mounted = append(mounted, p)
			}
		}
	}
	o.mu.Unlock()

	var errs []error
	for _, p := range mounted {
		ch, err := o.Unmount(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("unmount %s: %w", p.ID, err))
			continue
		}
		out := <-ch
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("unmount %s: %w", p.ID, out.Err))
		}
	}
	return errors.Join(errs...)
}

// begin acquires the per-profile single-operation slot and moves the
// session into the in-flight state. A second operation while one is in
// flight fails fast instead of queueing.
func (o *Orchestrator) begin(ctx context.Context, profileID string, op Op, inflight State) (*session, context.Context, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[profileID]
	if !ok {
		s = &session{profileID: profileID}
		o.sessions[profileID] = s
	}

	if s.busy {
		return nil, nil, "", fmt.Errorf("%w: profile %s is %s", ErrOperationInProgress, profileID, s.state)
	}

	if err := o.checkTransition(s, op); err != nil {
		return nil, nil, "", err
	}

	opCtx, cancel := context.WithTimeout(ctx, o.timeout)

	s.busy = true
	s.state = inflight
	s.lastOp = op
	s.startedAt = time.Now()
	s.cancel = cancel

	opID := uuid.NewString()
	log.Debug("operation started", "op", string(op), "profile", profileID, "operation_id", opID)
	return s, opCtx, opID, nil
}

// checkTransition enforces the state machine edges. From the error
// state only a retry of the failed operation or an unmount
// (reconciliation) is accepted.
func (o *Orchestrator) checkTransition(s *session, op Op) error {
	switch op {
	case OpInitialize, OpMount:
		if s.state == StateUnmounted {
			return nil
		}
		if s.state == StateError && s.lastOp == op {
			return nil
		}
	case OpUnmount:
		if s.state == StateMounted || s.state == StateError {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s a volume that is %s", ErrIllegalTransition, op, s.state)
}

// finish records the terminal state for the operation, releases the
// slot, and delivers the outcome.
func (o *Orchestrator) finish(p profile.Profile, s *session, ch chan<- Outcome, out Outcome) {
	o.mu.Lock()
	s.busy = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if out.Err != nil {
		// Cancellation and timeout land here too: the state machine
		// never silently returns to unmounted.
		s.state = StateError
		s.lastErr = out.Err
		out.Message = sanitizeMessage(out.Err)
	} else {
		s.lastErr = nil
		switch out.Op {
		case OpInitialize:
			s.state = StateUnmounted
		case OpMount:
			s.state = StateMounted
		case OpUnmount:
			// Clean unmount destroys the session.
			s.state = StateUnmounted
			delete(o.sessions, p.ID)
		}
	}
	out.State = s.state
	o.mu.Unlock()

	if out.Err != nil {
		log.Warn("operation failed",
			"op", string(out.Op), "profile", out.ProfileID,
			"operation_id", out.OperationID, "error", out.Err)
	} else {
		log.Info("operation finished",
			"op", string(out.Op), "profile", out.ProfileID,
			"operation_id", out.OperationID, "duration", out.Duration)
	}

	o.sendNotification(p, out)
	ch <- out
}

func (o *Orchestrator) sendNotification(p profile.Profile, out Outcome) {
	label := p.Label
	if label == "" {
		label = p.ID
	}

	var summary, body string
	if out.Err != nil {
		switch out.Op {
		case OpInitialize:
			summary = "Initialization failed"
		case OpMount:
			summary = "Mount failed"
		case OpUnmount:
			summary = "Unmount failed"
		}
		body = fmt.Sprintf("%s: %s", label, out.Message)
	} else {
		switch out.Op {
		case OpInitialize:
			summary = "Volume initialized"
		case OpMount:
			summary = "Volume mounted"
		case OpUnmount:
			summary = "Volume unmounted"
		}
		body = label
	}

	if err := o.notifier.Notify(summary, body); err != nil {
		log.Warn("failed to send notification", "error", err)
	}
}

// sanitizeMessage derives the user-facing message from an error. The
// tool receives credentials on stdin only, so stderr cannot echo them;
// the message is still capped to keep outcomes bounded.
func sanitizeMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return msg
}
