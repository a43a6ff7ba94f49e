package langserver

import (
	"context"
	"errors"
	"sync"
	"time"
)

// WorkspaceState is the workspace initialization state.
type WorkspaceState int

// StateNotStarted is
const (
	StateNotStarted WorkspaceState = iota
	StateStarting
	StateWaitingForBackendReady
	StateReady
	StateFailed
)

func (s WorkspaceState) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateStarting:
		return "Starting"
	case StateWaitingForBackendReady:
		return "WaitingForBackendReady"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	}
	return "Unknown"
}

// ErrWorkspaceFailed is observed by readiness waiters when the workspace
// transitions to Failed instead of Ready.
var ErrWorkspaceFailed = errors.New("workspace initialization failed")

// ErrWorkspaceNotReady is
var ErrWorkspaceNotReady = errors.New("workspace not ready")

// lifecycle is the workspace initialization state machine. Transitions are
// guarded by one mutex; waiters block on a channel closed on Ready or
// Failed so failure is observed promptly rather than by timeout.
type lifecycle struct {
	mu        sync.Mutex
	state     WorkspaceState
	err       error
	settled   chan struct{}
	startedAt time.Time
}

func newLifecycle() *lifecycle {
	return &lifecycle{settled: make(chan struct{})}
}

// beginStart moves NotStarted (or Failed, for a restart) to Starting.
// Re-entrant start requests once Starting or later are idempotent no-ops.
func (l *lifecycle) beginStart() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateNotStarted && l.state != StateFailed {
		return false
	}
	l.state = StateStarting
	l.err = nil
	l.settled = make(chan struct{})
	l.startedAt = time.Now()
	return true
}

func (l *lifecycle) toWaiting() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStarting {
		l.state = StateWaitingForBackendReady
	}
}

// toReady flips to Ready and releases waiters. Returns false if the
// lifecycle already settled (a crash raced the ready signal).
func (l *lifecycle) toReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateStarting && l.state != StateWaitingForBackendReady {
		return false
	}
	l.state = StateReady
	close(l.settled)
	return true
}

// fail forces Failed from any non-terminal state and releases waiters.
func (l *lifecycle) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFailed {
		return
	}
	alreadySettled := l.state == StateReady
	l.state = StateFailed
	l.err = err
	if !alreadySettled {
		close(l.settled)
	} else {
		l.settled = closedChan()
	}
}

// reset returns a Failed lifecycle to NotStarted so a later start runs with
// empty state.
func (l *lifecycle) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFailed {
		l.state = StateNotStarted
		l.err = nil
		l.settled = make(chan struct{})
	}
}

func (l *lifecycle) current() WorkspaceState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *lifecycle) sinceStart() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.startedAt.IsZero() {
		return 0
	}
	return time.Since(l.startedAt)
}

// waitReady blocks until the workspace settles, the timeout elapses, or ctx
// is cancelled. A Failed workspace surfaces ErrWorkspaceFailed immediately;
// a timeout surfaces ErrWorkspaceNotReady.
func (l *lifecycle) waitReady(ctx context.Context, timeout time.Duration) error {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		l.mu.Unlock()
		return nil
	case StateFailed, StateNotStarted:
		err := l.err
		l.mu.Unlock()
		if err == nil {
			err = ErrWorkspaceNotReady
		}
		return err
	}
	settled := l.settled
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-settled:
		if l.current() == StateReady {
			return nil
		}
		return ErrWorkspaceFailed
	case <-timer.C:
		return ErrWorkspaceNotReady
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
