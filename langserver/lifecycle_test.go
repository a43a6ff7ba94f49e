package langserver

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLifecycleHappyPath(t *testing.T) {
	l := newLifecycle()
	if !l.beginStart() {
		t.Fatal("first start should proceed")
	}
	if l.current() != StateStarting {
		t.Fatalf("expected Starting, got %v", l.current())
	}
	l.toWaiting()
	if l.current() != StateWaitingForBackendReady {
		t.Fatalf("expected WaitingForBackendReady, got %v", l.current())
	}
	if !l.toReady() {
		t.Fatal("ready transition should succeed")
	}
	if err := l.waitReady(context.Background(), time.Second); err != nil {
		t.Fatalf("waitReady after Ready: %v", err)
	}
}

func TestBeginStartIdempotent(t *testing.T) {
	l := newLifecycle()
	if !l.beginStart() {
		t.Fatal("first start should proceed")
	}
	if l.beginStart() {
		t.Fatal("re-entrant start while Starting should be a no-op")
	}
	l.toWaiting()
	if l.beginStart() {
		t.Fatal("re-entrant start while waiting should be a no-op")
	}
}

func TestFailReleasesWaitersPromptly(t *testing.T) {
	l := newLifecycle()
	l.beginStart()
	l.toWaiting()

	errCh := make(chan error, 1)
	go func() {
		errCh <- l.waitReady(context.Background(), time.Minute)
	}()

	time.Sleep(10 * time.Millisecond)
	l.fail(errors.New("engine exited"))

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrWorkspaceFailed) {
			t.Fatalf("waiter should observe failure, got: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter should not sit out the full timeout after a failure")
	}
}

func TestRestartAfterFailure(t *testing.T) {
	l := newLifecycle()
	l.beginStart()
	l.fail(errors.New("boom"))
	if l.current() != StateFailed {
		t.Fatalf("expected Failed, got %v", l.current())
	}
	if !l.beginStart() {
		t.Fatal("restart from Failed should proceed")
	}
	if l.current() != StateStarting {
		t.Fatalf("expected Starting after restart, got %v", l.current())
	}
}

func TestResetReturnsFailedToNotStarted(t *testing.T) {
	l := newLifecycle()
	l.beginStart()
	l.fail(errors.New("boom"))
	l.reset()
	if l.current() != StateNotStarted {
		t.Fatalf("expected NotStarted after reset, got %v", l.current())
	}
}

func TestToReadyLosesRaceAgainstFailure(t *testing.T) {
	l := newLifecycle()
	l.beginStart()
	l.fail(errors.New("boom"))
	if l.toReady() {
		t.Fatal("ready signal after a crash must not resurrect the workspace")
	}
}

func TestWaitReadyHonorsContext(t *testing.T) {
	l := newLifecycle()
	l.beginStart()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.waitReady(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got: %v", err)
	}
}
