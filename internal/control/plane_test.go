package control

import (
	"context"
	"testing"
	"time"
)

func TestPlane_PauseResume(t *testing.T) {
	p := New()

	if p.IsPaused() {
		t.Error("new plane should not be paused")
	}

	p.Pause()
	if !p.IsPaused() {
		t.Error("plane should be paused after Pause()")
	}

	// Pausing again is a no-op.
	p.Pause()
	if !p.IsPaused() {
		t.Error("plane should stay paused")
	}

	p.Resume()
	if p.IsPaused() {
		t.Error("plane should not be paused after Resume()")
	}
}

func TestPlane_WaitIfPaused_NotPaused(t *testing.T) {
	p := New()

	if err := p.WaitIfPaused(context.Background()); err != nil {
		t.Errorf("WaitIfPaused() error = %v, want nil", err)
	}
}

func TestPlane_WaitIfPaused_BlocksUntilResume(t *testing.T) {
	p := New()
	p.Pause()

	released := make(chan error, 1)
	go func() {
		released <- p.WaitIfPaused(context.Background())
	}()

	select {
	case <-released:
		t.Fatal("WaitIfPaused returned before resume")
	case <-time.After(20 * time.Millisecond):
	}

	p.Resume()

	select {
	case err := <-released:
		if err != nil {
			t.Errorf("WaitIfPaused() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after resume")
	}
}

func TestPlane_WaitIfPaused_RacingResume(t *testing.T) {
	p := New()

	// Hammer the pause/wait/resume interleaving: a waiter that captures the
	// resume channel after a racing Resume completed must still return
	// instead of parking until the next cycle.
	for i := 0; i < 200; i++ {
		p.Pause()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		go p.Resume()
		err := p.WaitIfPaused(ctx)
		cancel()

		if err != nil {
			t.Fatalf("iteration %d: WaitIfPaused() error = %v, want nil", i, err)
		}
	}
}

func TestPlane_WaitIfPaused_ContextCancel(t *testing.T) {
	p := New()
	p.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	released := make(chan error, 1)
	go func() {
		released <- p.WaitIfPaused(ctx)
	}()

	cancel()

	select {
	case err := <-released:
		if err != context.Canceled {
			t.Errorf("WaitIfPaused() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after cancel")
	}
}

func TestPlane_PausedCh_AlreadyPaused(t *testing.T) {
	p := New()
	p.Pause()

	select {
	case <-p.PausedCh():
	default:
		t.Error("PausedCh should be closed when already paused")
	}
}

func TestPlane_Cancel(t *testing.T) {
	p := New()
	if p.IsCancelled() {
		t.Error("new plane should not be cancelled")
	}
	p.Cancel()
	if !p.IsCancelled() {
		t.Error("plane should be cancelled after Cancel()")
	}

	st := p.Status()
	if !st.Cancelled || st.Paused {
		t.Errorf("Status() = %+v, want cancelled and not paused", st)
	}
}
