package control

import (
	"context"
	"testing"
	"time"
)

func TestAttempt_ParentAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := Begin(ctx, New())
	defer a.End()

	select {
	case <-a.Context().Done():
	default:
		t.Fatal("attempt context should be cancelled when parent already is")
	}
	if a.PauseInterrupted() {
		t.Error("external cancellation must not read as pause interrupt")
	}
}

func TestAttempt_AlreadyPaused(t *testing.T) {
	plane := New()
	plane.Pause()

	a := Begin(context.Background(), plane)
	defer a.End()

	select {
	case <-a.Context().Done():
	default:
		t.Fatal("attempt context should be cancelled when plane is paused")
	}
	if !a.PauseInterrupted() {
		t.Error("PauseInterrupted() = false, want true")
	}
}

func TestAttempt_PauseDuringAttempt(t *testing.T) {
	plane := New()
	a := Begin(context.Background(), plane)
	defer a.End()

	select {
	case <-a.Context().Done():
		t.Fatal("attempt context cancelled prematurely")
	default:
	}

	plane.Pause()

	select {
	case <-a.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("attempt context not cancelled on pause")
	}
	if !a.PauseInterrupted() {
		t.Error("PauseInterrupted() = false, want true")
	}
}

func TestAttempt_EndIsIdempotent(t *testing.T) {
	a := Begin(context.Background(), New())
	a.End()
	a.End()

	select {
	case <-a.Context().Done():
	default:
		t.Error("attempt context should be cancelled after End")
	}
	if a.PauseInterrupted() {
		t.Error("End must not register as pause interrupt")
	}
}

func TestAttempt_NilPlane(t *testing.T) {
	a := Begin(context.Background(), nil)
	defer a.End()

	select {
	case <-a.Context().Done():
		t.Fatal("attempt with nil plane should not start cancelled")
	default:
	}
}
