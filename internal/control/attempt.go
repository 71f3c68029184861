package control

import (
	"context"
	"errors"
	"sync"
)

// ErrPauseInterrupt is the cancellation cause used when an attempt is
// interrupted because the session was paused. Distinct from an external
// cancellation so callers can decide whether to retry after resume.
var ErrPauseInterrupt = errors.New("attempt interrupted by pause")

// Attempt scopes one operation attempt. Its context is a child of the
// external context and is additionally cancelled (with ErrPauseInterrupt as
// cause) when the session pauses. End must always be called so the watcher
// goroutine is reaped; there is no manual listener bookkeeping to leak.
type Attempt struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	once   sync.Once
}

// Begin derives an attempt scope from the external context and the plane.
// If the external context is already cancelled, the attempt context is
// cancelled immediately and the operation must not start. A nil plane yields
// a plain child scope.
func Begin(parent context.Context, plane *Plane) *Attempt {
	ctx, cancel := context.WithCancelCause(parent)
	a := &Attempt{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if plane == nil {
		return a
	}

	if plane.IsPaused() {
		cancel(ErrPauseInterrupt)
		return a
	}

	pausedCh := plane.PausedCh()
	go func() {
		select {
		case <-pausedCh:
			cancel(ErrPauseInterrupt)
		case <-ctx.Done():
		case <-a.done:
		}
	}()

	return a
}

// Context returns the attempt's derived context.
func (a *Attempt) Context() context.Context {
	return a.ctx
}

// End releases the attempt scope. Idempotent; safe to defer.
func (a *Attempt) End() {
	a.once.Do(func() {
		close(a.done)
		a.cancel(context.Canceled)
	})
}

// PauseInterrupted reports whether the attempt was cancelled because the
// session paused rather than by an external cancellation.
func (a *Attempt) PauseInterrupted() bool {
	return errors.Is(context.Cause(a.ctx), ErrPauseInterrupt)
}
