// Package control provides the session pause/cancel plane and per-attempt
// cancellation scopes.
package control

import (
	"context"
	"sync"
	"sync/atomic"
)

// Plane coordinates pausing, resuming and cancelling a session. Pausing is
// distinct from cancellation: a paused session suspends at the next check
// point and can resume; a cancelled session terminates.
type Plane struct {
	mu        sync.RWMutex
	paused    atomic.Bool
	cancelled atomic.Bool
	pauseCh   chan struct{}
	resumeCh  chan struct{}
}

// New creates a new Plane.
func New() *Plane {
	return &Plane{
		pauseCh:  make(chan struct{}),
		resumeCh: make(chan struct{}),
	}
}

// Pause suspends the session at the next check point. In-flight reviewer
// attempts observe the pause through their attempt scope.
func (p *Plane) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused.Load() {
		p.paused.Store(true)
		close(p.pauseCh)
		p.pauseCh = make(chan struct{})
	}
}

// Resume releases a paused session.
func (p *Plane) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused.Load() {
		p.paused.Store(false)
		close(p.resumeCh)
		p.resumeCh = make(chan struct{})
	}
}

// Cancel marks the session cancelled. Cancellation is cooperative and
// irreversible.
func (p *Plane) Cancel() {
	p.cancelled.Store(true)
}

// IsPaused returns true if the session is paused.
func (p *Plane) IsPaused() bool {
	return p.paused.Load()
}

// IsCancelled returns true if the session is cancelled.
func (p *Plane) IsCancelled() bool {
	return p.cancelled.Load()
}

// WaitIfPaused blocks until the session is resumed. Returns immediately if
// not paused; returns ctx.Err() if the context is cancelled while waiting.
func (p *Plane) WaitIfPaused(ctx context.Context) error {
	for {
		if !p.paused.Load() {
			return nil
		}

		p.mu.RLock()
		resumeCh := p.resumeCh
		p.mu.RUnlock()

		// A resume racing the capture above swaps in a channel that never
		// fires for this pause; re-checking the flag covers that window.
		if !p.paused.Load() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resumeCh:
		}
	}
}

// PausedCh returns a channel closed when the session becomes (or already is)
// paused. Useful for select statements.
func (p *Plane) PausedCh() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.paused.Load() {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.pauseCh
}

// Status is a point-in-time view of the plane.
type Status struct {
	Paused    bool `json:"paused"`
	Cancelled bool `json:"cancelled"`
}

func (p *Plane) Status() Status {
	return Status{
		Paused:    p.paused.Load(),
		Cancelled: p.cancelled.Load(),
	}
}
