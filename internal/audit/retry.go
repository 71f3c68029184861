package audit

import (
	"context"
	"strings"

	"github.com/hmarchand/wcagaudit/internal/control"
	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// RetryPolicy configures pause-then-retry classification.
type RetryPolicy struct {
	// RetryOnAny treats any non-cancellation failure as retryable, not just
	// stall-shaped ones.
	RetryOnAny bool
}

// PauseRetrier runs an operation under a per-attempt cancellation scope and
// applies the pause-then-single-retry policy: on a retryable failure the
// session is paused (if it is not already), the retrier waits for resume, and
// the operation is attempted exactly one more time. Worst-case duplicate work
// is bounded to two attempts per call.
type PauseRetrier struct {
	plane  *control.Plane
	logger *logging.Logger

	// OnPause is invoked when the retrier auto-pauses the session.
	OnPause func(op string, cause error)
	// OnResume is invoked after the session resumes and before the retry.
	OnResume func(op string)
}

// NewPauseRetrier creates a retrier bound to the session's control plane.
// The plane may be nil, in which case failures are never retried.
func NewPauseRetrier(plane *control.Plane, logger *logging.Logger) *PauseRetrier {
	return &PauseRetrier{plane: plane, logger: logger}
}

// Run executes op with a fresh attempt scope, retrying at most once after a
// pause/resume cycle. External cancellation always propagates immediately.
func (r *PauseRetrier) Run(ctx context.Context, op string, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err, pauseHit := r.attempt(ctx, fn)
	if err == nil {
		return nil
	}

	// Externally-requested cancellation: no retry.
	if ctx.Err() != nil {
		return err
	}
	if core.IsCancellation(err) && !pauseHit {
		return err
	}
	if r.plane == nil {
		return err
	}

	retryable := pauseHit || core.IsRetryable(err) || IsStallShaped(err) ||
		(policy.RetryOnAny && !core.IsCancellation(err))
	if !retryable {
		return err
	}

	if !r.plane.IsPaused() {
		r.logger.Warn("operation failed, pausing session before retry",
			"op", op, "error", err)
		r.plane.Pause()
		if r.OnPause != nil {
			r.OnPause(op, err)
		}
	}

	if waitErr := r.plane.WaitIfPaused(ctx); waitErr != nil {
		return waitErr
	}
	if r.OnResume != nil {
		r.OnResume(op)
	}

	r.logger.Info("retrying operation after resume", "op", op)
	err, _ = r.attempt(ctx, fn)
	return err
}

func (r *PauseRetrier) attempt(ctx context.Context, fn func(ctx context.Context) error) (error, bool) {
	a := control.Begin(ctx, r.plane)
	defer a.End()
	err := fn(a.Context())
	return err, a.PauseInterrupted()
}

// stallMarkers are the message fragments that identify a stall-shaped
// (retryable) failure from an external dependency.
var stallMarkers = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"stall",
	"no response",
	"connection reset",
}

// IsStallShaped reports whether an error message looks like a timeout/stall.
func IsStallShaped(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range stallMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
