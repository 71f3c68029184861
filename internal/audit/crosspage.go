package audit

import (
	"context"
	"fmt"

	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// CrossPageEvaluator runs the second pass: criteria whose verdict depends on
// comparing evidence across pages are resolved once per session and the same
// evaluation is written into every page's slot.
type CrossPageEvaluator struct {
	cfg      Config
	reviewer core.Reviewer
	retrier  *PauseRetrier
	logger   *logging.Logger

	// OnUpdate is invoked for every page slot the pass overwrites.
	OnUpdate func(url string, c core.Criterion, ev *core.Evaluation)
}

// NewCrossPageEvaluator creates the second-pass evaluator.
func NewCrossPageEvaluator(cfg Config, reviewer core.Reviewer, retrier *PauseRetrier, logger *logging.Logger) *CrossPageEvaluator {
	return &CrossPageEvaluator{cfg: cfg, reviewer: reviewer, retrier: retrier, logger: logger}
}

// Run resolves every deferred criterion against the collected evidence and
// overwrites the Review placeholders on all pages. A reviewer failure turns
// the criterion into Error rows rather than aborting the session, unless the
// session is fail-fast; cancellation always propagates.
func (e *CrossPageEvaluator) Run(ctx context.Context, pages []*core.PageResult, criteria []core.Criterion, evidence []core.PageEvidence) error {
	for idx, c := range criteria {
		if !IsDeferredCriterion(c.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var finding *core.ReviewFinding
		err := e.retrier.Run(ctx, "cross_page", RetryPolicy{RetryOnAny: true}, func(ctx context.Context) error {
			f, err := e.reviewer.ReviewCrossPage(ctx, c, evidence)
			if err != nil {
				return err
			}
			finding = f
			return nil
		})

		var ev *core.Evaluation
		if err != nil {
			if core.IsCancellation(err) || ctx.Err() != nil {
				return err
			}
			if e.cfg.FailFast {
				return fmt.Errorf("cross-page review of criterion %s: %w", c.ID, err)
			}
			e.logger.Error("cross-page review failed", "criterion", c.ID, "error", err)
			ev = core.NewErrorEvaluation(c,
				fmt.Sprintf("cross-page review failed: %v", err))
		} else {
			ev = evaluationFromFinding(c, *finding)
			e.logger.Info("cross-page criterion resolved",
				"criterion", c.ID, "status", ev.Status)
		}

		// Every page shares the one session-level verdict. The same pointer
		// is written everywhere so the matrix cannot drift.
		for _, page := range pages {
			if idx >= len(page.Results) {
				continue
			}
			page.Results[idx] = ev
			if e.OnUpdate != nil {
				e.OnUpdate(page.URL, c, ev)
			}
		}
	}
	return nil
}

// HasDeferredCriteria reports whether the criteria set contains any
// cross-page criterion, so callers can skip the second pass entirely.
func HasDeferredCriteria(criteria []core.Criterion) bool {
	for _, c := range criteria {
		if IsDeferredCriterion(c.ID) {
			return true
		}
	}
	return false
}
