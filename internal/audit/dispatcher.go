package audit

import (
	"fmt"

	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// Criteria whose verdict depends on comparing evidence across pages. They are
// never sent to the rule evaluator or the reviewer during the main pass; the
// second pass owns them.
const (
	criterionSearchReachable    = "12.1"
	criterionNavigationConstant = "12.2"
)

// IsDeferredCriterion reports whether a criterion is reserved for the
// cross-page second pass.
func IsDeferredCriterion(id string) bool {
	return id == criterionSearchReachable || id == criterionNavigationConstant
}

// Dispatcher classifies every criterion of a page: synthesized Error rows for
// failed pages, deferred Review rows for cross-page criteria, immediate rule
// verdicts, and a queue of AI candidates for batch review.
type Dispatcher struct {
	rules  core.RuleEvaluator
	logger *logging.Logger
}

// NewDispatcher creates a dispatcher over the given rule evaluator.
func NewDispatcher(rules core.RuleEvaluator, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{rules: rules, logger: logger}
}

// DispatchFailure reports every criterion as Error carrying the page-failure
// summary. Automated criteria are never starved by a page failure.
func (d *Dispatcher) DispatchFailure(ps *pageState, failure *core.PageFailure) {
	notes := failure.Summary()
	for i, c := range ps.criteria {
		ps.finalize(i, core.NewErrorEvaluation(c, notes))
	}
}

// Dispatch evaluates every criterion in session order and returns the indices
// queued for AI review.
func (d *Dispatcher) Dispatch(ps *pageState, snap *core.Snapshot, multiPage bool) []int {
	var aiQueue []int

	for i, c := range ps.criteria {
		if IsDeferredCriterion(c.ID) {
			notes := "requires manual review: single-page session, cross-page analysis not applicable"
			if multiPage {
				notes = "requires a second, cross-page pass"
			}
			ps.finalize(i, core.NewReviewEvaluation(c, notes))
			continue
		}

		res := d.rules.Evaluate(c, snap)
		ev := &core.Evaluation{
			CriterionID: c.ID,
			Theme:       c.Theme,
			Title:       c.Title,
			Status:      res.Status,
			Notes:       res.Notes,
			Automated:   res.Automated,
			AICandidate: res.AICandidate,
		}
		if len(res.Examples) > 0 {
			ev.Notes = fmt.Sprintf("%s (e.g. %s)", res.Notes, res.Examples[0])
		}

		if res.AICandidate {
			// Queued for batch review; the slot stays empty until the
			// reviewer (or the fallback) resolves it.
			aiQueue = append(aiQueue, i)
			continue
		}

		ps.finalize(i, ev)
	}

	d.logger.Debug("dispatch complete",
		"criteria", len(ps.criteria), "ai_candidates", len(aiQueue))
	return aiQueue
}
