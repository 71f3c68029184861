package audit

import "github.com/hmarchand/wcagaudit/internal/core"

// ComputeSummary folds per-page statuses into one global status per criterion
// and derives the aggregate score. Pure function: recomputing over the same
// inputs yields identical output.
//
// Fold precedence per criterion: all NonApplicable -> NonApplicable; else any
// Error -> Error; else any NotConform -> NotConform; else any Review ->
// Review; else Conform. The ordering (Review below NotConform) is a policy
// choice and must not be reordered.
func ComputeSummary(pages []*core.PageResult, criteria []core.Criterion) *core.GlobalSummary {
	summary := &core.GlobalSummary{
		Statuses: make([]core.CriterionStatus, len(criteria)),
	}

	for i, c := range criteria {
		status := foldCriterion(pages, i)
		summary.Statuses[i] = core.CriterionStatus{CriterionID: c.ID, Status: status}

		switch status {
		case core.StatusConform:
			summary.Conform++
		case core.StatusNotConform:
			summary.NotConform++
		case core.StatusNonApplicable:
			summary.NonApplicable++
		case core.StatusReview:
			summary.Review++
		case core.StatusError:
			summary.Errors++
		}
	}

	denom := summary.Conform + summary.NotConform
	if denom > 0 {
		summary.Score = float64(summary.Conform) / float64(denom)
	}
	return summary
}

func foldCriterion(pages []*core.PageResult, idx int) core.Status {
	if len(pages) == 0 {
		return core.StatusNonApplicable
	}

	allNA := true
	hasError, hasNotConform, hasReview := false, false, false

	for _, page := range pages {
		status := core.StatusError // missing slot counts as Error
		if idx < len(page.Results) && page.Results[idx] != nil {
			status = page.Results[idx].Status
		}
		if status != core.StatusNonApplicable {
			allNA = false
		}
		switch status {
		case core.StatusError:
			hasError = true
		case core.StatusNotConform:
			hasNotConform = true
		case core.StatusReview:
			hasReview = true
		}
	}

	switch {
	case allNA:
		return core.StatusNonApplicable
	case hasError:
		return core.StatusError
	case hasNotConform:
		return core.StatusNotConform
	case hasReview:
		return core.StatusReview
	default:
		return core.StatusConform
	}
}
