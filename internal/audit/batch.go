package audit

import (
	"context"
	"fmt"

	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// BatchReviewer drives the AI pass for one page: fixed-size batch calls with
// merge-as-you-go reporting, per-criterion fallback for anything a batch
// response missed, and a single best-effort retry for criteria left in Review.
type BatchReviewer struct {
	reviewer  core.Reviewer
	retrier   *PauseRetrier
	batchSize int
	logger    *logging.Logger
}

// NewBatchReviewer creates a batch reviewer with the given chunk size.
func NewBatchReviewer(reviewer core.Reviewer, retrier *PauseRetrier, batchSize int, logger *logging.Logger) *BatchReviewer {
	if batchSize <= 0 {
		batchSize = 6
	}
	return &BatchReviewer{
		reviewer:  reviewer,
		retrier:   retrier,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run processes the AI-candidate queue for one page. Chunk failures are
// logged and skipped (their criteria fall through to the fallback); only
// cancellation aborts the page.
func (b *BatchReviewer) Run(ctx context.Context, ps *pageState, snap *core.Snapshot, queue []int) error {
	if len(queue) == 0 {
		return nil
	}

	ps.stage(core.StageBatchReviewing)
	if err := b.runBatches(ctx, ps, snap, queue); err != nil {
		return err
	}

	ps.stage(core.StageFallback)
	if err := b.runFallback(ctx, ps, snap, queue); err != nil {
		return err
	}

	ps.stage(core.StageReviewRetry)
	return b.runReviewRetries(ctx, ps, snap, queue)
}

// cancelled reports a plane-level cancellation request, so an in-flight page
// stops between reviewer calls instead of draining its whole queue first.
func (b *BatchReviewer) cancelled() bool {
	return b.retrier != nil && b.retrier.plane != nil && b.retrier.plane.IsCancelled()
}

func (b *BatchReviewer) runBatches(ctx context.Context, ps *pageState, snap *core.Snapshot, queue []int) error {
	for start := 0; start < len(queue); start += b.batchSize {
		if b.cancelled() {
			return context.Canceled
		}
		end := min(start+b.batchSize, len(queue))
		chunk := queue[start:end]

		criteria := make([]core.Criterion, len(chunk))
		for i, idx := range chunk {
			criteria[i] = ps.criteria[idx]
		}

		var findings []core.ReviewFinding
		err := b.retrier.Run(ctx, "review_batch", RetryPolicy{RetryOnAny: true}, func(ctx context.Context) error {
			fs, err := b.reviewer.ReviewBatch(ctx, criteria, snap)
			if err != nil {
				return err
			}
			findings = fs
			return nil
		})
		if err != nil {
			if core.IsCancellation(err) || ctx.Err() != nil {
				return err
			}
			// The chunk's criteria stay unresolved; the fallback picks them up.
			b.logger.Warn("batch review failed, deferring chunk to fallback",
				"chunk_size", len(chunk), "error", err)
			continue
		}

		hits := make(map[string]core.ReviewFinding, len(findings))
		for _, f := range findings {
			hits[f.CriterionID] = f
		}

		// Finalize everything this chunk resolved so progress is visible as
		// batches land rather than in one end-of-page jump.
		for _, idx := range chunk {
			if ps.result.Results[idx] != nil {
				continue
			}
			if f, ok := hits[ps.criteria[idx].ID]; ok {
				ps.finalize(idx, evaluationFromFinding(ps.criteria[idx], f))
			}
		}
	}
	return nil
}

func (b *BatchReviewer) runFallback(ctx context.Context, ps *pageState, snap *core.Snapshot, queue []int) error {
	for _, idx := range queue {
		if b.cancelled() {
			return context.Canceled
		}
		if ps.result.Results[idx] != nil {
			continue
		}
		c := ps.criteria[idx]

		var finding *core.ReviewFinding
		err := b.retrier.Run(ctx, "review_one", RetryPolicy{RetryOnAny: true}, func(ctx context.Context) error {
			f, err := b.reviewer.ReviewOne(ctx, c, snap, false)
			if err != nil {
				return err
			}
			finding = f
			return nil
		})
		if err != nil {
			if core.IsCancellation(err) || ctx.Err() != nil {
				return err
			}
			ps.finalize(idx, core.NewErrorEvaluation(c,
				fmt.Sprintf("reviewer failed after retry: %v", err)))
			continue
		}

		ps.finalize(idx, evaluationFromFinding(c, *finding))
	}
	return nil
}

// runReviewRetries issues exactly one extra reviewer call per criterion left
// in Review and overwrites the slot in place with whatever it produces, even
// another Review or an Error. Best-effort second opinion, not a guarantee.
func (b *BatchReviewer) runReviewRetries(ctx context.Context, ps *pageState, snap *core.Snapshot, queue []int) error {
	retried := make(map[string]bool)

	for _, idx := range queue {
		if b.cancelled() {
			return context.Canceled
		}
		ev := ps.result.Results[idx]
		if ev == nil || ev.Status != core.StatusReview {
			continue
		}
		c := ps.criteria[idx]
		if retried[c.ID] {
			continue
		}
		retried[c.ID] = true

		var finding *core.ReviewFinding
		err := b.retrier.Run(ctx, "review_retry", RetryPolicy{RetryOnAny: true}, func(ctx context.Context) error {
			f, err := b.reviewer.ReviewOne(ctx, c, snap, true)
			if err != nil {
				return err
			}
			finding = f
			return nil
		})
		if err != nil {
			if core.IsCancellation(err) || ctx.Err() != nil {
				return err
			}
			ps.overwrite(idx, core.NewErrorEvaluation(c,
				fmt.Sprintf("review retry failed: %v", err)))
			continue
		}

		ps.overwrite(idx, evaluationFromFinding(c, *finding))
	}
	return nil
}

func evaluationFromFinding(c core.Criterion, f core.ReviewFinding) *core.Evaluation {
	return &core.Evaluation{
		CriterionID: c.ID,
		Theme:       c.Theme,
		Title:       c.Title,
		Status:      f.Status,
		Notes:       f.Rationale,
		AI: &core.AIJudgment{
			Confidence: f.Confidence,
			Rationale:  f.Rationale,
			Evidence:   f.Evidence,
		},
		AICandidate: true,
	}
}
