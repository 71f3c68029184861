package audit

import (
	"context"
	"errors"
	"time"

	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// pageState tracks the mutable per-page result matrix and the reported-set.
// Only the single active page's control flow mutates it, so no locking.
type pageState struct {
	url      string
	criteria []core.Criterion
	result   *core.PageResult
	reported []bool

	onStage  func(stage core.Stage)
	onDecide func(c core.Criterion, ev *core.Evaluation)
	onUpdate func(c core.Criterion, ev *core.Evaluation)
}

func newPageState(url string, criteria []core.Criterion) *pageState {
	return &pageState{
		url:      url,
		criteria: criteria,
		result:   core.NewPageResult(url, len(criteria)),
		reported: make([]bool, len(criteria)),
	}
}

func (ps *pageState) stage(stage core.Stage) {
	if ps.onStage != nil {
		ps.onStage(stage)
	}
}

// finalize writes the slot and reports the decision to observers exactly
// once. Later calls for an already-reported slot only update the value.
func (ps *pageState) finalize(idx int, ev *core.Evaluation) {
	ps.result.Results[idx] = ev
	if ps.reported[idx] {
		return
	}
	ps.reported[idx] = true
	if ps.onDecide != nil {
		ps.onDecide(ps.criteria[idx], ev)
	}
}

// overwrite replaces an already-decided slot in place. Observers get an
// update notification, never a second decision report.
func (ps *pageState) overwrite(idx int, ev *core.Evaluation) {
	ps.result.Results[idx] = ev
	if !ps.reported[idx] {
		ps.reported[idx] = true
		if ps.onDecide != nil {
			ps.onDecide(ps.criteria[idx], ev)
		}
		return
	}
	if ps.onUpdate != nil {
		ps.onUpdate(ps.criteria[idx], ev)
	}
}

// PageRunner drives one page end to end: snapshot, optional enrichment,
// dispatch, batch review with fallback and review retry, then a defensive
// final sweep so no criterion is left without an evaluation.
type PageRunner struct {
	cfg        Config
	collector  core.Collector
	enricher   core.Enricher
	dispatcher *Dispatcher
	batch      *BatchReviewer
	rules      core.RuleEvaluator
	retrier    *PauseRetrier
	cache      *EnrichmentCache
	logger     *logging.Logger

	onStage  func(url string, stage core.Stage)
	onDecide func(url string, c core.Criterion, ev *core.Evaluation)
	onUpdate func(url string, c core.Criterion, ev *core.Evaluation)
}

// NewPageRunner wires a page runner from its collaborators.
func NewPageRunner(cfg Config, collector core.Collector, enricher core.Enricher,
	rules core.RuleEvaluator, reviewer core.Reviewer, retrier *PauseRetrier,
	cache *EnrichmentCache, logger *logging.Logger) *PageRunner {
	cfg = cfg.normalized()
	return &PageRunner{
		cfg:        cfg,
		collector:  collector,
		enricher:   enricher,
		dispatcher: NewDispatcher(rules, logger),
		batch:      NewBatchReviewer(reviewer, retrier, cfg.BatchSize, logger),
		rules:      rules,
		retrier:    retrier,
		cache:      cache,
		logger:     logger,
	}
}

// Run processes one page and returns its sealed result plus the cross-page
// evidence extracted from the snapshot. On cancellation it returns the error
// without reporting further results; on a page failure (and no fail-fast) it
// returns a fully populated Error page.
func (r *PageRunner) Run(ctx context.Context, url string, criteria []core.Criterion, multiPage bool) (*core.PageResult, core.PageEvidence, error) {
	evidence := core.PageEvidence{URL: url}

	ps := newPageState(url, criteria)
	ps.onStage = func(stage core.Stage) {
		if r.onStage != nil {
			r.onStage(url, stage)
		}
	}
	ps.onDecide = func(c core.Criterion, ev *core.Evaluation) {
		if r.onDecide != nil {
			r.onDecide(url, c, ev)
		}
	}
	ps.onUpdate = func(c core.Criterion, ev *core.Evaluation) {
		if r.onUpdate != nil {
			r.onUpdate(url, c, ev)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, evidence, err
	}

	ps.stage(core.StageSnapshotting)
	snap, err := r.collect(ctx, url)
	if err != nil {
		if core.IsCancellation(err) || ctx.Err() != nil {
			return nil, evidence, err
		}
		if r.cfg.FailFast {
			return nil, evidence, err
		}
		var failure *core.PageFailure
		if !errors.As(err, &failure) {
			failure = core.NewPageFailure(url, err, "")
		}
		r.logger.Error("page failed, reporting error rows", "page", url, "error", err)
		ps.stage(core.StageDispatching)
		r.dispatcher.DispatchFailure(ps, failure)
		ps.result.Failed = true
		r.sweep(ps)
		return ps.result, evidence, nil
	}

	if r.cfg.Enrichment && r.enricher != nil {
		ps.stage(core.StageEnriching)
		r.enrich(ctx, snap)
		if err := ctx.Err(); err != nil {
			return nil, evidence, err
		}
	}

	ps.stage(core.StageDispatching)
	aiQueue := r.dispatcher.Dispatch(ps, snap, multiPage)

	if err := r.batch.Run(ctx, ps, snap, aiQueue); err != nil {
		return nil, evidence, err
	}

	ps.stage(core.StageFinalReporting)
	r.sweep(ps)

	evidence = r.rules.ExtractEvidence(snap)
	snap.Compact()
	ps.result.Snapshot = snap
	ps.result.Title = snap.Title
	ps.result.Lang = snap.Lang

	return ps.result, evidence, nil
}

func (r *PageRunner) collect(ctx context.Context, url string) (*core.Snapshot, error) {
	var snap *core.Snapshot
	err := r.retrier.Run(ctx, "collect", RetryPolicy{}, func(ctx context.Context) error {
		s, err := r.collector.Collect(ctx, url, core.CollectOptions{
			Lang:          r.cfg.ReportLang,
			WithRawSource: r.cfg.Enrichment,
		})
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	return snap, err
}

// enrich stamps enrichment outputs onto the snapshot, going through the LRU
// cache keyed by the evidence fingerprint. Enrichment is best-effort: a
// failure is logged and the page proceeds unenriched.
func (r *PageRunner) enrich(ctx context.Context, snap *core.Snapshot) {
	fp := snap.EnrichmentFingerprint()
	if fp == "" {
		return
	}

	if cached, ok := r.cache.Get(fp); ok {
		snap.Enrichment = cached
		snap.EnrichmentMeta = &core.EnrichmentMeta{
			Fingerprint: fp,
			Cached:      true,
			ComputedAt:  time.Now(),
		}
		return
	}

	var enrichment *core.Enrichment
	err := r.retrier.Run(ctx, "enrich", RetryPolicy{}, func(ctx context.Context) error {
		e, err := r.enricher.Enrich(ctx, snap)
		if err != nil {
			return err
		}
		enrichment = e
		return nil
	})
	if err != nil {
		r.logger.Warn("enrichment failed, continuing without it",
			"page", snap.URL, "error", err)
		return
	}

	r.cache.Put(fp, enrichment)
	snap.Enrichment = enrichment
	snap.EnrichmentMeta = &core.EnrichmentMeta{
		Fingerprint: fp,
		ComputedAt:  time.Now(),
	}
}

// sweep reports any criterion that was never finalized. Guards against
// dispatcher or reviewer bugs leaving a gap in the matrix.
func (r *PageRunner) sweep(ps *pageState) {
	for i, c := range ps.criteria {
		if ps.result.Results[i] == nil {
			r.logger.Warn("criterion missing evaluation after all passes",
				"page", ps.url, "criterion", c.ID)
			ps.finalize(i, core.NewErrorEvaluation(c, "missing evaluation"))
			continue
		}
		if !ps.reported[i] {
			ps.finalize(i, ps.result.Results[i])
		}
	}
}
