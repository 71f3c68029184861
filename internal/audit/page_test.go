package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

func newTestRunner(cfg Config, collector core.Collector, enricher core.Enricher, rules core.RuleEvaluator, reviewer core.Reviewer) *PageRunner {
	return NewPageRunner(cfg, collector, enricher, rules, reviewer,
		autoResumeRetrier(), NewEnrichmentCache(8), logging.NewNop())
}

func TestPageRunDecidesEveryCriterionExactlyOnce(t *testing.T) {
	criteria := testCriteria()
	rules := &fakeRules{aiCandidates: map[string]bool{"9.1": true}}
	runner := newTestRunner(DefaultConfig(), &fakeCollector{}, nil, rules, &fakeReviewer{})

	decided := map[string]int{}
	runner.onDecide = func(_ string, c core.Criterion, _ *core.Evaluation) {
		decided[c.ID]++
	}

	result, evidence, err := runner.Run(context.Background(), "https://example.com", criteria, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(decided) != len(criteria) {
		t.Fatalf("decided %d criteria, want %d", len(decided), len(criteria))
	}
	for id, n := range decided {
		if n != 1 {
			t.Errorf("criterion %s decided %d times, want exactly 1", id, n)
		}
	}
	for i, ev := range result.Results {
		if ev == nil {
			t.Errorf("slot %d left empty", i)
		}
	}
	if evidence.URL != "https://example.com" || !evidence.HasSearch {
		t.Errorf("unexpected evidence: %+v", evidence)
	}
}

func TestPageRunSnapshotFailureReportsErrorRows(t *testing.T) {
	criteria := testCriteria()
	collector := &fakeCollector{
		fail: func(_ int, url string) error {
			return core.NewPageFailure(url, errors.New("navigation refused"), "net::ERR_CONNECTION_REFUSED")
		},
	}
	reviewer := &fakeReviewer{}
	runner := newTestRunner(DefaultConfig(), collector, nil, &fakeRules{}, reviewer)

	result, _, err := runner.Run(context.Background(), "https://down.example", criteria, true)
	if err != nil {
		t.Fatalf("page failure must not abort without fail-fast: %v", err)
	}
	if !result.Failed {
		t.Error("expected result marked failed")
	}
	for i, ev := range result.Results {
		if ev == nil || ev.Status != core.StatusError {
			t.Errorf("slot %d = %+v, want error", i, ev)
		}
	}
	if reviewer.batchCalls != 0 || reviewer.oneCalls != 0 {
		t.Error("failed page must not reach the reviewer")
	}
}

func TestPageRunFailFastPropagates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailFast = true
	collector := &fakeCollector{
		fail: func(int, string) error { return errors.New("navigation refused") },
	}
	runner := newTestRunner(cfg, collector, nil, &fakeRules{}, &fakeReviewer{})

	_, _, err := runner.Run(context.Background(), "https://down.example", testCriteria(), true)
	if err == nil {
		t.Fatal("expected fail-fast to propagate the page failure")
	}
}

func TestPageRunSnapshotStallRetriedOnce(t *testing.T) {
	collector := &fakeCollector{
		fail: func(call int, _ string) error {
			if call == 1 {
				return core.ErrTimeout("navigation stalled")
			}
			return nil
		},
	}
	runner := newTestRunner(DefaultConfig(), collector, nil, &fakeRules{}, &fakeReviewer{})

	result, _, err := runner.Run(context.Background(), "https://slow.example", testCriteria(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if collector.calls != 2 {
		t.Errorf("expected 2 collect attempts, got %d", collector.calls)
	}
	if result.Failed {
		t.Error("retried page must not be marked failed")
	}
}

func TestPageRunNoReviewerTrafficWithoutCandidates(t *testing.T) {
	reviewer := &fakeReviewer{}
	runner := newTestRunner(DefaultConfig(), &fakeCollector{}, nil, &fakeRules{}, reviewer)

	if _, _, err := runner.Run(context.Background(), "https://example.com", testCriteria(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewer.batchCalls != 0 || reviewer.oneCalls != 0 || reviewer.retryCalls != 0 {
		t.Error("expected no reviewer calls when rules decide everything")
	}
}

func TestPageRunEnrichmentCached(t *testing.T) {
	enricher := &fakeEnricher{}
	collector := &fakeCollector{}
	cfg := DefaultConfig()

	cache := NewEnrichmentCache(8)
	runner := NewPageRunner(cfg, collector, enricher, &fakeRules{}, &fakeReviewer{},
		autoResumeRetrier(), cache, logging.NewNop())

	snapA := testSnapshot("https://a.example")
	snapA.RawEvidence = []byte("<html>same content</html>")
	snapB := testSnapshot("https://b.example")
	snapB.RawEvidence = []byte("<html>same content</html>")

	runner.enrich(context.Background(), snapA)
	runner.enrich(context.Background(), snapB)

	if enricher.calls != 1 {
		t.Errorf("expected 1 enrichment for identical content, got %d", enricher.calls)
	}
	if snapB.EnrichmentMeta == nil || !snapB.EnrichmentMeta.Cached {
		t.Error("expected second snapshot marked as cache hit")
	}
	if snapA.Enrichment != snapB.Enrichment {
		t.Error("expected the cached enrichment to be shared")
	}
}

func TestPageRunEnrichmentFailureIsBestEffort(t *testing.T) {
	enricher := &fakeEnricher{err: errors.New("renderer crashed")}
	runner := NewPageRunner(DefaultConfig(), &fakeCollector{}, enricher, &fakeRules{}, &fakeReviewer{},
		autoResumeRetrier(), NewEnrichmentCache(8), logging.NewNop())

	snap := testSnapshot("https://a.example")
	snap.RawEvidence = []byte("<html></html>")
	runner.enrich(context.Background(), snap)

	if snap.Enrichment != nil {
		t.Error("expected no enrichment after failure")
	}
}

func TestPageRunCompactsSnapshot(t *testing.T) {
	runner := newTestRunner(DefaultConfig(), &fakeCollector{}, nil, &fakeRules{}, &fakeReviewer{})

	result, _, err := runner.Run(context.Background(), "https://example.com", testCriteria(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Snapshot == nil {
		t.Fatal("expected snapshot attached")
	}
	if result.Snapshot.RawEvidence != nil {
		t.Error("expected raw evidence dropped before sealing")
	}
	if result.Title != "Test page" || result.Lang != "en" {
		t.Errorf("expected page metadata copied, got %q/%q", result.Title, result.Lang)
	}
}

func TestPageRunCancelledBeforeStart(t *testing.T) {
	runner := newTestRunner(DefaultConfig(), &fakeCollector{}, nil, &fakeRules{}, &fakeReviewer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := runner.Run(ctx, "https://example.com", testCriteria(), true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
