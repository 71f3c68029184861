package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/hmarchand/wcagaudit/internal/core"
)

func testCriteria() []core.Criterion {
	return []core.Criterion{
		{ID: "1.1", Theme: "images", Title: "Images have a text alternative"},
		{ID: "8.3", Theme: "mandatory", Title: "Default language is declared"},
		{ID: "9.1", Theme: "structure", Title: "Headings are structured"},
		{ID: "12.1", Theme: "navigation", Title: "Search is reachable from every page"},
		{ID: "12.2", Theme: "navigation", Title: "Navigation stays in a constant place"},
	}
}

func testSnapshot(url string) *core.Snapshot {
	return &core.Snapshot{
		URL:       url,
		Title:     "Test page",
		Lang:      "en",
		Headings:  []core.Heading{{Level: 1, Text: "Welcome"}},
		HasSearch: true,
	}
}

type fakeCollector struct {
	mu    sync.Mutex
	calls int
	// fail returns an error for the given call number (1-based), nil otherwise
	fail func(call int, url string) error
}

func (f *fakeCollector) Collect(ctx context.Context, url string, _ core.CollectOptions) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(call, url); err != nil {
			return nil, err
		}
	}
	return testSnapshot(url), nil
}

type fakeEnricher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEnricher) Enrich(ctx context.Context, _ *core.Snapshot) (*core.Enrichment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &core.Enrichment{ContrastSamples: 10}, nil
}

// fakeRules resolves every criterion as automated Conform unless the
// criterion ID appears in results (fixed verdict) or aiCandidates.
type fakeRules struct {
	results      map[string]core.RuleResult
	aiCandidates map[string]bool
}

func (f *fakeRules) Evaluate(c core.Criterion, _ *core.Snapshot) core.RuleResult {
	if r, ok := f.results[c.ID]; ok {
		return r
	}
	if f.aiCandidates[c.ID] {
		return core.RuleResult{Status: core.StatusReview, AICandidate: true}
	}
	return core.RuleResult{Status: core.StatusConform, Notes: "rule passed", Automated: true}
}

func (f *fakeRules) ExtractEvidence(snap *core.Snapshot) core.PageEvidence {
	return core.PageEvidence{URL: snap.URL, Title: snap.Title, HasSearch: snap.HasSearch}
}

type fakeReviewer struct {
	mu             sync.Mutex
	batchCalls     int
	oneCalls       int
	retryCalls     int
	crossCalls     int
	batchFn        func(call int, criteria []core.Criterion) ([]core.ReviewFinding, error)
	oneFn          func(call int, c core.Criterion, retry bool) (*core.ReviewFinding, error)
	crossFn        func(call int, c core.Criterion) (*core.ReviewFinding, error)
	reviewedBatch  [][]string
	reviewedSingle []string
}

func conformFinding(id string) core.ReviewFinding {
	return core.ReviewFinding{
		CriterionID: id,
		Status:      core.StatusConform,
		Confidence:  0.9,
		Rationale:   "looks fine",
	}
}

func (f *fakeReviewer) ReviewBatch(ctx context.Context, criteria []core.Criterion, _ *core.Snapshot) ([]core.ReviewFinding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.batchCalls++
	call := f.batchCalls
	ids := make([]string, len(criteria))
	for i, c := range criteria {
		ids[i] = c.ID
	}
	f.reviewedBatch = append(f.reviewedBatch, ids)
	f.mu.Unlock()

	if f.batchFn != nil {
		return f.batchFn(call, criteria)
	}
	findings := make([]core.ReviewFinding, len(criteria))
	for i, c := range criteria {
		findings[i] = conformFinding(c.ID)
	}
	return findings, nil
}

func (f *fakeReviewer) ReviewOne(ctx context.Context, c core.Criterion, _ *core.Snapshot, retry bool) (*core.ReviewFinding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	var call int
	if retry {
		f.retryCalls++
		call = f.retryCalls
	} else {
		f.oneCalls++
		call = f.oneCalls
	}
	f.reviewedSingle = append(f.reviewedSingle, c.ID)
	f.mu.Unlock()

	if f.oneFn != nil {
		return f.oneFn(call, c, retry)
	}
	finding := conformFinding(c.ID)
	return &finding, nil
}

func (f *fakeReviewer) ReviewCrossPage(ctx context.Context, c core.Criterion, _ []core.PageEvidence) (*core.ReviewFinding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.crossCalls++
	call := f.crossCalls
	f.mu.Unlock()

	if f.crossFn != nil {
		return f.crossFn(call, c)
	}
	finding := conformFinding(c.ID)
	return &finding, nil
}

func (f *fakeReviewer) Ping(ctx context.Context) error { return ctx.Err() }

type fakeWriter struct {
	mu         sync.Mutex
	writes     int
	finalCalls int
	lastPages  []*core.PageResult
	err        error
	finalErr   error
}

func (f *fakeWriter) Write(_ context.Context, pages []*core.PageResult, _ []core.Criterion, _ *core.GlobalSummary, final bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.lastPages = pages
	if final {
		f.finalCalls++
		if f.finalErr != nil {
			return f.finalErr
		}
	}
	return f.err
}

type fakeStore struct {
	mu      sync.Mutex
	state   *core.ResumeState
	saves   int
	cleared bool
	saveErr error
	loadErr error
}

func (f *fakeStore) Save(_ context.Context, state *core.ResumeState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.state = state
	return nil
}

func (f *fakeStore) Load(_ context.Context) (*core.ResumeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.state, nil
}

func (f *fakeStore) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != nil
}

func (f *fakeStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = nil
	f.cleared = true
	return nil
}

func (f *fakeStore) Close() error { return nil }

// recordingObserver captures observer callbacks for assertions.
type recordingObserver struct {
	core.NopObserver
	mu        sync.Mutex
	decided   []string // "url criterionID status"
	updated   []string
	pagesDone []string
	paused    int
	resumed   int
	doneCount int
	summary   *core.GlobalSummary
}

func (r *recordingObserver) CriterionEvaluated(url string, c core.Criterion, ev *core.Evaluation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decided = append(r.decided, fmt.Sprintf("%s %s %s", url, c.ID, ev.Status))
}

func (r *recordingObserver) CriterionUpdated(url string, c core.Criterion, ev *core.Evaluation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, fmt.Sprintf("%s %s %s", url, c.ID, ev.Status))
}

func (r *recordingObserver) PageCompleted(url string, _ *core.PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pagesDone = append(r.pagesDone, url)
}

func (r *recordingObserver) SessionPaused(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused++
}

func (r *recordingObserver) SessionResumed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumed++
}

func (r *recordingObserver) Done(summary *core.GlobalSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doneCount++
	r.summary = summary
}

func (r *recordingObserver) decidedFor(url string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, d := range r.decided {
		if len(d) > len(url) && d[:len(url)] == url {
			out = append(out, d)
		}
	}
	return out
}
