package core

import "context"

// =============================================================================
// Snapshot Collector Port
// =============================================================================

// CollectOptions configures a snapshot collection.
type CollectOptions struct {
	Lang          string
	WithRawSource bool
}

// Collector captures a structured snapshot for one page. Cancellable; failures
// surface as *PageFailure (or a cancellation error).
type Collector interface {
	Collect(ctx context.Context, url string, opts CollectOptions) (*Snapshot, error)
}

// Enricher computes expensive derived analysis from a snapshot's raw evidence.
type Enricher interface {
	Enrich(ctx context.Context, snap *Snapshot) (*Enrichment, error)
}

// =============================================================================
// Rule Evaluator Port
// =============================================================================

// RuleResult is the outcome of a deterministic rule check.
type RuleResult struct {
	Status      Status
	Notes       string
	Examples    []string
	Automated   bool
	AICandidate bool
}

// RuleEvaluator runs the deterministic check for a criterion. Implementations
// are pure and never fail: inconclusive checks come back Review-shaped.
type RuleEvaluator interface {
	Evaluate(c Criterion, snap *Snapshot) RuleResult
	ExtractEvidence(snap *Snapshot) PageEvidence
}

// =============================================================================
// AI Reviewer Port
// =============================================================================

// ReviewFinding is one reviewer verdict for a criterion.
type ReviewFinding struct {
	CriterionID string   `json:"criterion_id"`
	Status      Status   `json:"status"`
	Confidence  float64  `json:"confidence"`
	Rationale   string   `json:"rationale,omitempty"`
	Evidence    []string `json:"evidence,omitempty"`
}

// Reviewer is the external AI judgment service. All calls are cancellable and
// may fail with a retryable (stall-shaped) or non-retryable error.
type Reviewer interface {
	ReviewBatch(ctx context.Context, criteria []Criterion, snap *Snapshot) ([]ReviewFinding, error)
	ReviewOne(ctx context.Context, c Criterion, snap *Snapshot, retry bool) (*ReviewFinding, error)
	ReviewCrossPage(ctx context.Context, c Criterion, evidence []PageEvidence) (*ReviewFinding, error)
	Ping(ctx context.Context) error
}

// =============================================================================
// Report Writer Port
// =============================================================================

// ReportWriter consumes the result matrix. Called after every page and once
// more at the end; must be safe to call repeatedly against the same target.
type ReportWriter interface {
	Write(ctx context.Context, pages []*PageResult, criteria []Criterion, summary *GlobalSummary, final bool) error
}

// =============================================================================
// Resume State Store Port
// =============================================================================

// StateStore persists resume checkpoints.
type StateStore interface {
	// Save persists the checkpoint atomically.
	Save(ctx context.Context, state *ResumeState) error

	// Load retrieves the checkpoint. Returns nil state and no error if none exists.
	Load(ctx context.Context) (*ResumeState, error)

	// Exists reports whether a checkpoint is present.
	Exists() bool

	// Clear discards the checkpoint after a successful session.
	Clear(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// =============================================================================
// Terminal Reporter Port
// =============================================================================

// Stage identifies a step of the per-page lifecycle.
type Stage string

const (
	StageSnapshotting   Stage = "snapshotting"
	StageEnriching      Stage = "enriching"
	StageDispatching    Stage = "dispatching"
	StageBatchReviewing Stage = "batch_reviewing"
	StageFallback       Stage = "fallback"
	StageReviewRetry    Stage = "review_retry"
	StageFinalReporting Stage = "final_reporting"
	StageCrossPage      Stage = "cross_page"
)

// Observer receives lifecycle notifications. Observers are pure sinks and
// never feed back into control flow.
type Observer interface {
	PageStarted(url string, index, total int)
	PageCompleted(url string, result *PageResult)
	StageChanged(url string, stage Stage)
	CriterionEvaluated(url string, c Criterion, ev *Evaluation)
	CriterionUpdated(url string, c Criterion, ev *Evaluation)
	SessionPaused(reason string)
	SessionResumed()
	SessionError(err error)
	Done(summary *GlobalSummary)
}

// NopObserver implements Observer with no-ops; embed it to pick only the
// callbacks an observer cares about.
type NopObserver struct{}

func (NopObserver) PageStarted(string, int, int)                     {}
func (NopObserver) PageCompleted(string, *PageResult)                {}
func (NopObserver) StageChanged(string, Stage)                       {}
func (NopObserver) CriterionEvaluated(string, Criterion, *Evaluation) {}
func (NopObserver) CriterionUpdated(string, Criterion, *Evaluation)   {}
func (NopObserver) SessionPaused(string)                             {}
func (NopObserver) SessionResumed()                                  {}
func (NopObserver) SessionError(error)                               {}
func (NopObserver) Done(*GlobalSummary)                              {}
