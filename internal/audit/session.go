package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hmarchand/wcagaudit/internal/control"
	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/events"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

// Deps bundles the ports a session needs. The bus and store are optional;
// everything else is required.
type Deps struct {
	Collector core.Collector
	Enricher  core.Enricher
	Rules     core.RuleEvaluator
	Reviewer  core.Reviewer
	Writer    core.ReportWriter
	Store     core.StateStore
	Plane     *control.Plane
	Bus       *events.Bus
	Logger    *logging.Logger
}

// Progress is a point-in-time view of the session for status endpoints.
type Progress struct {
	SessionID      string     `json:"session_id"`
	Paused         bool       `json:"paused"`
	Cancelled      bool       `json:"cancelled"`
	CurrentPage    string     `json:"current_page,omitempty"`
	CurrentStage   core.Stage `json:"current_stage,omitempty"`
	CompletedPages int        `json:"completed_pages"`
	TotalPages     int        `json:"total_pages"`
	StartedAt      time.Time  `json:"started_at"`
}

// Session runs one audit: sequential pages through the page runner, a
// checkpoint after every completed page, the cross-page second pass, and the
// final fold. Pages are strictly sequential; concurrency lives inside the
// reviewer adapter, not here.
type Session struct {
	id       string
	cfg      Config
	pages    []string
	criteria []core.Criterion

	runner    *PageRunner
	crossPage *CrossPageEvaluator
	retrier   *PauseRetrier
	writer    core.ReportWriter
	store     core.StateStore
	plane     *control.Plane
	bus       *events.Bus
	logger    *logging.Logger

	observers []core.Observer

	mu           sync.RWMutex
	completed    []*core.PageResult
	evidence     []core.PageEvidence
	currentURL   string
	currentStage core.Stage
	startedAt    time.Time
}

// NewSession assembles a session over the given plan and dependencies.
func NewSession(cfg Config, pages []string, criteria []core.Criterion, deps Deps) *Session {
	cfg = cfg.normalized()
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	id := uuid.NewString()
	logger = logger.WithSession(id)

	retrier := NewPauseRetrier(deps.Plane, logger)
	cache := NewEnrichmentCache(cfg.CacheSize)

	s := &Session{
		id:       id,
		cfg:      cfg,
		pages:    pages,
		criteria: criteria,
		runner: NewPageRunner(cfg, deps.Collector, deps.Enricher, deps.Rules,
			deps.Reviewer, retrier, cache, logger),
		crossPage: NewCrossPageEvaluator(cfg, deps.Reviewer, retrier, logger),
		retrier:   retrier,
		writer:    deps.Writer,
		store:     deps.Store,
		plane:     deps.Plane,
		bus:       deps.Bus,
		logger:    logger,
	}

	retrier.OnPause = func(op string, cause error) {
		reason := "failure during " + op + ": " + cause.Error()
		s.notify(func(o core.Observer) { o.SessionPaused(reason) })
		s.publish(events.NewSessionPausedEvent(s.id, reason))
	}
	retrier.OnResume = func(string) {
		s.notify(func(o core.Observer) { o.SessionResumed() })
		s.publish(events.NewSessionResumedEvent(s.id))
	}

	s.runner.onStage = func(url string, stage core.Stage) {
		s.setProgress(url, stage)
		s.notify(func(o core.Observer) { o.StageChanged(url, stage) })
		s.publish(events.NewStageChangedEvent(s.id, url, string(stage)))
	}
	s.runner.onDecide = func(url string, c core.Criterion, ev *core.Evaluation) {
		s.notify(func(o core.Observer) { o.CriterionEvaluated(url, c, ev) })
		s.publish(events.NewCriterionDecidedEvent(s.id, url, c.ID, string(ev.Status), ev.Automated))
	}
	s.runner.onUpdate = func(url string, c core.Criterion, ev *core.Evaluation) {
		s.notify(func(o core.Observer) { o.CriterionUpdated(url, c, ev) })
		s.publish(events.NewCriterionUpdatedEvent(s.id, url, c.ID, string(ev.Status)))
	}
	s.crossPage.OnUpdate = s.runner.onUpdate

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AddObserver registers a lifecycle observer. Must be called before Run.
func (s *Session) AddObserver(o core.Observer) {
	s.observers = append(s.observers, o)
}

// Progress returns the current session progress.
func (s *Session) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := Progress{
		SessionID:      s.id,
		CurrentPage:    s.currentURL,
		CurrentStage:   s.currentStage,
		CompletedPages: len(s.completed),
		TotalPages:     len(s.pages),
		StartedAt:      s.startedAt,
	}
	if s.plane != nil {
		st := s.plane.Status()
		p.Paused = st.Paused
		p.Cancelled = st.Cancelled
	}
	return p
}

// Run executes the audit to completion. Returns nil on success (including
// sessions where individual pages failed but were reported as Error rows);
// returns an error on cancellation, fail-fast page failure, incompatible
// resume state or a final report write failure.
func (s *Session) Run(ctx context.Context) error {
	if len(s.pages) == 0 {
		return core.ErrValidation(core.CodeEmptyPlan, "no pages to audit")
	}
	if len(s.criteria) == 0 {
		return core.ErrValidation(core.CodeEmptyPlan, "no criteria to audit")
	}

	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	resumed, err := s.restore(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("session started",
		"pages", len(s.pages), "criteria", len(s.criteria), "resumed", resumed)
	s.publish(events.NewSessionStartedEvent(s.id, len(s.pages), len(s.criteria), resumed))

	if err := s.runPages(ctx); err != nil {
		return s.fail(err)
	}

	if err := s.runCrossPage(ctx); err != nil {
		return s.fail(err)
	}

	summary := ComputeSummary(s.completed, s.criteria)
	if err := s.writer.Write(ctx, s.completed, s.criteria, summary, true); err != nil {
		return s.fail(err)
	}

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear checkpoint", "error", err)
		}
	}

	s.notify(func(o core.Observer) { o.Done(summary) })
	s.publishPriority(events.NewSessionCompletedEvent(s.id, summary.Score, time.Since(s.startedAt)))
	s.logger.Info("session completed",
		"score", summary.Score, "duration", time.Since(s.startedAt))
	return nil
}

// restore loads an existing checkpoint when resuming. An incompatible
// checkpoint aborts the session before any page work starts.
func (s *Session) restore(ctx context.Context) (bool, error) {
	if !s.cfg.Resume || s.store == nil || !s.store.Exists() {
		return false, nil
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, nil
	}
	if err := state.CompatibleWith(core.CriteriaIDs(s.criteria)); err != nil {
		return false, err
	}
	if len(state.CompletedPages) > len(s.pages) {
		return false, core.ErrState(core.CodeStateCorrupted,
			"checkpoint has more completed pages than the current plan")
	}

	s.mu.Lock()
	s.completed = state.CompletedPages
	s.evidence = state.CrossPageEvidence
	s.mu.Unlock()

	s.logger.Info("resuming from checkpoint",
		"completed_pages", len(state.CompletedPages), "total_pages", len(s.pages))
	return true, nil
}

func (s *Session) runPages(ctx context.Context) error {
	multiPage := len(s.pages) > 1

	for i := len(s.completed); i < len(s.pages); i++ {
		if s.plane != nil && s.plane.IsCancelled() {
			return context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.plane != nil {
			if err := s.plane.WaitIfPaused(ctx); err != nil {
				return err
			}
		}

		url := s.pages[i]
		s.setProgress(url, "")
		s.logger.Info("page started", "page", url, "index", i+1, "total", len(s.pages))
		s.notify(func(o core.Observer) { o.PageStarted(url, i, len(s.pages)) })
		s.publish(events.NewPageStartedEvent(s.id, url, i, len(s.pages)))

		result, evidence, err := s.runner.Run(ctx, url, s.criteria, multiPage)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.completed = append(s.completed, result)
		s.evidence = append(s.evidence, evidence)
		s.mu.Unlock()

		s.notify(func(o core.Observer) { o.PageCompleted(url, result) })
		s.publish(events.NewPageCompletedEvent(s.id, url, result.Failed))

		s.checkpoint(ctx)
		s.writeIncremental(ctx)
	}
	return nil
}

func (s *Session) runCrossPage(ctx context.Context) error {
	if len(s.pages) < 2 || !HasDeferredCriteria(s.criteria) {
		return nil
	}

	// Failed pages contribute no evidence. If nothing was collected the
	// reviewer has nothing to compare; the deferred slots stay Error rows.
	hasEvidence := false
	for _, page := range s.completed {
		if !page.Failed {
			hasEvidence = true
			break
		}
	}
	if !hasEvidence {
		s.logger.Info("cross-page pass skipped, no page produced evidence")
		return nil
	}

	var deferred []string
	for _, c := range s.criteria {
		if IsDeferredCriterion(c.ID) {
			deferred = append(deferred, c.ID)
		}
	}
	s.setProgress("", core.StageCrossPage)
	s.logger.Info("cross-page pass started", "criteria", deferred)
	s.publish(events.NewCrossPageStartedEvent(s.id, deferred))

	if err := s.crossPage.Run(ctx, s.completed, s.criteria, s.evidence); err != nil {
		return err
	}

	s.checkpoint(ctx)
	return nil
}

// checkpoint persists the resume state. A save failure is logged and the
// session continues: losing a checkpoint costs redone work, not correctness.
func (s *Session) checkpoint(ctx context.Context) {
	if s.store == nil {
		return
	}

	state := core.NewResumeState(s.pages, core.CriteriaIDs(s.criteria),
		s.cfg.ReportLang, s.cfg.OutPath)
	s.mu.RLock()
	state.CompletedPages = s.completed
	state.CrossPageEvidence = s.evidence
	for _, page := range s.completed {
		state.PageMeta[page.URL] = core.PageMeta{Title: page.Title, Lang: page.Lang}
	}
	completed := len(s.completed)
	s.mu.RUnlock()

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.Warn("checkpoint save failed, continuing", "error", err)
		return
	}
	s.publish(events.NewCheckpointSavedEvent(s.id, completed))
}

// writeIncremental refreshes the report after a page. Best-effort; the final
// write at session end is the one that must succeed.
func (s *Session) writeIncremental(ctx context.Context) {
	summary := ComputeSummary(s.completed, s.criteria)
	if err := s.writer.Write(ctx, s.completed, s.criteria, summary, false); err != nil {
		s.logger.Warn("incremental report write failed", "error", err)
	}
}

func (s *Session) fail(err error) error {
	if core.IsCancellation(err) {
		s.logger.Info("session cancelled")
	} else {
		s.logger.Error("session failed", "error", err)
	}
	s.notify(func(o core.Observer) { o.SessionError(err) })
	s.publishPriority(events.NewSessionFailedEvent(s.id, err.Error()))
	return err
}

func (s *Session) setProgress(url string, stage core.Stage) {
	s.mu.Lock()
	if url != "" {
		s.currentURL = url
	}
	s.currentStage = stage
	s.mu.Unlock()
}

func (s *Session) notify(fn func(core.Observer)) {
	for _, o := range s.observers {
		fn(o)
	}
}

func (s *Session) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func (s *Session) publishPriority(ev events.Event) {
	if s.bus != nil {
		s.bus.PublishPriority(ev)
	}
}
