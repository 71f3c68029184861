package events

import "time"

// Event type constants for audit lifecycle events.
const (
	TypeSessionStarted   = "session_started"
	TypeSessionPaused    = "session_paused"
	TypeSessionResumed   = "session_resumed"
	TypeSessionCompleted = "session_completed"
	TypeSessionFailed    = "session_failed"
	TypePageStarted      = "page_started"
	TypePageCompleted    = "page_completed"
	TypePageFailed       = "page_failed"
	TypeStageChanged     = "stage_changed"
	TypeCriterionDecided = "criterion_decided"
	TypeCriterionUpdated = "criterion_updated"
	TypeCheckpointSaved  = "checkpoint_saved"
	TypeCrossPageStarted = "cross_page_started"
)

// SessionStartedEvent is emitted when the audit session begins.
type SessionStartedEvent struct {
	BaseEvent
	Pages    int  `json:"pages"`
	Criteria int  `json:"criteria"`
	Resumed  bool `json:"resumed"`
}

// NewSessionStartedEvent creates a new session started event.
func NewSessionStartedEvent(sessionID string, pages, criteria int, resumed bool) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(TypeSessionStarted, sessionID),
		Pages:     pages,
		Criteria:  criteria,
		Resumed:   resumed,
	}
}

// SessionPausedEvent is emitted when the session pauses.
type SessionPausedEvent struct {
	BaseEvent
	Reason string `json:"reason,omitempty"`
}

// NewSessionPausedEvent creates a new session paused event.
func NewSessionPausedEvent(sessionID, reason string) SessionPausedEvent {
	return SessionPausedEvent{
		BaseEvent: NewBaseEvent(TypeSessionPaused, sessionID),
		Reason:    reason,
	}
}

// SessionResumedEvent is emitted when a paused session resumes.
type SessionResumedEvent struct {
	BaseEvent
}

// NewSessionResumedEvent creates a new session resumed event.
func NewSessionResumedEvent(sessionID string) SessionResumedEvent {
	return SessionResumedEvent{BaseEvent: NewBaseEvent(TypeSessionResumed, sessionID)}
}

// SessionCompletedEvent is emitted when the session finishes successfully.
type SessionCompletedEvent struct {
	BaseEvent
	Score    float64       `json:"score"`
	Duration time.Duration `json:"duration"`
}

// NewSessionCompletedEvent creates a new session completed event.
func NewSessionCompletedEvent(sessionID string, score float64, duration time.Duration) SessionCompletedEvent {
	return SessionCompletedEvent{
		BaseEvent: NewBaseEvent(TypeSessionCompleted, sessionID),
		Score:     score,
		Duration:  duration,
	}
}

// SessionFailedEvent is emitted when the session terminates with an error.
type SessionFailedEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewSessionFailedEvent creates a new session failed event.
func NewSessionFailedEvent(sessionID, errMsg string) SessionFailedEvent {
	return SessionFailedEvent{
		BaseEvent: NewBaseEvent(TypeSessionFailed, sessionID),
		Error:     errMsg,
	}
}

// PageStartedEvent is emitted when a page begins processing.
type PageStartedEvent struct {
	BaseEvent
	URL   string `json:"url"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// NewPageStartedEvent creates a new page started event.
func NewPageStartedEvent(sessionID, url string, index, total int) PageStartedEvent {
	return PageStartedEvent{
		BaseEvent: NewBaseEvent(TypePageStarted, sessionID),
		URL:       url,
		Index:     index,
		Total:     total,
	}
}

// PageCompletedEvent is emitted when a page concludes (success or handled failure).
type PageCompletedEvent struct {
	BaseEvent
	URL    string `json:"url"`
	Failed bool   `json:"failed"`
}

// NewPageCompletedEvent creates a new page completed event.
func NewPageCompletedEvent(sessionID, url string, failed bool) PageCompletedEvent {
	return PageCompletedEvent{
		BaseEvent: NewBaseEvent(TypePageCompleted, sessionID),
		URL:       url,
		Failed:    failed,
	}
}

// StageChangedEvent is emitted on per-page stage transitions.
type StageChangedEvent struct {
	BaseEvent
	URL   string `json:"url"`
	Stage string `json:"stage"`
}

// NewStageChangedEvent creates a new stage changed event.
func NewStageChangedEvent(sessionID, url, stage string) StageChangedEvent {
	return StageChangedEvent{
		BaseEvent: NewBaseEvent(TypeStageChanged, sessionID),
		URL:       url,
		Stage:     stage,
	}
}

// CriterionDecidedEvent is emitted when a criterion is first classified.
type CriterionDecidedEvent struct {
	BaseEvent
	URL         string `json:"url"`
	CriterionID string `json:"criterion_id"`
	Status      string `json:"status"`
	Automated   bool   `json:"automated"`
}

// NewCriterionDecidedEvent creates a new criterion decided event.
func NewCriterionDecidedEvent(sessionID, url, criterionID, status string, automated bool) CriterionDecidedEvent {
	return CriterionDecidedEvent{
		BaseEvent:   NewBaseEvent(TypeCriterionDecided, sessionID),
		URL:         url,
		CriterionID: criterionID,
		Status:      status,
		Automated:   automated,
	}
}

// CriterionUpdatedEvent is emitted when a retry or the cross-page pass
// overwrites an already-reported slot.
type CriterionUpdatedEvent struct {
	BaseEvent
	URL         string `json:"url"`
	CriterionID string `json:"criterion_id"`
	Status      string `json:"status"`
}

// NewCriterionUpdatedEvent creates a new criterion updated event.
func NewCriterionUpdatedEvent(sessionID, url, criterionID, status string) CriterionUpdatedEvent {
	return CriterionUpdatedEvent{
		BaseEvent:   NewBaseEvent(TypeCriterionUpdated, sessionID),
		URL:         url,
		CriterionID: criterionID,
		Status:      status,
	}
}

// CheckpointSavedEvent is emitted after a checkpoint write.
type CheckpointSavedEvent struct {
	BaseEvent
	CompletedPages int `json:"completed_pages"`
}

// NewCheckpointSavedEvent creates a new checkpoint saved event.
func NewCheckpointSavedEvent(sessionID string, completedPages int) CheckpointSavedEvent {
	return CheckpointSavedEvent{
		BaseEvent:      NewBaseEvent(TypeCheckpointSaved, sessionID),
		CompletedPages: completedPages,
	}
}

// CrossPageStartedEvent is emitted when the second pass begins.
type CrossPageStartedEvent struct {
	BaseEvent
	Criteria []string `json:"criteria"`
}

// NewCrossPageStartedEvent creates a new cross page started event.
func NewCrossPageStartedEvent(sessionID string, criteria []string) CrossPageStartedEvent {
	return CrossPageStartedEvent{
		BaseEvent: NewBaseEvent(TypeCrossPageStarted, sessionID),
		Criteria:  criteria,
	}
}
