package core

// Status is the verdict for one criterion on one page.
type Status string

const (
	StatusConform       Status = "conform"
	StatusNotConform    Status = "not_conform"
	StatusNonApplicable Status = "non_applicable"
	StatusError         Status = "error"
	StatusReview        Status = "review"
)

// AIJudgment carries the reviewer's verdict details for AI-derived evaluations.
type AIJudgment struct {
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
}

// Evaluation is the result of checking one criterion on one page.
// It is produced exactly once per criterion per page, though the batch,
// fallback and retry stages may overwrite the slot in place before the
// page result is sealed.
type Evaluation struct {
	CriterionID string      `json:"criterion_id"`
	Theme       string      `json:"theme,omitempty"`
	Title       string      `json:"title,omitempty"`
	Status      Status      `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	AI          *AIJudgment `json:"ai,omitempty"`
	Automated   bool        `json:"automated"`
	AICandidate bool        `json:"ai_candidate"`
}

// NewErrorEvaluation builds an Error evaluation for a criterion.
func NewErrorEvaluation(c Criterion, notes string) *Evaluation {
	return &Evaluation{
		CriterionID: c.ID,
		Theme:       c.Theme,
		Title:       c.Title,
		Status:      StatusError,
		Notes:       notes,
	}
}

// NewReviewEvaluation builds a Review evaluation for a criterion.
func NewReviewEvaluation(c Criterion, notes string) *Evaluation {
	return &Evaluation{
		CriterionID: c.ID,
		Theme:       c.Theme,
		Title:       c.Title,
		Status:      StatusReview,
		Notes:       notes,
	}
}
