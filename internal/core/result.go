package core

// PageResult is the completed result matrix row set for one page. Results is
// pre-sized to the session's criteria count and aligned with criteria order.
// It is appended to session state only after every criterion for the page has
// concluded; afterwards only the cross-page pass may patch specific slots.
type PageResult struct {
	URL      string        `json:"url"`
	Title    string        `json:"title,omitempty"`
	Lang     string        `json:"lang,omitempty"`
	Failed   bool          `json:"failed,omitempty"`
	Snapshot *Snapshot     `json:"snapshot,omitempty"`
	Results  []*Evaluation `json:"results"`
}

// NewPageResult creates a page result with a slot per criterion.
func NewPageResult(url string, criteriaCount int) *PageResult {
	return &PageResult{
		URL:     url,
		Results: make([]*Evaluation, criteriaCount),
	}
}

// PageEvidence is the per-page extract of facts relevant to multi-page
// criteria. Accumulated across pages and consumed once by the cross-page pass.
type PageEvidence struct {
	URL          string   `json:"url"`
	Title        string   `json:"title,omitempty"`
	HasSearch    bool     `json:"has_search"`
	NavSignature string   `json:"nav_signature,omitempty"`
	Landmarks    []string `json:"landmarks,omitempty"`
}

// CriterionStatus is the folded global verdict for one criterion.
type CriterionStatus struct {
	CriterionID string `json:"criterion_id"`
	Status      Status `json:"status"`
}

// GlobalSummary is the cross-page fold of all page results.
type GlobalSummary struct {
	Statuses      []CriterionStatus `json:"statuses"`
	Conform       int               `json:"conform"`
	NotConform    int               `json:"not_conform"`
	NonApplicable int               `json:"non_applicable"`
	Review        int               `json:"review"`
	Errors        int               `json:"errors"`
	Score         float64           `json:"score"`
}
