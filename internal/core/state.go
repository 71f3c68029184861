package core

import "time"

// CurrentStateVersion is the schema version for resume checkpoints.
const CurrentStateVersion = 1

// PageMeta is the per-page title/lang metadata carried in checkpoints.
type PageMeta struct {
	Title string `json:"title,omitempty"`
	Lang  string `json:"lang,omitempty"`
}

// ResumeState is the durable checkpoint written after every completed page.
// CriteriaIDs is the compatibility token: a checkpoint whose ordered id list
// differs from the current run's criteria is rejected at startup.
type ResumeState struct {
	Version           int                 `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Pages             []string            `json:"pages"`
	ReportLang        string              `json:"report_lang,omitempty"`
	OutPath           string              `json:"out_path,omitempty"`
	CriteriaIDs       []string            `json:"criteria_ids"`
	CompletedPages    []*PageResult       `json:"completed_pages"`
	CrossPageEvidence []PageEvidence      `json:"cross_page_evidence,omitempty"`
	PageMeta          map[string]PageMeta `json:"page_meta,omitempty"`
}

// NewResumeState creates an empty checkpoint for a fresh session.
func NewResumeState(pages []string, criteriaIDs []string, reportLang, outPath string) *ResumeState {
	now := time.Now()
	return &ResumeState{
		Version:     CurrentStateVersion,
		CreatedAt:   now,
		UpdatedAt:   now,
		Pages:       pages,
		ReportLang:  reportLang,
		OutPath:     outPath,
		CriteriaIDs: criteriaIDs,
		PageMeta:    make(map[string]PageMeta),
	}
}

// CompatibleWith checks the checkpoint against the current run's criteria
// identity. Incompatible checkpoints must never be silently merged.
func (s *ResumeState) CompatibleWith(criteriaIDs []string) error {
	if !SameCriteria(s.CriteriaIDs, criteriaIDs) {
		return ErrState(CodeResumeIncompatible,
			"checkpoint criteria identity differs from current run; refusing to resume")
	}
	return nil
}
