// Package rules implements the deterministic evaluation pass: fast structural
// checks over a page snapshot that either settle a criterion outright or mark
// it as a candidate for AI review.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// Evaluator runs the rule table. Stateless and safe for reuse across pages.
type Evaluator struct{}

// New creates a rule evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

type ruleFunc func(snap *core.Snapshot) core.RuleResult

// table maps criterion identifiers to their deterministic check. Criteria
// absent from the table have no automatable rule and go to AI review.
var table = map[string]ruleFunc{
	"1.1":  checkImageAlternatives,
	"2.1":  checkFrameTitles,
	"6.1":  checkLinkNames,
	"8.3":  checkLanguageDeclared,
	"8.5":  checkPageTitle,
	"9.1":  checkHeadingStructure,
	"9.2":  checkDocumentLandmarks,
	"10.2": checkPresentationContrast,
	"11.1": checkFormLabels,
}

// Evaluate runs the deterministic check for a criterion.
func (e *Evaluator) Evaluate(c core.Criterion, snap *core.Snapshot) core.RuleResult {
	if fn, ok := table[c.ID]; ok {
		return fn(snap)
	}
	return core.RuleResult{
		Status:      core.StatusReview,
		Notes:       "no deterministic rule for this criterion",
		AICandidate: true,
	}
}

// ExtractEvidence pulls the page facts the cross-page pass compares.
func (e *Evaluator) ExtractEvidence(snap *core.Snapshot) core.PageEvidence {
	return core.PageEvidence{
		URL:          snap.URL,
		Title:        snap.Title,
		HasSearch:    snap.HasSearch,
		NavSignature: navSignature(snap),
		Landmarks:    snap.Landmarks,
	}
}

// navSignature fingerprints the page's navigation structure: the landmark set
// plus the ordered link targets. Pages with identical navigation produce
// identical signatures.
func navSignature(snap *core.Snapshot) string {
	var b strings.Builder
	for _, lm := range snap.Landmarks {
		b.WriteString(lm)
		b.WriteByte('|')
	}
	b.WriteString("||")
	for _, l := range snap.Links {
		b.WriteString(l.Href)
		b.WriteByte('|')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

func checkImageAlternatives(snap *core.Snapshot) core.RuleResult {
	if len(snap.Images) == 0 {
		return core.RuleResult{
			Status:    core.StatusNonApplicable,
			Notes:     "no images on the page",
			Automated: true,
		}
	}

	var missing []string
	for _, img := range snap.Images {
		if !img.HasAlt {
			missing = append(missing, img.Src)
		}
	}
	if len(missing) > 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     fmt.Sprintf("%d of %d images missing an alt attribute", len(missing), len(snap.Images)),
			Examples:  missing,
			Automated: true,
		}
	}

	// All images carry alt text but its relevance is a judgment call.
	return core.RuleResult{
		Status:      core.StatusReview,
		Notes:       "alt attributes present; relevance needs review",
		AICandidate: true,
	}
}

func checkFrameTitles(snap *core.Snapshot) core.RuleResult {
	if len(snap.Frames) == 0 {
		return core.RuleResult{
			Status:    core.StatusNonApplicable,
			Notes:     "no frames on the page",
			Automated: true,
		}
	}

	var missing []string
	for _, f := range snap.Frames {
		if strings.TrimSpace(f.Title) == "" {
			missing = append(missing, f.Src)
		}
	}
	if len(missing) > 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     fmt.Sprintf("%d of %d frames missing a title", len(missing), len(snap.Frames)),
			Examples:  missing,
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:      core.StatusReview,
		Notes:       "frame titles present; relevance needs review",
		AICandidate: true,
	}
}

func checkLinkNames(snap *core.Snapshot) core.RuleResult {
	if len(snap.Links) == 0 {
		return core.RuleResult{
			Status:    core.StatusNonApplicable,
			Notes:     "no links on the page",
			Automated: true,
		}
	}

	var unnamed []string
	for _, l := range snap.Links {
		if strings.TrimSpace(l.Text) == "" {
			unnamed = append(unnamed, l.Href)
		}
	}
	if len(unnamed) > 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     fmt.Sprintf("%d of %d links have no accessible name", len(unnamed), len(snap.Links)),
			Examples:  unnamed,
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:      core.StatusReview,
		Notes:       "links are named; explicitness needs review",
		AICandidate: true,
	}
}

func checkLanguageDeclared(snap *core.Snapshot) core.RuleResult {
	if strings.TrimSpace(snap.Lang) == "" {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     "document declares no language",
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:    core.StatusConform,
		Notes:     fmt.Sprintf("document language declared as %q", snap.Lang),
		Automated: true,
	}
}

func checkPageTitle(snap *core.Snapshot) core.RuleResult {
	if strings.TrimSpace(snap.Title) == "" {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     "document has no title",
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:      core.StatusReview,
		Notes:       "title present; relevance needs review",
		AICandidate: true,
	}
}

func checkHeadingStructure(snap *core.Snapshot) core.RuleResult {
	if len(snap.Headings) == 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     "page has no headings",
			Automated: true,
		}
	}

	hasH1 := false
	var skips []string
	prev := 0
	for _, h := range snap.Headings {
		if h.Level == 1 {
			hasH1 = true
		}
		if prev > 0 && h.Level > prev+1 {
			skips = append(skips, fmt.Sprintf("h%d follows h%d (%q)", h.Level, prev, h.Text))
		}
		prev = h.Level
	}

	if !hasH1 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     "page has no h1 heading",
			Automated: true,
		}
	}
	if len(skips) > 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     fmt.Sprintf("heading hierarchy skips levels (%d occurrences)", len(skips)),
			Examples:  skips,
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:    core.StatusConform,
		Notes:     "heading hierarchy is consistent",
		Automated: true,
	}
}

func checkDocumentLandmarks(snap *core.Snapshot) core.RuleResult {
	found := map[string]bool{}
	for _, lm := range snap.Landmarks {
		found[strings.ToLower(lm)] = true
	}
	if !found["main"] {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     "page declares no main landmark",
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:    core.StatusConform,
		Notes:     "document structure landmarks present",
		Automated: true,
	}
}

// checkPresentationContrast settles what the contrast enrichment can prove:
// sampled failures are a hard verdict, everything else stays a judgment call.
func checkPresentationContrast(snap *core.Snapshot) core.RuleResult {
	e := snap.Enrichment
	if e == nil || e.ContrastSamples == 0 {
		return core.RuleResult{
			Status:      core.StatusReview,
			Notes:       "no contrast analysis available",
			AICandidate: true,
		}
	}
	if e.ContrastFailures > 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     e.Notes,
			Automated: true,
		}
	}
	return core.RuleResult{
		Status: core.StatusReview,
		Notes: fmt.Sprintf("%d sampled color pairs pass (min ratio %.2f:1); unstyled readability needs review",
			e.ContrastSamples, e.MinContrastRatio),
		AICandidate: true,
	}
}

func checkFormLabels(snap *core.Snapshot) core.RuleResult {
	fields := 0
	var unlabeled []string
	for _, form := range snap.Forms {
		for _, f := range form.Fields {
			fields++
			if !f.HasLabel {
				unlabeled = append(unlabeled, f.Name)
			}
		}
	}

	if fields == 0 {
		return core.RuleResult{
			Status:    core.StatusNonApplicable,
			Notes:     "no form fields on the page",
			Automated: true,
		}
	}
	if len(unlabeled) > 0 {
		return core.RuleResult{
			Status:    core.StatusNotConform,
			Notes:     fmt.Sprintf("%d of %d form fields have no label", len(unlabeled), fields),
			Examples:  unlabeled,
			Automated: true,
		}
	}
	return core.RuleResult{
		Status:      core.StatusReview,
		Notes:       "labels present; pertinence needs review",
		AICandidate: true,
	}
}

var _ core.RuleEvaluator = (*Evaluator)(nil)
