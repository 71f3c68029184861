package rules

import (
	"testing"

	"github.com/hmarchand/wcagaudit/internal/core"
)

func evaluate(t *testing.T, id string, snap *core.Snapshot) core.RuleResult {
	t.Helper()
	return New().Evaluate(core.Criterion{ID: id}, snap)
}

func TestImageAlternatives(t *testing.T) {
	cases := []struct {
		name   string
		images []core.Image
		want   core.Status
		ai     bool
	}{
		{"no images", nil, core.StatusNonApplicable, false},
		{"missing alt", []core.Image{{Src: "a.png"}}, core.StatusNotConform, false},
		{"all alts present", []core.Image{{Src: "a.png", Alt: "logo", HasAlt: true}}, core.StatusReview, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := evaluate(t, "1.1", &core.Snapshot{Images: tc.images})
			if res.Status != tc.want {
				t.Errorf("status = %s, want %s", res.Status, tc.want)
			}
			if res.AICandidate != tc.ai {
				t.Errorf("ai candidate = %v, want %v", res.AICandidate, tc.ai)
			}
		})
	}
}

func TestLanguageDeclared(t *testing.T) {
	if res := evaluate(t, "8.3", &core.Snapshot{Lang: "en"}); res.Status != core.StatusConform {
		t.Errorf("declared language = %s, want conform", res.Status)
	}
	res := evaluate(t, "8.3", &core.Snapshot{})
	if res.Status != core.StatusNotConform {
		t.Errorf("missing language = %s, want not_conform", res.Status)
	}
	if !res.Automated {
		t.Error("expected automated verdict")
	}
}

func TestPresentationContrast(t *testing.T) {
	cases := []struct {
		name       string
		enrichment *core.Enrichment
		want       core.Status
		ai         bool
	}{
		{"no enrichment", nil, core.StatusReview, true},
		{"no samples", &core.Enrichment{}, core.StatusReview, true},
		{"failing pairs", &core.Enrichment{ContrastSamples: 3, ContrastFailures: 1, Notes: "1 of 3 below threshold"}, core.StatusNotConform, false},
		{"all pairs pass", &core.Enrichment{ContrastSamples: 3, MinContrastRatio: 7.1}, core.StatusReview, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := evaluate(t, "10.2", &core.Snapshot{Enrichment: tc.enrichment})
			if res.Status != tc.want {
				t.Errorf("status = %s, want %s", res.Status, tc.want)
			}
			if res.AICandidate != tc.ai {
				t.Errorf("ai candidate = %v, want %v", res.AICandidate, tc.ai)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	if res := evaluate(t, "8.5", &core.Snapshot{}); res.Status != core.StatusNotConform {
		t.Errorf("missing title = %s, want not_conform", res.Status)
	}
	res := evaluate(t, "8.5", &core.Snapshot{Title: "Home"})
	if res.Status != core.StatusReview || !res.AICandidate {
		t.Errorf("present title should go to review, got %+v", res)
	}
}

func TestHeadingStructure(t *testing.T) {
	cases := []struct {
		name     string
		headings []core.Heading
		want     core.Status
	}{
		{"no headings", nil, core.StatusNotConform},
		{"missing h1", []core.Heading{{Level: 2, Text: "Section"}}, core.StatusNotConform},
		{"level skip", []core.Heading{{Level: 1, Text: "Top"}, {Level: 3, Text: "Deep"}}, core.StatusNotConform},
		{"clean hierarchy", []core.Heading{{Level: 1, Text: "Top"}, {Level: 2, Text: "Sub"}, {Level: 2, Text: "Sub2"}}, core.StatusConform},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := evaluate(t, "9.1", &core.Snapshot{Headings: tc.headings})
			if res.Status != tc.want {
				t.Errorf("status = %s, want %s", res.Status, tc.want)
			}
		})
	}
}

func TestFormLabels(t *testing.T) {
	labeled := core.Form{Fields: []core.FormField{{Type: "text", Name: "q", Label: "Search", HasLabel: true}}}
	unlabeled := core.Form{Fields: []core.FormField{{Type: "text", Name: "q"}}}

	if res := evaluate(t, "11.1", &core.Snapshot{}); res.Status != core.StatusNonApplicable {
		t.Errorf("no fields = %s, want non_applicable", res.Status)
	}
	if res := evaluate(t, "11.1", &core.Snapshot{Forms: []core.Form{unlabeled}}); res.Status != core.StatusNotConform {
		t.Errorf("unlabeled field = %s, want not_conform", res.Status)
	}
	if res := evaluate(t, "11.1", &core.Snapshot{Forms: []core.Form{labeled}}); !res.AICandidate {
		t.Error("labeled fields should queue for review")
	}
}

func TestLinkNames(t *testing.T) {
	if res := evaluate(t, "6.1", &core.Snapshot{Links: []core.Link{{Href: "/x"}}}); res.Status != core.StatusNotConform {
		t.Errorf("unnamed link = %s, want not_conform", res.Status)
	}
}

func TestFrameTitles(t *testing.T) {
	if res := evaluate(t, "2.1", &core.Snapshot{Frames: []core.Frame{{Src: "a.html"}}}); res.Status != core.StatusNotConform {
		t.Errorf("untitled frame = %s, want not_conform", res.Status)
	}
}

func TestLandmarks(t *testing.T) {
	if res := evaluate(t, "9.2", &core.Snapshot{Landmarks: []string{"banner", "main"}}); res.Status != core.StatusConform {
		t.Errorf("with main landmark = %s, want conform", res.Status)
	}
	if res := evaluate(t, "9.2", &core.Snapshot{Landmarks: []string{"banner"}}); res.Status != core.StatusNotConform {
		t.Errorf("without main landmark = %s, want not_conform", res.Status)
	}
}

func TestUnknownCriterionGoesToReview(t *testing.T) {
	res := evaluate(t, "10.2", &core.Snapshot{})
	if res.Status != core.StatusReview || !res.AICandidate {
		t.Errorf("unknown criterion should be an AI candidate, got %+v", res)
	}
}

func TestNavSignatureStableAcrossIdenticalNavigation(t *testing.T) {
	e := New()
	a := &core.Snapshot{
		URL:       "https://a.example",
		Landmarks: []string{"banner", "navigation", "main"},
		Links:     []core.Link{{Href: "/home", Text: "Home"}, {Href: "/about", Text: "About"}},
	}
	b := &core.Snapshot{
		URL:       "https://b.example",
		Landmarks: []string{"banner", "navigation", "main"},
		Links:     []core.Link{{Href: "/home", Text: "Home"}, {Href: "/about", Text: "About"}},
	}
	if e.ExtractEvidence(a).NavSignature != e.ExtractEvidence(b).NavSignature {
		t.Error("identical navigation must produce identical signatures")
	}

	b.Links[1].Href = "/contact"
	if e.ExtractEvidence(a).NavSignature == e.ExtractEvidence(b).NavSignature {
		t.Error("different navigation must produce different signatures")
	}
}
