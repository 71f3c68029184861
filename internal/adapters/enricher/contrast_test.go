package enricher

import (
	"context"
	"testing"

	"github.com/hmarchand/wcagaudit/internal/core"
)

func snapWithSource(src string) *core.Snapshot {
	return &core.Snapshot{URL: "https://example.com", RawEvidence: []byte(src)}
}

func TestEnrichFlagsLowContrastPairs(t *testing.T) {
	src := `<p style="color: #777777; background-color: #888888">low</p>
<p style="color: #000000; background-color: #ffffff">high</p>`

	enrichment, err := New().Enrich(context.Background(), snapWithSource(src))
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if enrichment.ContrastSamples != 2 {
		t.Errorf("samples = %d, want 2", enrichment.ContrastSamples)
	}
	if enrichment.ContrastFailures != 1 {
		t.Errorf("failures = %d, want 1", enrichment.ContrastFailures)
	}
	if enrichment.MinContrastRatio >= 4.5 {
		t.Errorf("min ratio = %v, want below AA threshold", enrichment.MinContrastRatio)
	}
	if enrichment.Notes == "" {
		t.Error("failing pairs should be noted")
	}
}

func TestEnrichShortHexAndCaseInsensitiveProperties(t *testing.T) {
	src := `<span style="COLOR: #000; Background-Color: #fff">text</span>`

	enrichment, err := New().Enrich(context.Background(), snapWithSource(src))
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if enrichment.ContrastSamples != 1 {
		t.Fatalf("samples = %d, want 1", enrichment.ContrastSamples)
	}
	if enrichment.MinContrastRatio < 20 {
		t.Errorf("black on white ratio = %v, want 21", enrichment.MinContrastRatio)
	}
	if enrichment.ContrastFailures != 0 {
		t.Errorf("failures = %d, want 0", enrichment.ContrastFailures)
	}
}

func TestEnrichWithoutColorPairs(t *testing.T) {
	enrichment, err := New().Enrich(context.Background(),
		snapWithSource(`<p class="styled">external styles only</p>`))
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if enrichment.ContrastSamples != 0 {
		t.Errorf("samples = %d, want 0", enrichment.ContrastSamples)
	}
	if enrichment.Notes == "" {
		t.Error("unassessed pages should carry an explanatory note")
	}
}

func TestEnrichRequiresRawEvidence(t *testing.T) {
	if _, err := New().Enrich(context.Background(), &core.Snapshot{URL: "u"}); err == nil {
		t.Error("expected error for snapshot without raw evidence")
	}
}

func TestEnrichHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Enrich(ctx, snapWithSource("x")); err == nil {
		t.Error("expected context error")
	}
}
