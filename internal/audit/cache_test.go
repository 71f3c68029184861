package audit

import (
	"fmt"
	"testing"

	"github.com/hmarchand/wcagaudit/internal/core"
)

func TestCacheHitAndMiss(t *testing.T) {
	c := NewEnrichmentCache(4)

	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := &core.Enrichment{ContrastSamples: 7}
	c.Put("fp1", want)
	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got != want {
		t.Error("expected the same enrichment pointer back")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEnrichmentCache(3)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("fp%d", i), &core.Enrichment{ContrastSamples: i})
	}

	// Touch fp0 so fp1 becomes the eviction candidate.
	if _, ok := c.Get("fp0"); !ok {
		t.Fatal("expected fp0 present")
	}

	c.Put("fp3", &core.Enrichment{})
	if _, ok := c.Get("fp1"); ok {
		t.Error("expected fp1 evicted")
	}
	if _, ok := c.Get("fp0"); !ok {
		t.Error("expected fp0 retained after recent use")
	}
	if c.Len() != 3 {
		t.Errorf("expected len 3, got %d", c.Len())
	}
}

func TestCachePutExistingUpdatesValue(t *testing.T) {
	c := NewEnrichmentCache(2)
	c.Put("fp", &core.Enrichment{ContrastSamples: 1})
	c.Put("fp", &core.Enrichment{ContrastSamples: 2})

	got, ok := c.Get("fp")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.ContrastSamples != 2 {
		t.Errorf("expected updated value, got %d", got.ContrastSamples)
	}
	if c.Len() != 1 {
		t.Errorf("expected single entry, got %d", c.Len())
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := NewEnrichmentCache(0)
	for i := 0; i < 40; i++ {
		c.Put(fmt.Sprintf("fp%d", i), &core.Enrichment{})
	}
	if c.Len() != 32 {
		t.Errorf("expected default capacity 32, got %d", c.Len())
	}
}
