package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Snapshot is the structured evidence bundle captured from a single page.
// It is owned exclusively by the page that produced it and becomes immutable
// once attached to a PageResult, except that enrichment outputs are stamped
// onto it before evaluation.
type Snapshot struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Lang      string    `json:"lang,omitempty"`
	Headings  []Heading `json:"headings,omitempty"`
	Links     []Link    `json:"links,omitempty"`
	Images    []Image   `json:"images,omitempty"`
	Forms     []Form    `json:"forms,omitempty"`
	Frames    []Frame   `json:"frames,omitempty"`
	Landmarks []string  `json:"landmarks,omitempty"`
	HasSearch bool      `json:"has_search"`

	// RawEvidence is the serialized source material enrichment is computed
	// from. Dropped by Compact before the snapshot is persisted.
	RawEvidence []byte `json:"-"`

	Enrichment     *Enrichment     `json:"enrichment,omitempty"`
	EnrichmentMeta *EnrichmentMeta `json:"enrichment_meta,omitempty"`
}

// Heading is a document heading with its level.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link is an anchor with its accessible name.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Image records an img element and its alternative text.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	HasAlt bool   `json:"has_alt"`
}

// Form is a form element with its fields.
type Form struct {
	Action string      `json:"action,omitempty"`
	Role   string      `json:"role,omitempty"`
	Fields []FormField `json:"fields,omitempty"`
}

// FormField is one input control and its labelling state.
type FormField struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Label    string `json:"label,omitempty"`
	HasLabel bool   `json:"has_label"`
}

// Frame records an iframe and its title attribute.
type Frame struct {
	Src   string `json:"src,omitempty"`
	Title string `json:"title,omitempty"`
}

// Enrichment holds expensive derived analysis (visual/contrast level facts)
// computed from the raw evidence.
type Enrichment struct {
	ContrastSamples  int     `json:"contrast_samples"`
	ContrastFailures int     `json:"contrast_failures"`
	MinContrastRatio float64 `json:"min_contrast_ratio,omitempty"`
	Notes            string  `json:"notes,omitempty"`
}

// EnrichmentMeta records how the enrichment was obtained.
type EnrichmentMeta struct {
	Fingerprint string    `json:"fingerprint"`
	Cached      bool      `json:"cached"`
	ComputedAt  time.Time `json:"computed_at"`
}

// EnrichmentFingerprint returns the stable content hash of the raw evidence
// enrichment is derived from. Empty when there is nothing to enrich.
func (s *Snapshot) EnrichmentFingerprint() string {
	if len(s.RawEvidence) == 0 {
		return ""
	}
	sum := sha256.Sum256(s.RawEvidence)
	return hex.EncodeToString(sum[:])
}

// Compact drops bulky raw evidence so the snapshot can be persisted in a
// checkpoint without dragging page source along.
func (s *Snapshot) Compact() {
	s.RawEvidence = nil
}
