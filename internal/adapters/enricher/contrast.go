// Package enricher derives visual analysis from a page's raw source. The
// current implementation samples inline color declarations and estimates
// text contrast against the WCAG AA threshold.
package enricher

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// minAAContrast is the WCAG AA contrast threshold for normal text.
const minAAContrast = 4.5

// ContrastEnricher estimates text contrast from inline style declarations.
// It is a heuristic: pages styled purely through external stylesheets yield
// no samples and come back with an empty enrichment.
type ContrastEnricher struct{}

// New creates a contrast enricher.
func New() *ContrastEnricher {
	return &ContrastEnricher{}
}

var styleAttrRe = regexp.MustCompile(`style\s*=\s*"([^"]*)"`)

// Enrich scans raw evidence for style attributes pairing a text color with a
// background color and scores each pair.
func (e *ContrastEnricher) Enrich(ctx context.Context, snap *core.Snapshot) (*core.Enrichment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(snap.RawEvidence) == 0 {
		return nil, fmt.Errorf("snapshot for %s carries no raw evidence", snap.URL)
	}

	enrichment := &core.Enrichment{}
	minRatio := math.Inf(1)

	for _, m := range styleAttrRe.FindAllStringSubmatch(string(snap.RawEvidence), -1) {
		fg, fgOK := parseDeclaration(m[1], "color")
		bg, bgOK := parseDeclaration(m[1], "background-color")
		if !fgOK || !bgOK {
			continue
		}
		ratio := contrastRatio(fg, bg)
		enrichment.ContrastSamples++
		if ratio < minAAContrast {
			enrichment.ContrastFailures++
		}
		if ratio < minRatio {
			minRatio = ratio
		}
	}

	if enrichment.ContrastSamples == 0 {
		enrichment.Notes = "no inline color pairs found; contrast not assessed"
		return enrichment, nil
	}

	enrichment.MinContrastRatio = math.Round(minRatio*100) / 100
	if enrichment.ContrastFailures > 0 {
		enrichment.Notes = fmt.Sprintf("%d of %d sampled color pairs fall below %.1f:1",
			enrichment.ContrastFailures, enrichment.ContrastSamples, minAAContrast)
	}
	return enrichment, nil
}

type rgb struct {
	r, g, b float64
}

// parseDeclaration extracts a hex color value for the given property from a
// style declaration list. Only #rgb and #rrggbb literals are understood.
func parseDeclaration(style, property string) (rgb, bool) {
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), property) {
			continue
		}
		return parseHexColor(strings.TrimSpace(value))
	}
	return rgb{}, false
}

func parseHexColor(s string) (rgb, bool) {
	if !strings.HasPrefix(s, "#") {
		return rgb{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{
		r: float64(v>>16&0xff) / 255,
		g: float64(v>>8&0xff) / 255,
		b: float64(v&0xff) / 255,
	}, true
}

// contrastRatio implements the WCAG relative luminance contrast formula.
func contrastRatio(a, b rgb) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

func luminance(c rgb) float64 {
	lin := func(v float64) float64 {
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.r) + 0.7152*lin(c.g) + 0.0722*lin(c.b)
}

var _ core.Enricher = (*ContrastEnricher)(nil)
