// Package plan loads the audit plan: the pages to visit and the criteria to
// check on each of them.
package plan

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hmarchand/wcagaudit/internal/core"
)

//go:embed criteria.yaml
var defaultCriteriaYAML []byte

// Plan is the unit of work for one audit session. Lang and Output are
// optional overrides of the configured report settings.
type Plan struct {
	Pages    []string         `yaml:"pages"`
	Criteria []core.Criterion `yaml:"criteria"`
	Lang     string           `yaml:"report_lang,omitempty"`
	Output   string           `yaml:"out,omitempty"`
}

type criteriaFile struct {
	Criteria []core.Criterion `yaml:"criteria"`
}

// DefaultCriteria returns the built-in criteria set.
func DefaultCriteria() ([]core.Criterion, error) {
	var f criteriaFile
	if err := yaml.Unmarshal(defaultCriteriaYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing built-in criteria: %w", err)
	}
	return f.Criteria, nil
}

// Load reads a plan file. Pages are required; a missing criteria list falls
// back to the built-in set.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes plan YAML and validates it.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}

	if len(p.Criteria) == 0 {
		criteria, err := DefaultCriteria()
		if err != nil {
			return nil, err
		}
		p.Criteria = criteria
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// New builds a plan from an explicit page list and the default criteria.
func New(pages []string) (*Plan, error) {
	criteria, err := DefaultCriteria()
	if err != nil {
		return nil, err
	}
	p := &Plan{Pages: pages, Criteria: criteria}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) validate() error {
	if len(p.Pages) == 0 {
		return core.ErrValidation(core.CodeEmptyPlan, "plan names no pages")
	}

	seen := make(map[string]bool, len(p.Criteria))
	for _, c := range p.Criteria {
		if c.ID == "" {
			return core.ErrValidation(core.CodeInvalidConfig, "plan contains a criterion without an id")
		}
		if seen[c.ID] {
			return core.ErrValidation(core.CodeInvalidConfig,
				fmt.Sprintf("plan contains duplicate criterion %q", c.ID))
		}
		seen[c.ID] = true
	}

	pageSeen := make(map[string]bool, len(p.Pages))
	for _, page := range p.Pages {
		if pageSeen[page] {
			return core.ErrValidation(core.CodeInvalidConfig,
				fmt.Sprintf("plan lists page %q twice", page))
		}
		pageSeen[page] = true
	}
	return nil
}
