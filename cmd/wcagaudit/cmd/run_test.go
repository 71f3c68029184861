package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hmarchand/wcagaudit/internal/config"
)

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolvePlanArgumentsWin(t *testing.T) {
	runPlanFile = writePlanFile(t, "pages:\n  - https://file.example\n")
	defer func() { runPlanFile = "" }()

	cfg := &config.Config{}
	cfg.Audit.Pages = []string{"https://config.example"}

	p, err := resolvePlan(cfg, []string{"https://arg.example"})
	if err != nil {
		t.Fatalf("resolvePlan() error: %v", err)
	}
	if len(p.Pages) != 1 || p.Pages[0] != "https://arg.example" {
		t.Errorf("pages = %v, want the argument URL", p.Pages)
	}
	if len(p.Criteria) == 0 {
		t.Error("argument plans must fall back to the built-in criteria")
	}
}

func TestResolvePlanFileBeatsConfigPages(t *testing.T) {
	runPlanFile = writePlanFile(t, "pages:\n  - https://file.example\n")
	defer func() { runPlanFile = "" }()

	cfg := &config.Config{}
	cfg.Audit.Pages = []string{"https://config.example"}

	p, err := resolvePlan(cfg, nil)
	if err != nil {
		t.Fatalf("resolvePlan() error: %v", err)
	}
	if len(p.Pages) != 1 || p.Pages[0] != "https://file.example" {
		t.Errorf("pages = %v, want the plan file URL", p.Pages)
	}
}

func TestResolvePlanConfigFallback(t *testing.T) {
	cfg := &config.Config{}
	cfg.Audit.Pages = []string{"https://config.example"}

	p, err := resolvePlan(cfg, nil)
	if err != nil {
		t.Fatalf("resolvePlan() error: %v", err)
	}
	if p.Pages[0] != "https://config.example" {
		t.Errorf("pages = %v, want the configured URL", p.Pages)
	}
}

func TestResolvePlanWithoutPages(t *testing.T) {
	if _, err := resolvePlan(&config.Config{}, nil); err == nil {
		t.Error("expected an error when no page source is available")
	}
}
