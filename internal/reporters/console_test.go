package reporters

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/hmarchand/wcagaudit/internal/core"
)

func TestConsoleRendersLifecycle(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	c.PageStarted("https://example.com", 0, 2)
	c.CriterionEvaluated("https://example.com", core.Criterion{ID: "1.1"},
		&core.Evaluation{Status: core.StatusConform})
	c.CriterionUpdated("https://example.com", core.Criterion{ID: "12.1"},
		&core.Evaluation{Status: core.StatusNotConform})
	c.SessionPaused("reviewer stalled")
	c.SessionResumed()
	c.Done(&core.GlobalSummary{Score: 0.75, Conform: 3, NotConform: 1})

	out := buf.String()
	for _, want := range []string{"[1/2]", "https://example.com", "1.1", "12.1", "reviewer stalled", "75.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleQuietModeSkipsCriteria(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.CriterionEvaluated("u", core.Criterion{ID: "1.1"}, &core.Evaluation{Status: core.StatusConform})
	if buf.Len() != 0 {
		t.Errorf("quiet mode should not print criteria, got %q", buf.String())
	}

	c.SessionError(errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Error("errors must print even in quiet mode")
	}
}

func TestConsoleReportsFailedPages(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.PageCompleted("https://down.example", &core.PageResult{URL: "https://down.example", Failed: true})
	if !strings.Contains(buf.String(), "https://down.example") {
		t.Error("failed page not reported")
	}
}
