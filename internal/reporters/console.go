// Package reporters contains observer implementations that render session
// progress for humans.
package reporters

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hmarchand/wcagaudit/internal/core"
)

var (
	pageStyle    = lipgloss.NewStyle().Bold(true)
	stageStyle   = lipgloss.NewStyle().Faint(true)
	conformStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	reviewStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	naStyle      = lipgloss.NewStyle().Faint(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
)

// Console renders session progress line by line. Safe for concurrent
// callbacks; output is serialized through a mutex.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsole creates a console reporter writing to stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter creates a console reporter with a custom writer.
func NewConsoleWriter(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func statusLabel(status core.Status) string {
	switch status {
	case core.StatusConform:
		return conformStyle.Render("conform")
	case core.StatusNotConform:
		return failStyle.Render("not conform")
	case core.StatusReview:
		return reviewStyle.Render("review")
	case core.StatusNonApplicable:
		return naStyle.Render("n/a")
	default:
		return failStyle.Render("error")
	}
}

func (c *Console) PageStarted(url string, index, total int) {
	c.printf("%s %s", pageStyle.Render(fmt.Sprintf("[%d/%d]", index+1, total)), url)
}

func (c *Console) PageCompleted(url string, result *core.PageResult) {
	if result.Failed {
		c.printf("  %s %s", failStyle.Render("page failed:"), url)
	}
}

func (c *Console) StageChanged(_ string, stage core.Stage) {
	if c.verbose {
		c.printf("  %s", stageStyle.Render(string(stage)))
	}
}

func (c *Console) CriterionEvaluated(_ string, criterion core.Criterion, ev *core.Evaluation) {
	if !c.verbose {
		return
	}
	c.printf("  %-6s %s", criterion.ID, statusLabel(ev.Status))
}

func (c *Console) CriterionUpdated(_ string, criterion core.Criterion, ev *core.Evaluation) {
	if !c.verbose {
		return
	}
	c.printf("  %-6s %s %s", criterion.ID, statusLabel(ev.Status), stageStyle.Render("(updated)"))
}

func (c *Console) SessionPaused(reason string) {
	c.printf("%s %s", pausedStyle.Render("session paused:"), reason)
}

func (c *Console) SessionResumed() {
	c.printf("%s", pausedStyle.Render("session resumed"))
}

func (c *Console) SessionError(err error) {
	c.printf("%s %v", failStyle.Render("session error:"), err)
}

func (c *Console) Done(summary *core.GlobalSummary) {
	c.printf("")
	c.printf("%s  conform: %d  not conform: %d  n/a: %d  review: %d  errors: %d",
		scoreStyle.Render(fmt.Sprintf("score %.1f%%", summary.Score*100)),
		summary.Conform, summary.NotConform, summary.NonApplicable,
		summary.Review, summary.Errors)
}

var _ core.Observer = (*Console)(nil)
