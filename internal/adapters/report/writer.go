// Package report renders the audit result matrix to CSV and JSON files.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// FileWriter writes the matrix as <base>.csv and the fold as <base>.json.
// Each call rewrites both files in full, so incremental writes after every
// page leave a consistent pair behind.
type FileWriter struct {
	basePath string
}

// NewFileWriter creates a writer rooted at basePath (extension is ignored).
func NewFileWriter(basePath string) *FileWriter {
	ext := filepath.Ext(basePath)
	if ext != "" {
		basePath = strings.TrimSuffix(basePath, ext)
	}
	return &FileWriter{basePath: basePath}
}

// CSVPath returns the matrix file path.
func (w *FileWriter) CSVPath() string { return w.basePath + ".csv" }

// JSONPath returns the summary file path.
func (w *FileWriter) JSONPath() string { return w.basePath + ".json" }

// Write renders the current matrix. Safe to call repeatedly; the previous
// files are atomically replaced.
func (w *FileWriter) Write(_ context.Context, pages []*core.PageResult, criteria []core.Criterion, summary *core.GlobalSummary, final bool) error {
	if dir := filepath.Dir(w.basePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	csvData, err := renderCSV(pages, criteria, summary)
	if err != nil {
		return fmt.Errorf("rendering matrix: %w", err)
	}
	if err := renameio.WriteFile(w.CSVPath(), csvData, 0o644); err != nil {
		return fmt.Errorf("writing matrix: %w", err)
	}

	jsonData, err := renderJSON(pages, summary, final)
	if err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	if err := renameio.WriteFile(w.JSONPath(), jsonData, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// renderCSV lays out criteria as rows and pages as columns, with the folded
// global verdict in the last column.
func renderCSV(pages []*core.PageResult, criteria []core.Criterion, summary *core.GlobalSummary) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{"criterion", "theme", "title"}
	for _, p := range pages {
		header = append(header, p.URL)
	}
	header = append(header, "global")
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	for i, c := range criteria {
		row := []string{c.ID, c.Theme, c.Title}
		for _, p := range pages {
			row = append(row, cellFor(p, i))
		}
		global := ""
		if summary != nil && i < len(summary.Statuses) {
			global = string(summary.Statuses[i].Status)
		}
		row = append(row, global)
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func cellFor(p *core.PageResult, idx int) string {
	if idx >= len(p.Results) || p.Results[idx] == nil {
		return string(core.StatusError)
	}
	return string(p.Results[idx].Status)
}

type jsonReport struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Final       bool                `json:"final"`
	Pages       []jsonPage          `json:"pages"`
	Summary     *core.GlobalSummary `json:"summary"`
}

type jsonPage struct {
	URL     string             `json:"url"`
	Title   string             `json:"title,omitempty"`
	Lang    string             `json:"lang,omitempty"`
	Failed  bool               `json:"failed,omitempty"`
	Results []*core.Evaluation `json:"results"`
}

func renderJSON(pages []*core.PageResult, summary *core.GlobalSummary, final bool) ([]byte, error) {
	report := jsonReport{
		GeneratedAt: time.Now(),
		Final:       final,
		Pages:       make([]jsonPage, len(pages)),
		Summary:     summary,
	}
	for i, p := range pages {
		report.Pages[i] = jsonPage{
			URL:     p.URL,
			Title:   p.Title,
			Lang:    p.Lang,
			Failed:  p.Failed,
			Results: p.Results,
		}
	}
	return json.MarshalIndent(report, "", "  ")
}

var _ core.ReportWriter = (*FileWriter)(nil)
