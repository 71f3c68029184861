package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hmarchand/wcagaudit/internal/adapters/collector"
	"github.com/hmarchand/wcagaudit/internal/adapters/enricher"
	"github.com/hmarchand/wcagaudit/internal/adapters/report"
	"github.com/hmarchand/wcagaudit/internal/adapters/reviewer"
	"github.com/hmarchand/wcagaudit/internal/adapters/state"
	"github.com/hmarchand/wcagaudit/internal/audit"
	"github.com/hmarchand/wcagaudit/internal/config"
	"github.com/hmarchand/wcagaudit/internal/rules"
)

// buildDeps assembles the session ports from configuration. The returned
// cleanup releases the state store and must run after the session.
func buildDeps(cfg *config.Config) (audit.Deps, func(), error) {
	rev, err := buildReviewer(cfg)
	if err != nil {
		return audit.Deps{}, nil, err
	}
	if rev == nil {
		return audit.Deps{}, nil, fmt.Errorf("reviewer.endpoint is required to run an audit")
	}

	store, err := state.NewStore(cfg.State.Path)
	if err != nil {
		return audit.Deps{}, nil, fmt.Errorf("opening state store: %w", err)
	}

	deps := audit.Deps{
		Collector: buildCollector(cfg),
		Enricher:  enricher.New(),
		Rules:     rules.New(),
		Reviewer:  rev,
		Writer:    report.NewFileWriter(cfg.Report.Path),
		Store:     store,
	}
	return deps, func() { _ = store.Close() }, nil
}

func buildCollector(cfg *config.Config) *collector.HTTPCollector {
	opts := []collector.Option{}
	if cfg.Collector.UserAgent != "" {
		opts = append(opts, collector.WithUserAgent(cfg.Collector.UserAgent))
	}
	if cfg.Collector.MaxBodySize > 0 {
		opts = append(opts, collector.WithMaxBodySize(cfg.Collector.MaxBodySize))
	}
	if d := parseDuration(cfg.Collector.Timeout); d > 0 {
		opts = append(opts, collector.WithClient(&http.Client{Timeout: d}))
	}
	return collector.New(opts...)
}

// buildReviewer returns nil when no endpoint is configured; callers decide
// whether that is acceptable.
func buildReviewer(cfg *config.Config) (*reviewer.Client, error) {
	if cfg.Reviewer.Endpoint == "" {
		return nil, nil
	}
	opts := []reviewer.Option{}
	if cfg.Reviewer.Model != "" {
		opts = append(opts, reviewer.WithModel(cfg.Reviewer.Model))
	}
	if d := parseDuration(cfg.Reviewer.Timeout); d > 0 {
		opts = append(opts, reviewer.WithTimeout(d))
	}
	return reviewer.New(cfg.Reviewer.Endpoint, cfg.Reviewer.APIKey, opts...), nil
}

// parseDuration is forgiving: validation already rejected malformed values,
// so an empty or unset duration comes back as zero.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
