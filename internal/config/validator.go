package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// Validate checks the configuration for values that would break the session
// at runtime. Returns the first problem found.
func Validate(cfg *Config) error {
	if cfg.Audit.BatchSize < 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "audit.batch_size must not be negative")
	}
	if cfg.Audit.CacheSize < 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "audit.cache_size must not be negative")
	}

	for _, page := range cfg.Audit.Pages {
		if err := validatePageURL(page); err != nil {
			return err
		}
	}

	if cfg.Reviewer.Endpoint != "" {
		if _, err := url.ParseRequestURI(cfg.Reviewer.Endpoint); err != nil {
			return core.ErrValidation(core.CodeInvalidConfig,
				"reviewer.endpoint is not a valid URL").WithCause(err)
		}
	}

	for key, value := range map[string]string{
		"collector.timeout": cfg.Collector.Timeout,
		"reviewer.timeout":  cfg.Reviewer.Timeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return core.ErrValidation(core.CodeInvalidConfig,
				key+" is not a valid duration").WithCause(err)
		}
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return core.ErrValidation(core.CodeInvalidConfig,
			"log.level must be one of debug, info, warn, error")
	}

	return nil
}

func validatePageURL(page string) error {
	u, err := url.Parse(page)
	if err != nil {
		return core.ErrValidation(core.CodeInvalidConfig,
			"audit.pages contains an invalid URL: "+page).WithCause(err)
	}
	if !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
		return core.ErrValidation(core.CodeInvalidConfig,
			"audit.pages entries must be absolute http(s) URLs: "+page)
	}
	return nil
}
