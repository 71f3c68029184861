package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Audit: AuditConfig{
			Pages:     []string{"https://example.com/"},
			BatchSize: 6,
			CacheSize: 32,
		},
		Collector: CollectorConfig{Timeout: "30s"},
		Reviewer:  ReviewerConfig{Endpoint: "https://review.example", Timeout: "2m"},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative batch size", func(c *Config) { c.Audit.BatchSize = -1 }},
		{"negative cache size", func(c *Config) { c.Audit.CacheSize = -5 }},
		{"relative page url", func(c *Config) { c.Audit.Pages = []string{"/relative"} }},
		{"non-http page url", func(c *Config) { c.Audit.Pages = []string{"ftp://example.com"} }},
		{"bad collector timeout", func(c *Config) { c.Collector.Timeout = "soon" }},
		{"bad reviewer timeout", func(c *Config) { c.Reviewer.Timeout = "later" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateAllowsEmptyOptionalFields(t *testing.T) {
	cfg := validConfig()
	cfg.Reviewer.Endpoint = ""
	cfg.Collector.Timeout = ""
	cfg.Log.Level = ""
	assert.NoError(t, Validate(cfg))
}
