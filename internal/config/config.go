// Package config loads the application configuration from files, environment
// variables and CLI flags.
package config

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Collector CollectorConfig `mapstructure:"collector"`
	Reviewer  ReviewerConfig  `mapstructure:"reviewer"`
	State     StateConfig     `mapstructure:"state"`
	Report    ReportConfig    `mapstructure:"report"`
	Web       WebConfig       `mapstructure:"web"`
	Control   ControlConfig   `mapstructure:"control"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuditConfig configures the audit session.
type AuditConfig struct {
	Pages      []string `mapstructure:"pages"`
	PlanFile   string   `mapstructure:"plan_file"`
	BatchSize  int      `mapstructure:"batch_size"`
	CacheSize  int      `mapstructure:"cache_size"`
	FailFast   bool     `mapstructure:"fail_fast"`
	Enrichment bool     `mapstructure:"enrichment"`
}

// CollectorConfig configures page snapshotting.
type CollectorConfig struct {
	Timeout     string `mapstructure:"timeout"`
	UserAgent   string `mapstructure:"user_agent"`
	MaxBodySize int64  `mapstructure:"max_body_size"`
}

// ReviewerConfig configures the AI review service client.
type ReviewerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Timeout  string `mapstructure:"timeout"`
}

// StateConfig configures checkpoint persistence.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Path string `mapstructure:"path"`
	Lang string `mapstructure:"lang"`
}

// WebConfig configures the status/control HTTP server.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ControlConfig configures out-of-band session control.
type ControlConfig struct {
	// PauseFile, when set, pauses the session while the file exists.
	PauseFile string `mapstructure:"pause_file"`
}
