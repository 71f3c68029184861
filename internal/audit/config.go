package audit

// Config is the immutable session configuration, built once at startup and
// passed down to every component. Components never read ambient state.
type Config struct {
	BatchSize  int
	CacheSize  int
	FailFast   bool
	Enrichment bool
	Resume     bool
	ReportLang string
	OutPath    string
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:  6,
		CacheSize:  32,
		Enrichment: true,
		ReportLang: "en",
	}
}

// normalized fills zero values with defaults.
func (c Config) normalized() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 6
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 32
	}
	if c.ReportLang == "" {
		c.ReportLang = "en"
	}
	return c
}
