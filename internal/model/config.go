package model

import "time"

// Config holds all citecheck configuration with sensible defaults.
// Precedence: CLI flags > CITECHECK_* env vars > config file > defaults.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Verify  VerifyConfig  `yaml:"verify" mapstructure:"verify"`
	Jobs    JobsConfig    `yaml:"jobs" mapstructure:"jobs"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls outbound HTTP behavior for all verification fetches
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// ExtractConfig tunes citation extraction and name/date resolution
type ExtractConfig struct {
	// NameWindow is how far backward (in characters) the resolver
	// searches for a case name before a citation span.
	NameWindow int `yaml:"name_window" mapstructure:"name_window"`
	// YearWindow bounds the search for a parenthesized year around the
	// citation span.
	YearWindow int `yaml:"year_window" mapstructure:"year_window"`
}

// ClusterConfig tunes the parallel-citation clustering gates.
// Every gate is conjunctive: loosening one never bypasses another.
type ClusterConfig struct {
	// ProximityChars is the maximum character distance between two
	// spans for the proximity gate.
	ProximityChars int `yaml:"proximity_chars" mapstructure:"proximity_chars"`
	// CommaRunGap is the maximum non-citation text (in characters)
	// allowed between comma-separated citations in one run.
	CommaRunGap int `yaml:"comma_run_gap" mapstructure:"comma_run_gap"`
	// NameSimilarity is the minimum token-set similarity for two
	// non-empty case names to be considered the same case.
	NameSimilarity float64 `yaml:"name_similarity" mapstructure:"name_similarity"`
	// YearTolerance is the maximum difference between extracted years.
	YearTolerance int `yaml:"year_tolerance" mapstructure:"year_tolerance"`
}

// VerifyConfig controls the external verification chain
type VerifyConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// LookupURL is the citation-lookup API endpoint (Tier 1).
	LookupURL string `yaml:"lookup_url" mapstructure:"lookup_url"`
	// LookupToken authenticates against the lookup API, if required.
	LookupToken string `yaml:"lookup_token" mapstructure:"lookup_token"`
	// SearchURL is the web-search endpoint used by Tier 3.
	SearchURL string `yaml:"search_url" mapstructure:"search_url"`
	// SearchDomains is the allow-list of legal-reference domains Tier 3
	// may accept results from.
	SearchDomains []string `yaml:"search_domains" mapstructure:"search_domains"`

	// AcceptThreshold is the minimum weighted confidence for a source
	// result to be accepted.
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	// MaxRetries bounds attempts per source call on transient failures.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// Concurrency bounds simultaneous outbound verification calls
	// within one job.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// RatePerSecond and RateBurst shape the client-side per-source
	// token bucket.
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// JobsConfig controls the background job coordinator
type JobsConfig struct {
	// AsyncThresholdBytes routes documents larger than this to the
	// background queue; smaller documents run inline.
	AsyncThresholdBytes int `yaml:"async_threshold_bytes" mapstructure:"async_threshold_bytes"`
	// Workers is the number of background workers consuming the queue.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// QueueSize bounds the pending-job queue.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
	// MaxProcessing is how long a job may run before the watchdog
	// fails it.
	MaxProcessing time.Duration `yaml:"max_processing" mapstructure:"max_processing"`
	// ReapInterval is how often the watchdog sweeps for stuck jobs.
	ReapInterval time.Duration `yaml:"reap_interval" mapstructure:"reap_interval"`
}

// StoreConfig selects and tunes the job store
type StoreConfig struct {
	// Backend is "memory" or "badger".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Path is the badger database directory (ignored for memory).
	Path string `yaml:"path" mapstructure:"path"`
	// TTL expires finished job records.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// CacheConfig controls the verification response cache
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"` // Disk layer location; empty = memory only
	// TTL bounds how long source responses are reused.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig controls the HTTP service
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// ReadTimeout and WriteTimeout guard slow clients.
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// MaxBodyBytes caps submitted document size.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// LLMConfig holds the optional summarizer settings
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the built-in defaults. Callers overwrite
// fields from flags, env, and config file before use.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "citecheck/0.3 (+https://github.com/pbechard/citecheck)",
			MaxBodyBytes: 2_000_000,
			MaxRedirects: 5,
		},
		Extract: ExtractConfig{
			NameWindow: 200,
			YearWindow: 80,
		},
		Cluster: ClusterConfig{
			ProximityChars: 250,
			CommaRunGap:    25,
			NameSimilarity: 0.82,
			YearTolerance:  1,
		},
		Verify: VerifyConfig{
			Enabled:   true,
			LookupURL: "https://www.courtlistener.com/api/rest/v4/citation-lookup/",
			SearchDomains: []string{
				"courtlistener.com",
				"law.justia.com",
				"caselaw.findlaw.com",
				"casetext.com",
				"scholar.google.com",
				"law.cornell.edu",
			},
			AcceptThreshold: 0.60,
			MaxRetries:      3,
			Concurrency:     4,
			RatePerSecond:   1,
			RateBurst:       2,
		},
		Jobs: JobsConfig{
			AsyncThresholdBytes: 50_000,
			Workers:             2,
			QueueSize:           64,
			MaxProcessing:       10 * time.Minute,
			ReapInterval:        30 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     6 * time.Hour,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 10_000_000,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
