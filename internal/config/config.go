// Package config loads and validates the YAML run configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse through
// time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration for one scrape run.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Browser    BrowserConfig    `yaml:"browser"`
	Wait       WaitConfig       `yaml:"wait"`
	Retry      RetryConfig      `yaml:"retry"`
	Scroll     ScrollConfig     `yaml:"scroll"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Debug      DebugConfig      `yaml:"debug"`
	Output     OutputConfig     `yaml:"output"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	LogLevel   string           `yaml:"log_level"`
	// KnownTitlesDir holds CSV exports from previous runs used to fill
	// titles the page refuses to render.
	KnownTitlesDir string `yaml:"known_titles_dir"`
}

type SiteConfig struct {
	BaseURL      string   `yaml:"base_url"`
	LibraryURL   string   `yaml:"library_url"`
	PlaylistURLs []string `yaml:"playlist_urls"`
}

type BrowserConfig struct {
	Headless      bool     `yaml:"headless"`
	UserDataDir   string   `yaml:"user_data_dir"`
	Timeout       Duration `yaml:"timeout"`
	UserAgent     string   `yaml:"user_agent"`
	DisableImages bool     `yaml:"disable_images"`
}

type WaitConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	MaxInterval  Duration `yaml:"max_interval"`
	Timeout      Duration `yaml:"timeout"`
}

type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
}

type ScrollConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Pause       Duration `yaml:"pause"`
}

type EnrichmentConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type DebugConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Dir          string `yaml:"dir"`
	MaxHTMLBytes int    `yaml:"max_html_bytes"`
}

type OutputConfig struct {
	// Format selects the sink: csv, postgres, or sqlite.
	Format      string `yaml:"format"`
	Dir         string `yaml:"dir"`
	PostgresDSN string `yaml:"postgres_dsn"`
	SQLitePath  string `yaml:"sqlite_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

var envVarRe = regexp.MustCompile(`\$\{(\w+)\}`)

// LoadFromFile reads, env-expands, parses, defaults, and validates a
// configuration file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Load(data)
}

// Load parses configuration from raw YAML bytes. ${VAR} references are
// expanded from the environment before parsing.
func Load(data []byte) (*Config, error) {
	expanded := envVarRe.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarRe.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})

	cfg := &Config{}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "https://music.amazon.com"
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = Duration(60 * time.Second)
	}
	if c.Wait.PollInterval <= 0 {
		c.Wait.PollInterval = Duration(250 * time.Millisecond)
	}
	if c.Wait.MaxInterval <= 0 {
		c.Wait.MaxInterval = Duration(2 * time.Second)
	}
	if c.Wait.Timeout <= 0 {
		c.Wait.Timeout = Duration(5 * time.Second)
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = Duration(time.Second)
	}
	if c.Scroll.MaxAttempts <= 0 {
		c.Scroll.MaxAttempts = 10
	}
	if c.Scroll.Pause <= 0 {
		c.Scroll.Pause = Duration(800 * time.Millisecond)
	}
	if c.Debug.Dir == "" {
		c.Debug.Dir = "scraped-debug"
	}
	if c.Debug.MaxHTMLBytes <= 0 {
		c.Debug.MaxHTMLBytes = 200_000
	}
	if c.Output.Format == "" {
		c.Output.Format = "csv"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.SQLitePath == "" {
		c.Output.SQLitePath = "soundscrape.db"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Validate rejects configurations that cannot produce a working run.
func (c *Config) Validate() error {
	if len(c.Site.PlaylistURLs) == 0 && c.Site.LibraryURL == "" {
		return fmt.Errorf("config: either site.playlist_urls or site.library_url must be set")
	}
	switch c.Output.Format {
	case "csv", "sqlite":
	case "postgres":
		if c.Output.PostgresDSN == "" {
			return fmt.Errorf("config: output.postgres_dsn is required for postgres output")
		}
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.Wait.Timeout < c.Wait.PollInterval {
		return fmt.Errorf("config: wait.timeout must be at least wait.poll_interval")
	}
	return nil
}
