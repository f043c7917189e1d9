package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
site:
  base_url: https://music.example.com
  playlist_urls:
    - https://music.example.com/playlists/p1
browser:
  headless: true
  timeout: 30s
retry:
  max_attempts: 5
  base_delay: 2s
output:
  format: csv
  dir: out
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load([]byte(validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Site.BaseURL != "https://music.example.com" {
		t.Errorf("base url = %q", cfg.Site.BaseURL)
	}
	if cfg.Browser.Timeout.Std() != 30*time.Second {
		t.Errorf("browser timeout = %v", cfg.Browser.Timeout)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelay.Std() != 2*time.Second {
		t.Errorf("retry config = %+v", cfg.Retry)
	}
	// Unset sections pick up defaults.
	if cfg.Wait.PollInterval.Std() != 250*time.Millisecond {
		t.Errorf("default poll interval = %v", cfg.Wait.PollInterval)
	}
	if cfg.Debug.MaxHTMLBytes != 200_000 {
		t.Errorf("default debug cap = %d", cfg.Debug.MaxHTMLBytes)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q", cfg.LogLevel)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("SCRAPE_DSN", "postgres://scraper:secret@db/music")
	cfg, err := Load([]byte(`
site:
  playlist_urls: [https://music.example.com/playlists/p1]
output:
  format: postgres
  postgres_dsn: ${SCRAPE_DSN}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.PostgresDSN != "postgres://scraper:secret@db/music" {
		t.Errorf("dsn = %q, env reference not expanded", cfg.Output.PostgresDSN)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no playlists and no library",
			yaml:    `output: {format: csv}`,
			wantErr: "playlist_urls",
		},
		{
			name: "postgres without dsn",
			yaml: `
site: {library_url: https://music.example.com/my/playlists}
output: {format: postgres}
`,
			wantErr: "postgres_dsn",
		},
		{
			name: "unknown output format",
			yaml: `
site: {library_url: https://music.example.com/my/playlists}
output: {format: excel}
`,
			wantErr: "unknown output format",
		},
		{
			name: "unknown log level",
			yaml: `
site: {library_url: https://music.example.com/my/playlists}
log_level: loud
`,
			wantErr: "log level",
		},
		{
			name: "timeout below poll interval",
			yaml: `
site: {library_url: https://music.example.com/my/playlists}
wait: {poll_interval: 5s, timeout: 1s}
`,
			wantErr: "wait.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Load accepted an invalid configuration")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile accepted a missing file")
	}
}
