// internal/browser/types.go
package browser

import (
	"context"
	"time"
)

// Config defines browser automation configuration.
type Config struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultConfig returns default browser configuration. The user data dir is
// left empty; setting one persists the signed-in session across runs.
func DefaultConfig() *Config {
	return &Config{
		Headless:       true,
		Timeout:        60 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		DisableImages:  false,
	}
}

// Driver is the browser automation surface the extraction pipeline
// consumes. Every method may fail on timeout or detachment; call sites
// never assume success.
type Driver interface {
	// Navigate loads a URL and waits for the document body.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current page HTML.
	HTML(ctx context.Context) (string, error)

	// Evaluate runs JavaScript and unmarshals the result into out.
	Evaluate(ctx context.Context, script string, out interface{}) error

	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error

	// Screenshot captures the current page.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close shuts the browser down.
	Close() error
}

// Stats counts browser-level events for diagnostics.
type Stats struct {
	PagesLoaded     int           `json:"pages_loaded"`
	AverageLoadTime time.Duration `json:"average_load_time"`
	Errors          int           `json:"errors"`
	ScriptErrors    int           `json:"script_errors"`
}
