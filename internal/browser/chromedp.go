// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeDriver implements Driver using chromedp.
type ChromeDriver struct {
	ctx       context.Context
	cancelFns []context.CancelFunc
	config    *Config
	stats     *Stats
}

// NewChromeDriver launches a Chrome instance. A failure here is fatal to
// the caller; everything after launch degrades per operation.
func NewChromeDriver(config *Config) (*ChromeDriver, error) {
	if config == nil {
		config = DefaultConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		ctx:       ctx,
		cancelFns: []context.CancelFunc{ctxCancel, allocCancel},
		config:    config,
		stats:     &Stats{},
	}

	if err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(config.ViewportWidth), int64(config.ViewportHeight)),
	); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	return d, nil
}

// Navigate loads the URL and waits for the document body to exist. Content
// readiness beyond that is the waiter's concern.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	start := time.Now()
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		d.stats.Errors++
		return fmt.Errorf("navigation failed: %w", err)
	}

	loadTime := time.Since(start)
	d.stats.PagesLoaded++
	if d.stats.PagesLoaded == 1 {
		d.stats.AverageLoadTime = loadTime
	} else {
		d.stats.AverageLoadTime = (d.stats.AverageLoadTime + loadTime) / 2
	}
	return nil
}

// HTML returns the current page HTML.
func (d *ChromeDriver) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		d.stats.Errors++
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Evaluate runs a script and unmarshals its result into out. A nil out is
// passed through unchanged so chromedp discards the result; substituting a
// concrete pointer would make scripts that evaluate to undefined, such as a
// bare scrollBy call, fail in chromedp's unmarshal path.
func (d *ChromeDriver) Evaluate(ctx context.Context, script string, out interface{}) error {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out)); err != nil {
		d.stats.ScriptErrors++
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.NodeVisible)); err != nil {
		d.stats.Errors++
		return fmt.Errorf("click failed for %q: %w", selector, err)
	}
	return nil
}

// Screenshot captures the full page.
func (d *ChromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		d.stats.Errors++
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Stats returns browser statistics.
func (d *ChromeDriver) Stats() *Stats {
	return d.stats
}

// Close shuts the browser down.
func (d *ChromeDriver) Close() error {
	for _, cancel := range d.cancelFns {
		cancel()
	}
	return nil
}

// opContext bounds a single browser round-trip by the configured timeout.
func (d *ChromeDriver) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx := d.ctx
	if ctx != nil {
		if deadline, ok := ctx.Deadline(); ok {
			return context.WithDeadline(runCtx, deadline)
		}
	}
	if d.config.Timeout > 0 {
		return context.WithTimeout(runCtx, d.config.Timeout)
	}
	return context.WithCancel(runCtx)
}
