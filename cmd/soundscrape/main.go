// cmd/soundscrape/main.go - command line entry point
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/soundscrape/soundscrape/internal/browser"
	"github.com/soundscrape/soundscrape/internal/config"
	"github.com/soundscrape/soundscrape/internal/enrich"
	"github.com/soundscrape/soundscrape/internal/monitoring"
	"github.com/soundscrape/soundscrape/internal/output"
	"github.com/soundscrape/soundscrape/internal/scraper"
	"github.com/soundscrape/soundscrape/internal/session"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: soundscrape run <config.yaml>")
			os.Exit(1)
		}
		if err := runScrape(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: soundscrape validate <config.yaml>")
			os.Exit(1)
		}
		if _, err := config.LoadFromFile(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Configuration file '%s' is valid\n", os.Args[2])
	case "version", "--version":
		fmt.Printf("soundscrape %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`soundscrape - playlist metadata extraction

Usage:
  soundscrape run <config.yaml>       scrape playlists per configuration
  soundscrape validate <config.yaml>  check a configuration file
  soundscrape version                 print version information`)
}

func runScrape(configPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := scraper.DefaultRegistry()

	registerer := prometheus.NewRegistry()
	var observer scraper.Observer = scraper.NopObserver{}
	var metrics *monitoring.Metrics
	var metricsServer *monitoring.Server
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics(registerer)
		observer = metrics
		metricsServer = monitoring.NewServer(cfg.Metrics.Addr, registerer, logger)
		metricsServer.Start()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutCtx)
		}()
	}

	driver, err := browser.NewChromeDriver(&browser.Config{
		Headless:       cfg.Browser.Headless,
		UserDataDir:    cfg.Browser.UserDataDir,
		Timeout:        cfg.Browser.Timeout.Std(),
		UserAgent:      cfg.Browser.UserAgent,
		DisableImages:  cfg.Browser.DisableImages,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	})
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer driver.Close()

	sink, err := buildSink(cfg, registry, logger)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := sink.CreateSchema(ctx); err != nil {
		return err
	}

	waiter := scraper.NewWaiter(cfg.Wait.PollInterval.Std(), cfg.Wait.MaxInterval.Std(), cfg.Wait.Timeout.Std(), logger)
	retryer := scraper.NewRetryer(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay.Std(), logger)
	if metrics != nil {
		retryer.OnRetry = metrics.RetryAttempted
	}
	known := scraper.NewKnownTitles(cfg.KnownTitlesDir, logger)

	pipeline, err := scraper.NewPipeline(driver, registry, waiter, retryer, known, scraper.PipelineConfig{
		BaseURL:           cfg.Site.BaseURL,
		ScrollMaxAttempts: cfg.Scroll.MaxAttempts,
		ScrollPause:       cfg.Scroll.Pause.Std(),
	}, logger)
	if err != nil {
		return err
	}
	pipeline.WithObserver(observer)
	if cfg.Debug.Enabled {
		pipeline.WithDebugSink(scraper.NewFileDebugSink(cfg.Debug.Dir, cfg.Debug.MaxHTMLBytes, logger))
	}
	if cfg.Enrichment.Enabled {
		mb := enrich.NewMusicBrainz(cfg.Enrichment.Endpoint, logger)
		merger := enrich.NewMerger(mb, logger)
		if metrics != nil {
			merger.OnOutcome = metrics.EnrichmentOutcome
		}
		pipeline.WithEnricher(merger)
	}

	urls := cfg.Site.PlaylistURLs
	if len(urls) == 0 {
		if err := driver.Navigate(ctx, cfg.Site.LibraryURL); err != nil {
			return fmt.Errorf("opening library: %w", err)
		}
		sess := session.New(cfg.Browser.UserDataDir, logger)
		if html, err := driver.HTML(ctx); err == nil {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			if err == nil && !sess.SignedIn(doc) {
				return fmt.Errorf("browser profile is not signed in; run once with browser.headless=false and sign in manually")
			}
		}
		if err := sess.MarkAuthenticated(); err != nil {
			logger.Warnf("could not mark profile authenticated: %v", err)
		}
		pipeline.GoToLibraryPlaylists(ctx)
		links, err := pipeline.ScrapePlaylistLinks(ctx)
		if err != nil {
			return err
		}
		for _, link := range links {
			urls = append(urls, link.URL)
		}
	}

	var failures int
	for _, url := range urls {
		if ctx.Err() != nil {
			logger.Warn("interrupted, stopping")
			break
		}
		playlist, err := pipeline.ScrapePlaylist(ctx, url)
		if err != nil {
			logger.WithField("playlist_url", url).Errorf("scrape failed: %v", err)
			failures++
			continue
		}
		id, err := sink.UpsertPlaylist(ctx, playlist.Name, playlist.URL)
		if err != nil {
			logger.Errorf("storing playlist: %v", err)
			failures++
			continue
		}
		if err := sink.InsertTracks(ctx, id, playlist.Tracks); err != nil {
			logger.Errorf("storing tracks: %v", err)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d playlists failed", failures, len(urls))
	}
	logger.WithField("playlists", len(urls)).Info("scrape run complete")
	return nil
}

func buildSink(cfg *config.Config, registry *scraper.Registry, logger *logrus.Entry) (output.Sink, error) {
	switch cfg.Output.Format {
	case "csv":
		return output.NewCSVSink(cfg.Output.Dir, registry, logger), nil
	case "postgres":
		return output.NewPostgresSink(cfg.Output.PostgresDSN, logger)
	case "sqlite":
		return output.NewSQLiteSink(cfg.Output.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}
}

func newLogger(level string) *logrus.Entry {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	return logrus.NewEntry(l)
}
