// internal/scraper/pipeline.go
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/soundscrape/soundscrape/internal/browser"
)

// TrackEnricher augments an assembled track with external metadata. It
// must return a new track and never fail the pipeline.
type TrackEnricher interface {
	Enrich(ctx context.Context, track Track) Track
}

// Observer receives pipeline events for metrics. All methods must be
// cheap and non-blocking.
type Observer interface {
	PageScraped()
	TrackExtracted()
	TrackSkipped(reason string)
	Discrepancy(field string)
	ObservePageDuration(d time.Duration)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) PageScraped()                      {}
func (NopObserver) TrackExtracted()                   {}
func (NopObserver) TrackSkipped(string)               {}
func (NopObserver) Discrepancy(string)                {}
func (NopObserver) ObservePageDuration(time.Duration) {}

// PipelineConfig carries the tunables of the extraction pipeline.
type PipelineConfig struct {
	BaseURL           string
	ScrollMaxAttempts int
	ScrollPause       time.Duration
}

// Pipeline drives one playlist page from navigation to a filtered slice of
// track records. It owns no shared mutable state: the registry is
// read-only, the known-title cache loads once, and pages are processed
// strictly one at a time.
type Pipeline struct {
	driver   browser.Driver
	registry *Registry
	checker  *CrossChecker
	waiter   *Waiter
	retryer  *Retryer
	known    *KnownTitles
	enricher TrackEnricher
	debug    DebugSink
	observer Observer
	logger   *logrus.Entry
	config   PipelineConfig
}

// NewPipeline wires the pipeline from its collaborators. driver and
// registry are required; enricher and debug sink are optional.
func NewPipeline(driver browser.Driver, registry *Registry, waiter *Waiter, retryer *Retryer, known *KnownTitles, cfg PipelineConfig, logger *logrus.Entry) (*Pipeline, error) {
	if driver == nil {
		return nil, ErrDriverRequired
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if waiter == nil {
		waiter = NewWaiter(0, 0, 0, logger)
	}
	if retryer == nil {
		retryer = NewRetryer(0, 0, logger)
	}
	if known == nil {
		known = NewKnownTitles("", logger)
	}
	if cfg.ScrollMaxAttempts <= 0 {
		cfg.ScrollMaxAttempts = 10
	}
	if cfg.ScrollPause <= 0 {
		cfg.ScrollPause = 800 * time.Millisecond
	}
	p := &Pipeline{
		driver:   driver,
		registry: registry,
		checker:  NewCrossChecker(logger),
		waiter:   waiter,
		retryer:  retryer,
		known:    known,
		debug:    NopDebugSink{},
		observer: NopObserver{},
		logger:   logger,
		config:   cfg,
	}
	p.checker.OnDiscrepancy(func(field string) { p.observer.Discrepancy(field) })
	return p, nil
}

// WithEnricher attaches the enrichment merge step.
func (p *Pipeline) WithEnricher(e TrackEnricher) *Pipeline {
	p.enricher = e
	return p
}

// WithDebugSink attaches a debug capture sink.
func (p *Pipeline) WithDebugSink(s DebugSink) *Pipeline {
	if s != nil {
		p.debug = s
	}
	return p
}

// WithObserver attaches a metrics observer.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	if o != nil {
		p.observer = o
	}
	return p
}

var songCountRe = regexp.MustCompile(`(\d+)\s+songs?`)

// ScrapePlaylist navigates to a playlist page, waits for content, scrolls
// the lazy list to the end, and extracts one track per matched row.
// Partial data is preferred over no data: per-row faults are skipped,
// low counts are warnings, and an unready page yields an empty playlist.
func (p *Pipeline) ScrapePlaylist(ctx context.Context, playlistURL string) (*Playlist, error) {
	start := time.Now()
	log := p.logger.WithField("playlist_url", playlistURL)
	log.Info("scraping playlist")

	p.retryer.Do("navigate to playlist", func() error {
		return p.driver.Navigate(ctx, playlistURL)
	})

	ready := p.awaitContent(ctx)
	p.scrollToLoad(ctx)

	html, err := p.pageHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read playlist page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("cannot parse playlist page: %w", err)
	}

	playlist := &Playlist{
		Name: strings.TrimSpace(doc.Find("title").First().Text()),
		URL:  playlistURL,
	}

	rows := findFirstMatching(doc.Selection, SongRowSelectors)
	if rows == nil {
		log.Warn("no song rows matched any selector")
		if !ready {
			log.Warn("page never reported ready; returning empty playlist")
		}
		p.captureFailure(ctx, "scrape-fail", html)
		return playlist, nil
	}

	expected := expectedSongCount(doc)
	count := rows.Length()
	log.WithField("rows", count).Info("found song elements, beginning extraction")

	rows.Each(func(i int, row *goquery.Selection) {
		track, ok := p.extractTrack(row, i)
		if !ok {
			return
		}
		if p.enricher != nil {
			track = p.enricher.Enrich(ctx, track)
		}
		playlist.Tracks = append(playlist.Tracks, track)
		p.observer.TrackExtracted()
	})

	if len(playlist.Tracks) == 0 {
		log.Warn("no tracks were extracted; check page structure or network")
		p.captureFailure(ctx, "scrape-fail", html)
	}
	if expected > 0 && float64(len(playlist.Tracks)) < float64(expected)*0.9 {
		log.WithFields(logrus.Fields{
			"extracted": len(playlist.Tracks),
			"expected":  expected,
		}).Warn("extracted track count is lower than the page-reported total")
	} else {
		log.WithField("tracks", len(playlist.Tracks)).Info("playlist scraped")
	}

	p.observer.PageScraped()
	p.observer.ObservePageDuration(time.Since(start))
	return playlist, nil
}

// extractTrack cross-checks every registry field against one row and
// assembles a track. Reports ok=false for rows that must be skipped; a
// skipped row never aborts the batch.
func (p *Pipeline) extractTrack(row *goquery.Selection, index int) (Track, bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("element_index", index).Errorf("row extraction panicked: %v", r)
		}
	}()

	track := Track{
		PlaylistPosition: index + 1,
		SourceDetails:    make(map[string]map[string]string),
		FieldStatus:      make(map[string]bool),
	}

	var confSum float64
	var confFields int
	for _, field := range p.registry.Fields() {
		if len(field.Queries) == 0 {
			continue
		}
		res := p.checker.CrossCheck(row, field)
		if len(res.Provenance) > 0 {
			track.SourceDetails[field.Name] = res.Provenance
			confSum += res.Confidence
			confFields++
		}
		p.applyField(&track, field.Name, res.Value)
	}
	if confFields > 0 {
		track.Confidence = confSum / float64(confFields)
	}

	p.applyFallbacks(&track, row)
	track.URL = AbsoluteURL(p.config.BaseURL, track.URL)
	track.ImageURL = AbsoluteURL(p.config.BaseURL, track.ImageURL)
	track.TrackID = ExtractTrackID(row, track.URL)
	p.applyKnownTitle(&track, row)

	if track.Title == "" {
		p.logger.WithField("element_index", index+1).Warn("skipping row with empty title")
		p.observer.TrackSkipped("empty_title")
		return Track{}, false
	}
	return track, true
}

// applyField routes one cross-checked value into the track struct.
func (p *Pipeline) applyField(track *Track, name, value string) {
	switch name {
	case "title":
		track.Title = value
	case "artist":
		track.Artist = value
	case "album":
		track.Album = value
	case "url":
		track.URL = value
	case "duration":
		track.Duration = value
	case "trackNumber":
		digits := strings.Map(keepDigit, value)
		if digits != "" {
			if n, err := strconv.Atoi(digits); err == nil {
				track.TrackNumber = n
			}
		}
	case "explicit":
		if value != "" {
			explicit := strings.Contains(strings.ToLower(value), "explicit")
			track.Explicit = &explicit
		}
	case "imageUrl":
		track.ImageURL = value
	}
}

// applyFallbacks fills holes the selectors left: component attributes,
// aria-label splitting, artist hrefs, and component-level image/href
// attributes.
func (p *Pipeline) applyFallbacks(track *Track, row *goquery.Selection) {
	if track.Title == "" {
		track.Title = NormalizeTitle(attrOf(row, "primary-text"))
	}
	if track.Artist == "" {
		track.Artist = NormalizeArtist(attrOf(row, "secondary-text-1"))
	}
	if track.Album == "" {
		track.Album = attrOf(row, "secondary-text-2")
	}
	if track.URL == "" {
		track.URL = attrOf(row, "primary-href")
	}
	if track.ImageURL == "" {
		track.ImageURL = attrOf(row, "image-src")
	}

	if track.Title == "" {
		if aria := firstAriaLabel(row); aria != "" {
			parts := strings.Split(aria, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			if len(parts) > 0 {
				track.Title = NormalizeTitle(parts[0])
			}
			if len(parts) > 1 && track.Artist == "" {
				track.Artist = NormalizeArtist(parts[1])
			}
			if len(parts) > 2 && track.Album == "" {
				track.Album = parts[2]
			}
		}
	}

	if track.Artist == "" {
		row.Find("a[href*='/artists/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			track.Artist = ArtistNameFromHref(href)
			return track.Artist == ""
		})
	}
}

// applyKnownTitle consults the CSV-backed cache when the page yielded no
// usable title: first by track identifier, then by scanning the row text
// for a known title.
func (p *Pipeline) applyKnownTitle(track *Track, row *goquery.Selection) {
	if track.Title == "" && track.TrackID != "" {
		if title, ok := p.known.TitleForID(track.TrackID); ok {
			track.Title = title
			if track.Artist == "" {
				if artist, ok := p.known.ArtistForID(track.TrackID); ok {
					track.Artist = artist
				}
			}
		}
	}
	if track.Title == "" {
		if title := p.known.FindTitleIn(row.Text()); title != "" {
			track.Title = title
			if track.Artist == "" {
				track.Artist = p.known.ArtistForTitle(title)
			}
		}
	}
}

// ScrapePlaylistLinks collects playlist tiles from the current (library)
// page, de-duplicated by URL, excluding albums and stations.
func (p *Pipeline) ScrapePlaylistLinks(ctx context.Context) ([]PlaylistLink, error) {
	p.logger.Info("scraping playlist links")
	html, err := p.pageHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read library page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("cannot parse library page: %w", err)
	}

	links := p.playlistLinksFrom(doc)
	if len(links) == 0 {
		p.logger.Error("no playlist tiles found after heuristics")
		p.captureFailure(ctx, "playlist-links", html)
	} else {
		p.logger.WithField("playlists", len(links)).Info("found playlists")
	}
	return links, nil
}

// playlistLinksFrom applies tile selectors and anchor heuristics to a
// parsed library page.
func (p *Pipeline) playlistLinksFrom(doc *goquery.Document) []PlaylistLink {
	var links []PlaylistLink
	seen := make(map[string]struct{})

	collect := func(_ int, tile *goquery.Selection) {
		url := attrOf(tile, "primary-href")
		if url == "" {
			if href, ok := tile.Attr("href"); ok {
				url = strings.TrimSpace(href)
			}
		}
		if url == "" {
			if a := tile.Find("a[href]").First(); a.Length() > 0 {
				url, _ = a.Attr("href")
			}
		}
		if url == "" {
			return
		}
		url = AbsoluteURL(p.config.BaseURL, url)
		lower := strings.ToLower(url)
		if !strings.Contains(lower, "/playlist") {
			return
		}
		if strings.Contains(lower, "/albums") || strings.Contains(lower, "/stations") {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		name := attrOf(tile, "primary-text")
		if name == "" {
			name = strings.TrimSpace(tile.Text())
		}
		if name == "" {
			name = "(unknown)"
		}
		seen[url] = struct{}{}
		links = append(links, PlaylistLink{Name: name, URL: url})
	}

	doc.Find(JoinSelectors(PlaylistTileSelectors)).Each(collect)
	doc.Find("a[href*='/playlist']").Each(collect)
	return links
}

// GoToLibraryPlaylists drives the site navigation to the playlists view,
// trying text matches first, then selector candidates, then a fuzzy scan
// of clickable elements.
func (p *Pipeline) GoToLibraryPlaylists(ctx context.Context) {
	p.logger.Info("navigating to library playlists")
	if p.clickByText(ctx, "Library") {
		time.Sleep(time.Second)
	}
	if p.clickByText(ctx, "Playlists") {
		p.logger.Info("navigated to playlists via text match")
		return
	}
	for _, sel := range []string{"[aria-label='Playlists']", "a[href*='/playlists']", "[data-testid*='playlists']"} {
		if err := p.driver.Click(ctx, sel); err == nil {
			p.logger.WithField("selector", sel).Info("navigated to playlists via selector")
			return
		}
	}
	if p.clickByText(ctx, "playlist") {
		return
	}
	p.logger.Error("failed to find playlists tab by all selectors")
	if html, err := p.pageHTML(ctx); err == nil {
		p.captureFailure(ctx, "playlists-tab", html)
	}
}

// clickByText clicks the first clickable element whose text or aria-label
// contains the needle, case-insensitively.
func (p *Pipeline) clickByText(ctx context.Context, text string) bool {
	script := fmt.Sprintf(`(() => {
		const needle = %s.toLowerCase();
		const els = document.querySelectorAll("a, button, [role='button'], [role='link'], music-link, music-pill-item");
		for (const el of els) {
			const label = (el.getAttribute('aria-label') || '') + ' ' + (el.textContent || '');
			if (label.toLowerCase().includes(needle)) { el.scrollIntoView(); el.click(); return true; }
		}
		return false;
	})()`, jsString(text))
	var clicked bool
	if err := p.driver.Evaluate(ctx, script, &clicked); err != nil {
		p.logger.Debugf("click-by-text %q failed: %v", text, err)
		return false
	}
	return clicked
}

// awaitContent runs the readiness wait under the retry budget. Returns
// false when the page never reported ready; the caller still attempts
// extraction since a late render may have landed.
func (p *Pipeline) awaitContent(ctx context.Context) bool {
	return p.retryer.Do("wait for playlist content", func() error {
		if state := p.waiter.Wait(ctx, p.contentReady); state != Ready {
			return fmt.Errorf("content not ready: %s", state)
		}
		return nil
	})
}

// contentReady is the waiter predicate: rows present or an explicit empty
// state. One cheap querySelector round-trip per poll.
func (p *Pipeline) contentReady(ctx context.Context) bool {
	script := fmt.Sprintf("!!(document.querySelector(%s) || document.querySelector(%s))",
		jsString(JoinSelectors(SongRowSelectors)),
		jsString(JoinSelectors(EmptyStateSelectors)))
	var ready bool
	if err := p.driver.Evaluate(ctx, script, &ready); err != nil {
		p.logger.Debugf("readiness probe failed: %v", err)
		return false
	}
	return ready
}

// scrollToLoad pushes an infinite-scroll list to the end: scroll, pause,
// recount, stop when the row count stabilizes or the attempt ceiling hits.
func (p *Pipeline) scrollToLoad(ctx context.Context) {
	p.retryer.Do("scroll to load rows", func() error {
		prev := -1
		for attempt := 0; attempt < p.config.ScrollMaxAttempts; attempt++ {
			if err := p.driver.Evaluate(ctx, "window.scrollBy(0, window.innerHeight)", nil); err != nil {
				return err
			}
			time.Sleep(p.config.ScrollPause)
			cur := p.rowCount(ctx)
			if cur == prev {
				break
			}
			prev = cur
		}
		return nil
	})
}

func (p *Pipeline) rowCount(ctx context.Context) int {
	script := fmt.Sprintf("document.querySelectorAll(%s).length", jsString(JoinSelectors(SongRowSelectors)))
	var count int
	if err := p.driver.Evaluate(ctx, script, &count); err != nil {
		p.logger.Debugf("row count probe failed: %v", err)
		return 0
	}
	return count
}

func (p *Pipeline) pageHTML(ctx context.Context) (string, error) {
	html, ok := RetryValue(p.retryer, "read page HTML", func() (string, error) {
		return p.driver.HTML(ctx)
	})
	if !ok {
		return "", fmt.Errorf("page HTML unavailable after retries")
	}
	return html, nil
}

// captureFailure persists a diagnostic snapshot through the debug sink.
func (p *Pipeline) captureFailure(ctx context.Context, label, html string) {
	shot, err := p.driver.Screenshot(ctx)
	if err != nil {
		p.logger.Debugf("screenshot for debug capture failed: %v", err)
	}
	p.debug.SaveSnapshot(label, html, shot)
}

// expectedSongCount parses the page-reported "N songs" total, 0 if absent.
func expectedSongCount(doc *goquery.Document) int {
	m := songCountRe.FindStringSubmatch(doc.Text())
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// findFirstMatching returns the selection for the first selector candidate
// with at least one match, nil when none match.
func findFirstMatching(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func attrOf(sel *goquery.Selection, name string) string {
	if v, ok := sel.Attr(name); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstAriaLabel(row *goquery.Selection) string {
	if v, ok := row.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if el := row.Find("[aria-label]").First(); el.Length() > 0 {
		v, _ := el.Attr("aria-label")
		return strings.TrimSpace(v)
	}
	return ""
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}

// jsString encodes a Go string as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
