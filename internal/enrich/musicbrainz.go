// Package enrich augments extracted tracks with metadata from external
// catalogs. Enrichment is strictly additive: it never overwrites a value
// the page already provided, and a lookup failure never fails a scrape.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultEndpoint = "https://musicbrainz.org/ws/2"
	userAgent       = "soundscrape/1.0 (https://github.com/soundscrape/soundscrape)"
)

// Lookup is the result of one catalog query.
type Lookup struct {
	Genre       string
	ReleaseDate string
	Matched     bool
}

// Client resolves a (title, artist) pair against an external catalog.
type Client interface {
	Lookup(ctx context.Context, title, artist string) (Lookup, error)
}

// MusicBrainz queries the MusicBrainz recording search API. Requests are
// rate-limited to one per second per their usage policy.
type MusicBrainz struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *logrus.Entry
}

// NewMusicBrainz builds a client against the public API. endpoint may be
// empty; tests point it at a local server.
func NewMusicBrainz(endpoint string, logger *logrus.Entry) *MusicBrainz {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &MusicBrainz{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger:   logger,
	}
}

type recordingResponse struct {
	Recordings []struct {
		Title            string `json:"title"`
		FirstReleaseDate string `json:"first-release-date"`
		Tags             []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tags"`
		Releases []struct {
			Date string `json:"date"`
		} `json:"releases"`
	} `json:"recordings"`
}

// Lookup searches for the best-scoring recording matching title and
// artist. An empty title short-circuits to an unmatched result.
func (mb *MusicBrainz) Lookup(ctx context.Context, title, artist string) (Lookup, error) {
	if strings.TrimSpace(title) == "" {
		return Lookup{}, nil
	}
	if err := mb.limiter.Wait(ctx); err != nil {
		return Lookup{}, err
	}

	query := fmt.Sprintf(`recording:%q`, title)
	if strings.TrimSpace(artist) != "" {
		query += fmt.Sprintf(` AND artist:%q`, artist)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mb.endpoint+"/recording?"+params.Encode(), nil)
	if err != nil {
		return Lookup{}, fmt.Errorf("building musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := mb.client.Do(req)
	if err != nil {
		return Lookup{}, fmt.Errorf("musicbrainz request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Lookup{}, fmt.Errorf("musicbrainz returned status %d", resp.StatusCode)
	}

	var body recordingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Lookup{}, fmt.Errorf("decoding musicbrainz response: %w", err)
	}
	if len(body.Recordings) == 0 {
		mb.logger.WithField("title", title).Debug("no musicbrainz match")
		return Lookup{}, nil
	}

	rec := body.Recordings[0]
	result := Lookup{Matched: true, ReleaseDate: rec.FirstReleaseDate}
	if result.ReleaseDate == "" && len(rec.Releases) > 0 {
		result.ReleaseDate = rec.Releases[0].Date
	}
	best := 0
	for _, tag := range rec.Tags {
		if tag.Count > best {
			best = tag.Count
			result.Genre = tag.Name
		}
	}
	return result, nil
}
