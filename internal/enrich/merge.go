package enrich

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/soundscrape/soundscrape/internal/scraper"
)

const provenanceSource = "musicbrainz"

// Merger folds catalog lookups into tracks copy-on-write. It satisfies
// the pipeline's TrackEnricher.
type Merger struct {
	client Client
	logger *logrus.Entry
	// OnOutcome, when set, receives one of "matched", "unmatched",
	// "failed" per lookup. Used for metrics.
	OnOutcome func(outcome string)
}

func (m *Merger) outcome(o string) {
	if m.OnOutcome != nil {
		m.OnOutcome(o)
	}
}

// NewMerger builds a merger over a catalog client.
func NewMerger(client Client, logger *logrus.Entry) *Merger {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Merger{client: client, logger: logger}
}

// Enrich returns a new track with catalog data merged in. Only empty
// fields are filled; a successful match marks the track validated and
// bumps its confidence. The input track is never mutated, and a failed
// lookup records only provenance and field status.
func (m *Merger) Enrich(ctx context.Context, track scraper.Track) scraper.Track {
	out := track.Clone()
	if out.SourceDetails == nil {
		out.SourceDetails = make(map[string]map[string]string)
	}
	if out.FieldStatus == nil {
		out.FieldStatus = make(map[string]bool)
	}

	lookup, err := m.client.Lookup(ctx, track.Title, track.Artist)
	if err != nil {
		m.logger.WithField("title", track.Title).Warnf("catalog lookup failed: %v", err)
		out.SourceDetails["validated"] = map[string]string{provenanceSource: "not validated"}
		out.FieldStatus[provenanceSource] = false
		m.outcome("failed")
		return out
	}
	if !lookup.Matched {
		out.SourceDetails["validated"] = map[string]string{provenanceSource: "not validated"}
		out.FieldStatus[provenanceSource] = false
		m.outcome("unmatched")
		return out
	}
	m.outcome("matched")
	out.FieldStatus[provenanceSource] = true

	if out.Genre == "" && lookup.Genre != "" {
		out.Genre = lookup.Genre
		out.SourceDetails["genre"] = map[string]string{provenanceSource: lookup.Genre}
	}
	if out.ReleaseDate == "" && lookup.ReleaseDate != "" {
		out.ReleaseDate = lookup.ReleaseDate
		out.SourceDetails["releaseDate"] = map[string]string{provenanceSource: lookup.ReleaseDate}
	}
	out.Validated = true
	out.Confidence += 0.2
	if out.Confidence > 1.0 {
		out.Confidence = 1.0
	}
	out.SourceDetails["validated"] = map[string]string{provenanceSource: "validated"}
	return out
}
