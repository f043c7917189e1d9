// internal/scraper/types.go
package scraper

import (
	"fmt"
)

// Common errors
var (
	ErrEmptySelector  = fmt.Errorf("selector cannot be empty")
	ErrUnknownField   = fmt.Errorf("unknown metadata field")
	ErrNoRowsMatched  = fmt.Errorf("no row elements matched")
	ErrDriverRequired = fmt.Errorf("browser driver is required")
)

// Track holds the reconciled metadata for one song row. SourceDetails maps
// field name to the per-query provenance recorded by the cross-checker, and
// FieldStatus records external validation outcomes per field. Enrichment
// produces a new Track; a Track is never mutated after assembly.
type Track struct {
	Title            string                       `json:"title"`
	Artist           string                       `json:"artist"`
	Album            string                       `json:"album"`
	URL              string                       `json:"url"`
	Duration         string                       `json:"duration"`
	TrackNumber      int                          `json:"track_number,omitempty"`
	PlaylistPosition int                          `json:"playlist_position"`
	Explicit         *bool                        `json:"explicit,omitempty"`
	ImageURL         string                       `json:"image_url"`
	ReleaseDate      string                       `json:"release_date"`
	Genre            string                       `json:"genre"`
	TrackID          string                       `json:"track_id"`
	Validated        bool                         `json:"validated"`
	Confidence       float64                      `json:"confidence_score"`
	SourceDetails    map[string]map[string]string `json:"source_details,omitempty"`
	FieldStatus      map[string]bool              `json:"field_validation_status,omitempty"`
}

// Clone returns a deep copy of the track so enrichment can merge without
// touching the extracted original.
func (t Track) Clone() Track {
	out := t
	if t.Explicit != nil {
		e := *t.Explicit
		out.Explicit = &e
	}
	if t.SourceDetails != nil {
		out.SourceDetails = make(map[string]map[string]string, len(t.SourceDetails))
		for field, prov := range t.SourceDetails {
			inner := make(map[string]string, len(prov))
			for k, v := range prov {
				inner[k] = v
			}
			out.SourceDetails[field] = inner
		}
	}
	if t.FieldStatus != nil {
		out.FieldStatus = make(map[string]bool, len(t.FieldStatus))
		for k, v := range t.FieldStatus {
			out.FieldStatus[k] = v
		}
	}
	return out
}

// Playlist is the read-only result of scraping one playlist page.
type Playlist struct {
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Tracks []Track `json:"tracks"`
}

// PlaylistLink is a playlist tile discovered on the library page.
type PlaylistLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
