// Package output persists scraped playlists. Every sink takes the same
// flattened record shape so the CSV header, the SQL schema, and the field
// registry stay in one-to-one correspondence.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/soundscrape/soundscrape/internal/scraper"
)

// Sink persists playlists and their tracks.
type Sink interface {
	// CreateSchema prepares storage, idempotently.
	CreateSchema(ctx context.Context) error
	// UpsertPlaylist stores the playlist header and returns its id.
	UpsertPlaylist(ctx context.Context, name, url string) (int64, error)
	// InsertTracks stores tracks under a playlist id.
	InsertTracks(ctx context.Context, playlistID int64, tracks []scraper.Track) error
	Close() error
}

// fieldValue flattens one registry field of a track to its export string.
// The two provenance maps serialize as JSON so every sink round-trips
// them identically.
func fieldValue(name string, t scraper.Track) (string, error) {
	switch name {
	case "title":
		return t.Title, nil
	case "artist":
		return t.Artist, nil
	case "album":
		return t.Album, nil
	case "url":
		return t.URL, nil
	case "duration":
		return t.Duration, nil
	case "trackNumber":
		return strconv.Itoa(t.TrackNumber), nil
	case "playlistPosition":
		return strconv.Itoa(t.PlaylistPosition), nil
	case "explicit":
		if t.Explicit == nil {
			return "", nil
		}
		return strconv.FormatBool(*t.Explicit), nil
	case "imageUrl":
		return t.ImageURL, nil
	case "releaseDate":
		return t.ReleaseDate, nil
	case "genre":
		return t.Genre, nil
	case "trackId":
		return t.TrackID, nil
	case "validated":
		return strconv.FormatBool(t.Validated), nil
	case "confidenceScore":
		return strconv.FormatFloat(t.Confidence, 'f', 3, 64), nil
	case "sourceDetails":
		return marshalJSONField(t.SourceDetails)
	case "fieldValidationStatus":
		return marshalJSONField(t.FieldStatus)
	default:
		return "", fmt.Errorf("%w: %s", scraper.ErrUnknownField, name)
	}
}

func marshalJSONField(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding provenance: %w", err)
	}
	return string(b), nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename maps an arbitrary playlist name to a safe filename
// stem.
func SanitizeFilename(name string) string {
	name = unsafeFilenameRe.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "playlist"
	}
	return name
}
