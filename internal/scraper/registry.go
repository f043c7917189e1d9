// internal/scraper/registry.go
package scraper

import (
	"strings"
)

// Role describes how a field's raw values are normalized and tie-broken.
type Role string

const (
	RoleTitle    Role = "title"
	RoleArtist   Role = "artist"
	RoleAlbum    Role = "album"
	RoleDuration Role = "duration"
	RoleNumber   Role = "number"
	RoleURL      Role = "url"
	RoleImage    Role = "image"
	RoleFlag     Role = "flag"
	RoleText     Role = "text"
	// RoleDerived marks fields that have no DOM queries and are filled by
	// the pipeline or enrichment (release date, genre, confidence, ...).
	RoleDerived Role = "derived"
)

// Query is one candidate way of locating a field inside a row element.
// An empty Attr means the element's text content; otherwise the named
// attribute is read.
type Query struct {
	Selector string `yaml:"selector" json:"selector"`
	Attr     string `yaml:"attr,omitempty" json:"attr,omitempty"`
}

// Key identifies the query in provenance maps.
func (q Query) Key() string {
	if q.Attr == "" {
		return q.Selector
	}
	return q.Selector + "@" + q.Attr
}

// Field is a metadata field with its ordered candidate queries. Queries are
// ranked by assumed reliability, but the cross-checker attempts all of them.
type Field struct {
	Name    string  `yaml:"name" json:"name"`
	Role    Role    `yaml:"role" json:"role"`
	Queries []Query `yaml:"queries" json:"queries"`
}

// Registry is the single source of truth for metadata fields and their
// selectors. It is read-only after construction; extraction and the export
// sinks both consume it, so registry order doubles as export schema order.
type Registry struct {
	fields []Field
	byName map[string]int
}

// NewRegistry builds a registry from the given fields, preserving order.
func NewRegistry(fields []Field) *Registry {
	r := &Registry{
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		r.byName[f.Name] = i
	}
	return r
}

// Candidates returns the ordered candidate queries for a field, or nil when
// the field is unknown.
func (r *Registry) Candidates(name string) []Query {
	if i, ok := r.byName[name]; ok {
		return r.fields[i].Queries
	}
	return nil
}

// Lookup returns the field descriptor by name.
func (r *Registry) Lookup(name string) (Field, bool) {
	if i, ok := r.byName[name]; ok {
		return r.fields[i], true
	}
	return Field{}, false
}

// Fields returns all fields in registry order.
func (r *Registry) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// FieldNames returns all field names in registry order.
func (r *Registry) FieldNames() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// DefaultRegistry returns the selector catalog for the target site. The
// ordering inside each field reflects observed selector reliability: site
// test hooks first, then class and heuristic fallbacks.
func DefaultRegistry() *Registry {
	return NewRegistry([]Field{
		{Name: "title", Role: RoleTitle, Queries: []Query{
			{Selector: "a[data-test='track-title']"},
			{Selector: ".track-title"},
			{Selector: "[data-testid*='title']"},
			{Selector: ".title"},
			{Selector: "h2"},
			{Selector: "h3"},
		}},
		{Name: "artist", Role: RoleArtist, Queries: []Query{
			{Selector: "a[data-test='track-artist']"},
			{Selector: ".track-artist"},
			{Selector: "[data-testid*='artist']"},
			{Selector: ".artist"},
			{Selector: "h4"},
			{Selector: "h5"},
		}},
		{Name: "album", Role: RoleAlbum, Queries: []Query{
			{Selector: "a[data-test='track-album']"},
			{Selector: ".track-album"},
			{Selector: "[data-testid*='album']"},
			{Selector: ".album"},
		}},
		{Name: "url", Role: RoleURL, Queries: []Query{
			{Selector: "a[data-test='track-title']", Attr: "href"},
			{Selector: "div.col1 a[href]", Attr: "href"},
			{Selector: "a[href]", Attr: "href"},
		}},
		{Name: "duration", Role: RoleDuration, Queries: []Query{
			{Selector: "span[data-testid='duration']"},
			{Selector: ".duration"},
			{Selector: ".track-duration"},
			{Selector: "div.col4 span"},
		}},
		{Name: "trackNumber", Role: RoleNumber, Queries: []Query{
			{Selector: "span[data-testid='track-number']"},
			{Selector: ".track-number"},
			{Selector: ".index"},
			{Selector: ".position"},
		}},
		{Name: "playlistPosition", Role: RoleDerived},
		{Name: "explicit", Role: RoleFlag, Queries: []Query{
			{Selector: ".explicit"},
			{Selector: "[aria-label*='Explicit']", Attr: "aria-label"},
			{Selector: "[data-testid*='explicit']"},
		}},
		{Name: "imageUrl", Role: RoleImage, Queries: []Query{
			{Selector: "img[data-testid='playlist-image']", Attr: "src"},
			{Selector: "music-image img", Attr: "src"},
			{Selector: "img", Attr: "src"},
			{Selector: "img", Attr: "data-src"},
		}},
		{Name: "releaseDate", Role: RoleDerived},
		{Name: "genre", Role: RoleDerived},
		{Name: "trackId", Role: RoleDerived},
		{Name: "validated", Role: RoleDerived},
		{Name: "confidenceScore", Role: RoleDerived},
		{Name: "sourceDetails", Role: RoleDerived},
		{Name: "fieldValidationStatus", Role: RoleDerived},
	})
}

// SongRowSelectors are the candidate selectors for one song row, ordered by
// how specific they are to the target site's current markup.
var SongRowSelectors = []string{
	"[data-testid='song-row']",
	"[data-testid='track-row']",
	"music-track-list-row",
	".music-track-list-row",
	"music-image-row",
	".music-image-row",
	".track-list__item",
	".song-item",
	".track-item",
	"[class*='track-row']",
	"[class*='song-row']",
	"tr[role='row']",
	"div[role='row']",
	".song-row",
	".track-row",
	"div.tracklist-row",
}

// PlaylistTileSelectors locate playlist tiles on the library page.
var PlaylistTileSelectors = []string{
	"[data-test='playlist']",
	"[data-testid='playlist']",
	"a[href*='/playlist']",
	"music-vertical-item",
	".music-image-row",
	"music-horizontal-item",
}

// EmptyStateSelectors mark a legitimately empty playlist, which counts as
// readiness for the content waiter.
var EmptyStateSelectors = []string{
	"[data-testid='empty-playlist']",
	".empty-state",
}

// JoinSelectors combines selector candidates into one comma query.
func JoinSelectors(selectors []string) string {
	return strings.Join(selectors, ", ")
}
