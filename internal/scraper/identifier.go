// internal/scraper/identifier.go
package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	trackParamRe   = regexp.MustCompile(`(?i)[?&]trackasin=([^&]+)`)
	trackSegmentRe = regexp.MustCompile(`/tracks?/([A-Za-z0-9]+)`)
	slugCleanRe    = regexp.MustCompile(`[^a-zA-Z0-9\- '&]`)
	spaceRunRe     = regexp.MustCompile(`\s+`)
)

// idAttributes are element attributes known to carry a track identifier.
var idAttributes = []string{"data-asin", "data-track-id", "data-id", "data-key"}

var titleCaser = cases.Title(language.English)

// ExtractTrackID derives a track identifier from a row element and its URL.
// Heuristics are tried in order: query-parameter match, path-segment match,
// known attributes, nested anchor hrefs. No match yields an empty string,
// not a failure.
func ExtractTrackID(element *goquery.Selection, trackURL string) string {
	if id := trackIDFromURL(trackURL); id != "" {
		return id
	}
	if element == nil {
		return ""
	}
	for _, attr := range idAttributes {
		if v, ok := element.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	var id string
	element.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		id = trackIDFromURL(href)
		return id == ""
	})
	return id
}

func trackIDFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if m := trackParamRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := trackSegmentRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ArtistNameFromHref turns an /artists/<id>/<slug> href into a readable
// artist name. Used as a last-resort artist source when no selector yields
// a value.
func ArtistNameFromHref(href string) string {
	if href == "" {
		return ""
	}
	path := href
	idx := strings.Index(path, "/artists/")
	if idx < 0 {
		return ""
	}
	path = path[idx+len("/artists/"):]
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	path = strings.TrimSuffix(path, ".html")
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	return slugToName(path)
}

// slugToName converts a URL slug to a display name: punctuation becomes
// spaces, runs collapse, words are title-cased.
func slugToName(slug string) string {
	slug = slugCleanRe.ReplaceAllString(slug, " ")
	slug = strings.ReplaceAll(slug, "-", " ")
	slug = strings.TrimSpace(spaceRunRe.ReplaceAllString(slug, " "))
	if slug == "" {
		return ""
	}
	return titleCaser.String(slug)
}

// AbsoluteURL resolves a possibly relative href against the site base URL.
func AbsoluteURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(base, "/") + href
	}
	return strings.TrimRight(base, "/") + "/" + href
}
