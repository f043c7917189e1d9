// internal/scraper/identifier_test.go
package scraper

import "testing"

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		trackURL string
		expected string
	}{
		{
			name:     "query parameter wins",
			html:     `<div class="row" data-asin="B0IGNORED"></div>`,
			trackURL: "https://music.example.com/albums/B0AA?trackAsin=B0QUERY1",
			expected: "B0QUERY1",
		},
		{
			name:     "path segment",
			html:     `<div class="row"></div>`,
			trackURL: "https://music.example.com/tracks/B0SEG42",
			expected: "B0SEG42",
		},
		{
			name:     "singular track segment",
			html:     `<div class="row"></div>`,
			trackURL: "https://music.example.com/track/B0SEG43",
			expected: "B0SEG43",
		},
		{
			name:     "data attribute fallback",
			html:     `<div class="row" data-track-id="B0ATTR7"></div>`,
			trackURL: "https://music.example.com/playlists/p1",
			expected: "B0ATTR7",
		},
		{
			name:     "nested anchor fallback",
			html:     `<div class="row"><a href="/albums/x?trackAsin=B0NEST9">x</a></div>`,
			trackURL: "",
			expected: "B0NEST9",
		},
		{
			name:     "no identifier anywhere",
			html:     `<div class="row"><span>text</span></div>`,
			trackURL: "https://music.example.com/playlists/p1",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := rowFromHTML(t, tt.html)
			if got := ExtractTrackID(row, tt.trackURL); got != tt.expected {
				t.Errorf("ExtractTrackID = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestArtistNameFromHref(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "simple slug",
			href:     "/artists/B0X/daft-punk",
			expected: "Daft Punk",
		},
		{
			name:     "query string dropped",
			href:     "https://music.example.com/artists/B0X/tame-impala?ref=nav",
			expected: "Tame Impala",
		},
		{
			name:     "encoded characters",
			href:     "/artists/B0X/sigur-r%C3%B3s",
			expected: "Sigur R S",
		},
		{
			name:     "not an artist link",
			href:     "/albums/B0Y/discovery",
			expected: "",
		},
		{
			name:     "empty href",
			href:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArtistNameFromHref(tt.href); got != tt.expected {
				t.Errorf("ArtistNameFromHref(%q) = %q, want %q", tt.href, got, tt.expected)
			}
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://music.example.com"
	tests := []struct {
		href     string
		expected string
	}{
		{"", ""},
		{"https://other.example.com/x", "https://other.example.com/x"},
		{"/playlists/p1", "https://music.example.com/playlists/p1"},
		{"playlists/p1", "https://music.example.com/playlists/p1"},
	}
	for _, tt := range tests {
		if got := AbsoluteURL(base, tt.href); got != tt.expected {
			t.Errorf("AbsoluteURL(%q) = %q, want %q", tt.href, got, tt.expected)
		}
	}
}
