package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMusicBrainzLookup(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/recording" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recordings":[{
			"title":"Midnight City",
			"first-release-date":"2011-08-16",
			"tags":[{"name":"shoegaze","count":2},{"name":"electronic","count":7}]
		}]}`))
	}))
	defer srv.Close()

	mb := NewMusicBrainz(srv.URL, nil)
	lookup, err := mb.Lookup(context.Background(), "Midnight City", "M83")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if !lookup.Matched {
		t.Error("lookup did not match")
	}
	if lookup.ReleaseDate != "2011-08-16" {
		t.Errorf("release date = %q", lookup.ReleaseDate)
	}
	if lookup.Genre != "electronic" {
		t.Errorf("genre = %q, want the highest-count tag", lookup.Genre)
	}
	if gotQuery != `recording:"Midnight City" AND artist:"M83"` {
		t.Errorf("query = %q", gotQuery)
	}
	if gotUA == "" {
		t.Error("request carried no User-Agent")
	}
}

func TestMusicBrainzLookupNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"recordings":[]}`))
	}))
	defer srv.Close()

	mb := NewMusicBrainz(srv.URL, nil)
	lookup, err := mb.Lookup(context.Background(), "Nonexistent", "")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if lookup.Matched {
		t.Error("empty result set reported as matched")
	}
}

func TestMusicBrainzServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	mb := NewMusicBrainz(srv.URL, nil)
	if _, err := mb.Lookup(context.Background(), "Song", ""); err == nil {
		t.Error("expected error for a 503 response")
	}
}

func TestMusicBrainzEmptyTitle(t *testing.T) {
	mb := NewMusicBrainz("http://127.0.0.1:0", nil)
	lookup, err := mb.Lookup(context.Background(), "  ", "artist")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if lookup.Matched {
		t.Error("blank title must short-circuit to unmatched")
	}
}
