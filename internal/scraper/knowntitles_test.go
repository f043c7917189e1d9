// internal/scraper/knowntitles_test.go
package scraper

import (
	"os"
	"path/filepath"
	"testing"
)

func writeKnownTitlesCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func TestKnownTitlesLookups(t *testing.T) {
	dir := t.TempDir()
	writeKnownTitlesCSV(t, dir, "export.csv",
		"title,artist,album,url\n"+
			"Midnight City,M83,Hurry Up,https://music.example.com/tracks/B0KNOWN1\n"+
			"Strobe,Deadmau5,,https://music.example.com/albums/x?trackAsin=B0KNOWN2\n"+
			",Nameless,,https://music.example.com/tracks/B0SKIP\n")

	k := NewKnownTitles(dir, nil)

	if title, ok := k.TitleForID("B0KNOWN1"); !ok || title != "Midnight City" {
		t.Errorf("TitleForID(B0KNOWN1) = %q, %v", title, ok)
	}
	if title, ok := k.TitleForID("B0KNOWN2"); !ok || title != "Strobe" {
		t.Errorf("TitleForID(B0KNOWN2) = %q, %v", title, ok)
	}
	if artist, ok := k.ArtistForID("B0KNOWN1"); !ok || artist != "M83" {
		t.Errorf("ArtistForID(B0KNOWN1) = %q, %v", artist, ok)
	}
	if _, ok := k.TitleForID("B0SKIP"); ok {
		t.Error("row without a title must not be indexed")
	}
	if artist := k.ArtistForTitle("midnight city"); artist != "M83" {
		t.Errorf("ArtistForTitle = %q, lookup should be case-insensitive", artist)
	}
}

func TestKnownTitlesFindTitleIn(t *testing.T) {
	dir := t.TempDir()
	writeKnownTitlesCSV(t, dir, "export.csv",
		"title,artist,album,url\n"+
			"City,Unknown,,\n"+
			"Midnight City,M83,,\n")

	k := NewKnownTitles(dir, nil)

	if got := k.FindTitleIn("Now playing: Midnight City by M83"); got != "Midnight City" {
		t.Errorf("FindTitleIn = %q, want the longest contained title", got)
	}
	if got := k.FindTitleIn("nothing known here"); got != "" {
		t.Errorf("FindTitleIn on unknown text = %q, want empty", got)
	}
}

func TestKnownTitlesMissingDirectory(t *testing.T) {
	k := NewKnownTitles(filepath.Join(t.TempDir(), "absent"), nil)
	if _, ok := k.TitleForID("B0ANY"); ok {
		t.Error("missing directory must yield only misses")
	}
	empty := NewKnownTitles("", nil)
	if got := empty.FindTitleIn("anything"); got != "" {
		t.Errorf("empty cache FindTitleIn = %q", got)
	}
}
