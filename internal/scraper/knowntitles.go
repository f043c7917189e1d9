// internal/scraper/knowntitles.go
package scraper

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var punctRe = regexp.MustCompile(`[^\w'& ]+`)

// KnownTitles is a lookup over previously exported CSV files, used as a
// last-resort title/artist source when every selector fails. It loads once
// on first use and is read-only afterwards, so the single scrape goroutine
// and any future readers never need a lock past the sync.Once.
type KnownTitles struct {
	dir    string
	logger *logrus.Entry

	once        sync.Once
	titleByKey  map[string]string
	artistByKey map[string]string
	titleByID   map[string]string
	artistByID  map[string]string
}

// NewKnownTitles creates a cache over CSV files in dir. The directory may
// be empty or missing; lookups then simply miss.
func NewKnownTitles(dir string, logger *logrus.Entry) *KnownTitles {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &KnownTitles{dir: dir, logger: logger}
}

// TitleForID returns the known title for a track identifier.
func (k *KnownTitles) TitleForID(id string) (string, bool) {
	k.ensureLoaded()
	t, ok := k.titleByID[id]
	return t, ok
}

// ArtistForID returns the known artist for a track identifier.
func (k *KnownTitles) ArtistForID(id string) (string, bool) {
	k.ensureLoaded()
	a, ok := k.artistByID[id]
	return a, ok
}

// ArtistForTitle returns the known artist for a title, if any.
func (k *KnownTitles) ArtistForTitle(title string) string {
	k.ensureLoaded()
	return k.artistByKey[normalizeKey(title)]
}

// FindTitleIn returns the longest known title contained in the text.
func (k *KnownTitles) FindTitleIn(text string) string {
	k.ensureLoaded()
	if text == "" || len(k.titleByKey) == 0 {
		return ""
	}
	norm := normalizeKey(text)
	var bestKey string
	for key := range k.titleByKey {
		if strings.Contains(norm, key) && len(key) > len(bestKey) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return ""
	}
	return k.titleByKey[bestKey]
}

func (k *KnownTitles) ensureLoaded() {
	k.once.Do(k.load)
}

func (k *KnownTitles) load() {
	k.titleByKey = make(map[string]string)
	k.artistByKey = make(map[string]string)
	k.titleByID = make(map[string]string)
	k.artistByID = make(map[string]string)
	if k.dir == "" {
		return
	}
	matches, err := filepath.Glob(filepath.Join(k.dir, "*.csv"))
	if err != nil || len(matches) == 0 {
		return
	}
	for _, path := range matches {
		k.loadFile(path)
	}
	k.logger.WithFields(logrus.Fields{
		"titles": len(k.titleByKey),
		"ids":    len(k.titleByID),
	}).Debug("known-title cache loaded")
}

// loadFile reads one export CSV: column 0 title, 1 artist, 3 track URL.
func (k *KnownTitles) loadFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		k.logger.Debugf("skipping known-title file %s: %v", path, err)
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	first := true
	for {
		cols, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if first {
			first = false
			joined := strings.ToLower(strings.Join(cols, ","))
			if strings.Contains(joined, "title") && strings.Contains(joined, "artist") {
				continue
			}
		}
		if len(cols) == 0 {
			continue
		}
		title := strings.TrimSpace(cols[0])
		if title == "" {
			continue
		}
		key := normalizeKey(title)
		if _, ok := k.titleByKey[key]; !ok {
			k.titleByKey[key] = title
		}
		var artist string
		if len(cols) > 1 {
			artist = strings.TrimSpace(cols[1])
			if artist != "" {
				if _, ok := k.artistByKey[key]; !ok {
					k.artistByKey[key] = artist
				}
			}
		}
		if len(cols) > 3 {
			if id := trackIDFromURL(strings.TrimSpace(cols[3])); id != "" {
				if _, ok := k.titleByID[id]; !ok {
					k.titleByID[id] = title
				}
				if artist != "" {
					if _, ok := k.artistByID[id]; !ok {
						k.artistByID[id] = artist
					}
				}
			}
		}
	}
}

// normalizeKey lowercases and strips punctuation for fuzzy title matching.
func normalizeKey(s string) string {
	low := strings.ToLower(strings.TrimSpace(s))
	low = punctRe.ReplaceAllString(low, " ")
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(low, " "))
}
