// internal/scraper/debug.go
package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

// DebugSink persists page snapshots when extraction fails. Purely
// diagnostic; it is never called on the success path.
type DebugSink interface {
	SaveSnapshot(label, html string, screenshot []byte)
}

// FileDebugSink writes truncated HTML and screenshots into a directory.
type FileDebugSink struct {
	Dir          string
	MaxHTMLBytes int

	logger *logrus.Entry
}

var unsafeLabelRe = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// NewFileDebugSink creates a file-backed debug sink. maxHTMLBytes caps the
// persisted HTML size; zero means the 200KB default.
func NewFileDebugSink(dir string, maxHTMLBytes int, logger *logrus.Entry) *FileDebugSink {
	if dir == "" {
		dir = "scraped-debug"
	}
	if maxHTMLBytes <= 0 {
		maxHTMLBytes = 200_000
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileDebugSink{Dir: dir, MaxHTMLBytes: maxHTMLBytes, logger: logger}
}

// SaveSnapshot writes the HTML fragment and screenshot under a sanitized,
// timestamped name. Failures are logged and swallowed; debug capture must
// never affect the run.
func (s *FileDebugSink) SaveSnapshot(label, html string, screenshot []byte) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.logger.WithField("dir", s.Dir).Warnf("cannot create debug dir: %v", err)
		return
	}
	base := fmt.Sprintf("%s-%d", unsafeLabelRe.ReplaceAllString(label, "-"), time.Now().UnixMilli())

	if html != "" {
		if len(html) > s.MaxHTMLBytes {
			html = html[:s.MaxHTMLBytes] + "\n<!-- TRUNCATED -->"
		}
		path := filepath.Join(s.Dir, base+".html")
		if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
			s.logger.Warnf("failed to write debug HTML: %v", err)
		}
	}
	if len(screenshot) > 0 {
		path := filepath.Join(s.Dir, base+".png")
		if err := os.WriteFile(path, screenshot, 0o644); err != nil {
			s.logger.Warnf("failed to write debug screenshot: %v", err)
		}
	}
}

// NopDebugSink discards snapshots; used when debug capture is disabled.
type NopDebugSink struct{}

func (NopDebugSink) SaveSnapshot(string, string, []byte) {}
