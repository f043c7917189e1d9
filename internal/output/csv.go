package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/soundscrape/soundscrape/internal/scraper"
)

// CSVSink writes one CSV file per playlist into a directory. The header
// row comes straight from the field registry, so the CSV schema can
// never drift from the fields the pipeline extracts.
type CSVSink struct {
	dir      string
	registry *scraper.Registry
	logger   *logrus.Entry

	mu     sync.Mutex
	nextID int64
	names  map[int64]string
}

// NewCSVSink builds a sink rooted at dir.
func NewCSVSink(dir string, registry *scraper.Registry, logger *logrus.Entry) *CSVSink {
	if dir == "" {
		dir = "output"
	}
	if registry == nil {
		registry = scraper.DefaultRegistry()
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CSVSink{
		dir:      dir,
		registry: registry,
		logger:   logger,
		names:    make(map[int64]string),
	}
}

func (s *CSVSink) CreateSchema(ctx context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

// UpsertPlaylist reserves an id for the playlist. Ids are local to this
// sink instance; the filename is derived from the playlist name.
func (s *CSVSink) UpsertPlaylist(ctx context.Context, name, url string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.names[s.nextID] = name
	return s.nextID, nil
}

func (s *CSVSink) InsertTracks(ctx context.Context, playlistID int64, tracks []scraper.Track) error {
	s.mu.Lock()
	name, ok := s.names[playlistID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown playlist id %d", playlistID)
	}

	path := filepath.Join(s.dir, SanitizeFilename(name)+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	fields := s.registry.FieldNames()
	if err := w.Write(fields); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, track := range tracks {
		record := make([]string, len(fields))
		for i, f := range fields {
			v, err := fieldValue(f, track)
			if err != nil {
				return err
			}
			record[i] = v
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"path": path, "tracks": len(tracks)}).Info("wrote playlist csv")
	return nil
}

func (s *CSVSink) Close() error { return nil }
