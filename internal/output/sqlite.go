package output

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/soundscrape/soundscrape/internal/scraper"
)

// SQLiteSink is the zero-setup local store, useful for development runs
// where no PostgreSQL server is available. Provenance maps are stored as
// JSON text.
type SQLiteSink struct {
	db     *sql.DB
	logger *logrus.Entry
}

// NewSQLiteSink opens (or creates) the database file at path.
func NewSQLiteSink(path string, logger *logrus.Entry) (*SQLiteSink, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One writer at a time; WAL keeps readers unblocked during inserts.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}
	return &SQLiteSink{db: db, logger: logger}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS playlists (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	url  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS songs (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	playlist_id             INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	title                   TEXT NOT NULL,
	artist                  TEXT,
	album                   TEXT,
	url                     TEXT,
	duration                TEXT,
	track_number            INTEGER,
	playlist_position       INTEGER,
	explicit                BOOLEAN,
	image_url               TEXT,
	release_date            TEXT,
	genre                   TEXT,
	track_id                TEXT,
	validated               BOOLEAN NOT NULL DEFAULT 0,
	confidence_score        REAL,
	source_details          TEXT,
	field_validation_status TEXT,
	scraped_at              TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_songs_playlist ON songs (playlist_id);
`

func (s *SQLiteSink) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteSink) UpsertPlaylist(ctx context.Context, name, url string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlists (name, url) VALUES (?, ?)
		ON CONFLICT (url) DO UPDATE SET name = excluded.name
		RETURNING id`, name, url).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting playlist %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteSink) InsertTracks(ctx context.Context, playlistID int64, tracks []scraper.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("clearing previous tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (
			playlist_id, title, artist, album, url, duration, track_number,
			playlist_position, explicit, image_url, release_date, genre,
			track_id, validated, confidence_score, source_details, field_validation_status
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		details, err := marshalJSONField(t.SourceDetails)
		if err != nil {
			return err
		}
		status, err := marshalJSONField(t.FieldStatus)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			playlistID, t.Title, t.Artist, t.Album, t.URL, t.Duration,
			t.TrackNumber, t.PlaylistPosition, t.Explicit, t.ImageURL,
			t.ReleaseDate, t.Genre, t.TrackID, t.Validated, t.Confidence,
			details, status)
		if err != nil {
			return fmt.Errorf("inserting track %q: %w", t.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tracks: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"playlist_id": playlistID, "tracks": len(tracks)}).Info("stored tracks in sqlite")
	return nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }
