package output

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/soundscrape/soundscrape/internal/scraper"
)

// PostgresSink persists playlists into PostgreSQL with JSONB provenance
// columns. Re-scraping a playlist replaces its tracks atomically.
type PostgresSink struct {
	db     *sql.DB
	logger *logrus.Entry
}

// NewPostgresSink opens a connection pool against dsn.
func NewPostgresSink(dsn string, logger *logrus.Entry) (*PostgresSink, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresSink{db: db, logger: logger}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS playlists (
	id   SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	url  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS songs (
	id                      SERIAL PRIMARY KEY,
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
	validated               BOOLEAN NOT NULL DEFAULT FALSE,
	confidence_score        DOUBLE PRECISION,
	source_details          JSONB,
	field_validation_status JSONB,
	scraped_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_songs_playlist ON songs (playlist_id);
CREATE INDEX IF NOT EXISTS idx_songs_track_id ON songs (track_id);
`

func (s *PostgresSink) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("creating postgres schema: %w", err)
	}
	return nil
}

// UpsertPlaylist inserts or updates the playlist keyed by url and returns
// its id.
func (s *PostgresSink) UpsertPlaylist(ctx context.Context, name, url string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlists (name, url) VALUES ($1, $2)
		ON CONFLICT (url) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name, url).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting playlist %q: %w", name, err)
	}
	return id, nil
}

// InsertTracks replaces the playlist's tracks in one transaction.
func (s *PostgresSink) InsertTracks(ctx context.Context, playlistID int64, tracks []scraper.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE playlist_id = $1`, playlistID); err != nil {
		return fmt.Errorf("clearing previous tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (
			playlist_id, title, artist, album, url, duration, track_number,
			playlist_position, explicit, image_url, release_date, genre,
			track_id, validated, confidence_score, source_details, field_validation_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`)
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
	s.logger.WithFields(logrus.Fields{"playlist_id": playlistID, "tracks": len(tracks)}).Info("stored tracks in postgres")
	return nil
}

func (s *PostgresSink) Close() error { return s.db.Close() }
