package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/warpdl/warptube/pkg/tubelib"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	position INTEGER NOT NULL,
	id       TEXT PRIMARY KEY,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore keeps one row per job, ordered by queue position. Each Save
// replaces the whole queue in a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(snap *tubelib.Snapshot) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(`DELETE FROM jobs`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO jobs (position, id, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for i, j := range snap.Jobs {
		data, mErr := json.Marshal(j)
		if mErr != nil {
			return fmt.Errorf("encode job %s: %w", j.ID, mErr)
		}
		if _, err = stmt.Exec(i, j.ID, string(data)); err != nil {
			return fmt.Errorf("insert job %s: %w", j.ID, err)
		}
	}
	_, err = tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('saved_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		snap.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write saved_at: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load() (*tubelib.Snapshot, error) {
	var savedAt string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'saved_at'`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read saved_at: %w", err)
	}
	snap := &tubelib.Snapshot{}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return nil, fmt.Errorf("%w: saved_at %q", ErrCorruptSnapshot, savedAt)
	}

	rows, err := s.db.Query(`SELECT data FROM jobs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		var j tubelib.Job
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		snap.Jobs = append(snap.Jobs, &j)
	}
	return snap, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
