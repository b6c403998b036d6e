// Package store provides a SQLite-backed manifest of build runs, the files
// they wrote and the data files they read.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Manifest records build history.
type Manifest struct {
	db *sql.DB
}

// Open opens or creates the manifest database at the given path.
func Open(dbPath string) (*Manifest, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating manifest dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening manifest db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Manifest{db: db}, nil
}

// Close closes the manifest database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Output is one file written by a build, relative to the dist dir.
type Output struct {
	Path      string
	SHA256    string
	SizeBytes int64
}

// FileInfo holds the tracked mtime and size for an input file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// BuildRecord summarizes one build run.
type BuildRecord struct {
	ID         string
	DataDir    string
	DistDir    string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Skipped    int
	Changed    int
}

// BeginBuild registers a new build run and returns its ID.
func (m *Manifest) BeginBuild(dataDir, distDir string) (string, error) {
	id := uuid.NewString()
	_, err := m.db.Exec(`INSERT INTO builds (build_id, data_dir, dist_dir, started_at) VALUES (?, ?, ?, ?)`,
		id, dataDir, distDir, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("recording build: %w", err)
	}
	return id, nil
}

// RecordOutputs stores the files a build wrote and reports how many differ
// from what the previous build left in the same dist dir.
func (m *Manifest) RecordOutputs(buildID, distDir string, outs []Output) (int, error) {
	tx, err := m.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	changed := 0
	for _, o := range outs {
		var prev string
		err := tx.QueryRow(`SELECT sha256 FROM outputs WHERE dist_dir = ? AND path = ?`, distDir, o.Path).Scan(&prev)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			changed++
		case err != nil:
			return 0, err
		case prev != o.SHA256:
			changed++
		}

		_, err = tx.Exec(`INSERT OR REPLACE INTO outputs (dist_dir, path, sha256, size_bytes, build_id)
			VALUES (?, ?, ?, ?, ?)`, distDir, o.Path, o.SHA256, o.SizeBytes, buildID)
		if err != nil {
			return 0, err
		}
	}

	return changed, tx.Commit()
}

// FinishBuild stamps a build run with its totals.
func (m *Manifest) FinishBuild(buildID string, pages, skipped, changed int) error {
	_, err := m.db.Exec(`UPDATE builds SET finished_at = ?, pages = ?, skipped = ?, changed = ? WHERE build_id = ?`,
		time.Now().UTC().Format(timeLayout), pages, skipped, changed, buildID)
	return err
}

// LastBuild returns the most recently started finished build, or nil.
func (m *Manifest) LastBuild() (*BuildRecord, error) {
	var r BuildRecord
	var started, finished string
	err := m.db.QueryRow(`SELECT build_id, data_dir, dist_dir, started_at, finished_at, pages, skipped, changed
		FROM builds WHERE finished_at IS NOT NULL ORDER BY started_at DESC, rowid DESC LIMIT 1`).
		Scan(&r.ID, &r.DataDir, &r.DistDir, &started, &finished, &r.Pages, &r.Skipped, &r.Changed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.FinishedAt, _ = time.Parse(timeLayout, finished)
	return &r, nil
}

// BuildCount returns the number of recorded builds.
func (m *Manifest) BuildCount() (int, error) {
	var n int
	err := m.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&n)
	return n, err
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked inputs.
func (m *Manifest) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := m.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// ReplaceTrackedFiles swaps the tracked input set for files.
func (m *Manifest) ReplaceTrackedFiles(files map[string]FileInfo) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM file_tracker"); err != nil {
		return err
	}
	for path, fi := range files {
		_, err = tx.Exec(`INSERT INTO file_tracker (file_path, mtime_ns, size_bytes) VALUES (?, ?, ?)`,
			path, fi.MtimeNs, fi.SizeBytes)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Dir returns the platform-appropriate cache directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "taxgame")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "taxgame")
}

// Path returns the full path to the manifest database.
func Path() string {
	return filepath.Join(Dir(), "manifest.db")
}
