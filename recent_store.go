package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const recentListLimit = 20

type recentEntry struct {
	Path     string
	Label    string
	OpenedAt time.Time
}

type recentStore struct {
	db   *sql.DB
	path string
}

func openRecentStore() (*recentStore, error) {
	dir := resolveConfigDir()
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	sqlitePath := filepath.Join(dir, "recent.sqlite")
	db, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := migrateRecentStore(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &recentStore{db: db, path: sqlitePath}, nil
}

func migrateRecentStore(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS recent_notebooks (
			path TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			opened_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("recent store migration failed: %w", err)
		}
	}
	return nil
}

func (s *recentStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Touch records that path was opened now, inserting or refreshing its row.
func (s *recentStore) Touch(path string) error {
	if s == nil || s.db == nil {
		return nil
	}
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "" {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO recent_notebooks (path, label, opened_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET label = excluded.label, opened_at = CURRENT_TIMESTAMP`,
		clean, filepath.Base(clean))
	return err
}

func (s *recentStore) List() ([]recentEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT path, COALESCE(NULLIF(label, ''), path), opened_at
		FROM recent_notebooks ORDER BY opened_at DESC LIMIT ?`, recentListLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []recentEntry
	for rows.Next() {
		var (
			path   string
			label  string
			opened string
		)
		if err := rows.Scan(&path, &label, &opened); err != nil {
			return nil, err
		}
		clean := filepath.Clean(path)
		if clean == "" {
			continue
		}
		openedAt, _ := time.Parse("2006-01-02 15:04:05", opened)
		entries = append(entries, recentEntry{Path: clean, Label: label, OpenedAt: openedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *recentStore) Remove(path string) error {
	if s == nil || s.db == nil {
		return nil
	}
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "" {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM recent_notebooks WHERE path = ?`, clean)
	return err
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
