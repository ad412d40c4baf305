package genrecache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS genre (
	key    TEXT PRIMARY KEY,
	absent INTEGER NOT NULL DEFAULT 0,
	title  TEXT NOT NULL DEFAULT '',
	url    TEXT NOT NULL DEFAULT ''
)`

type sqliteStore struct {
	db *sql.DB
}

func openSQLite(path string) (Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// one connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(key string) (*Entry, error) {
	var (
		absent     bool
		title, url string
	)
	err := s.db.QueryRow(`SELECT absent, title, url FROM genre WHERE key = ?`, key).
		Scan(&absent, &title, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if absent {
		return nil, nil
	}

	return &Entry{Title: title, URL: url}, nil
}

func (s *sqliteStore) Set(key string, e *Entry) error {
	absent, title, url := true, "", ""
	if e != nil {
		absent, title, url = false, e.Title, e.URL
	}

	_, err := s.db.Exec(`
		INSERT INTO genre (key, absent, title, url) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET absent = excluded.absent, title = excluded.title, url = excluded.url`,
		key, absent, title, url)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (s *sqliteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM genre`)
	return err
}

func (s *sqliteStore) Each(fn func(key string, e *Entry) error) error {
	rows, err := s.db.Query(`SELECT key, absent, title, url FROM genre ORDER BY key`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type row struct {
		key string
		e   *Entry
	}
	// drain first so fn may call back into the store on the single connection
	var all []row
	for rows.Next() {
		var (
			key, title, url string
			absent          bool
		)
		if err := rows.Scan(&key, &absent, &title, &url); err != nil {
			return err
		}
		r := row{key: key}
		if !absent {
			r.e = &Entry{Title: title, URL: url}
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, r := range all {
		if err := fn(r.key, r.e); err != nil {
			return err
		}
	}

	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
