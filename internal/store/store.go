// Package store keeps client-side state (login sessions and per-resource
// view preferences) in a local SQLite database.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Session is a bearer token issued by a server
type Session struct {
	Server    string
	Username  string
	Token     string
	CreatedAt time.Time
}

// ViewPref is the remembered ordering of a resource table
type ViewPref struct {
	Resource string
	OrderBy  string
	Sort     string
}

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and runs migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pragmas (must be done outside of transactions)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	// Suppress goose logging
	goose.SetLogger(goose.NopLogger())

	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession stores the session for its server, replacing any previous one
func (s *Store) SaveSession(sess Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions (server, username, token, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			username = excluded.username,
			token = excluded.token,
			created_at = excluded.created_at
	`, sess.Server, sess.Username, sess.Token, sess.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// LoadSession returns the session for server, or nil if there is none
func (s *Store) LoadSession(server string) (*Session, error) {
	var (
		sess         Session
		createdAtStr string
	)
	err := s.db.QueryRow(`
		SELECT server, username, token, created_at FROM sessions WHERE server = ?
	`, server).Scan(&sess.Server, &sess.Username, &sess.Token, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes the session for server. It reports whether one existed.
func (s *Store) DeleteSession(server string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE server = ?", server)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveViewPref remembers the ordering of a resource table
func (s *Store) SaveViewPref(p ViewPref) error {
	if p.Sort != "asc" && p.Sort != "desc" {
		return fmt.Errorf("invalid sort %q", p.Sort)
	}
	_, err := s.db.Exec(`
		INSERT INTO view_prefs (resource, order_by, sort, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(resource) DO UPDATE SET
			order_by = excluded.order_by,
			sort = excluded.sort,
			updated_at = excluded.updated_at
	`, p.Resource, p.OrderBy, p.Sort, time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadViewPrefs returns all remembered orderings keyed by resource
func (s *Store) LoadViewPrefs() (map[string]ViewPref, error) {
	rows, err := s.db.Query("SELECT resource, order_by, sort FROM view_prefs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]ViewPref)
	for rows.Next() {
		var p ViewPref
		if err := rows.Scan(&p.Resource, &p.OrderBy, &p.Sort); err != nil {
			return nil, err
		}
		prefs[p.Resource] = p
	}
	return prefs, rows.Err()
}
