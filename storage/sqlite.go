package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore keeps entries in a single SQLite table. The pure-Go
// driver makes it a zero-dependency persistent backend that survives
// restarts without needing a cache directory layout.
//
// A write mutex serializes Put and Delete; SQLite's WAL mode keeps
// readers from blocking on writers.
type SQLiteStore struct {
	db         *sql.DB
	writeMutex sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at filename. An empty
// filename opens a shared in-memory database.
func NewSQLiteStore(filename string) (*SQLiteStore, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite db: %w", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			bytes BLOB
		)`,
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: init sqlite db: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT bytes FROM entries WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: sqlite get: %w", err)
	}
	entry, err := Decode(data)
	if err != nil {
		// A row we cannot decode is as good as missing.
		s.Delete(ctx, key)
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, entry *Entry) error {
	data, err := Encode(entry)
	if err != nil {
		return fmt.Errorf("storage: encode entry: %w", err)
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO entries (key, bytes) VALUES (?, ?)", key, data)
	if err != nil {
		return fmt.Errorf("storage: sqlite put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("storage: sqlite delete: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Scan(ctx context.Context, prefix string, fn func(entry *Entry) bool) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT bytes FROM entries WHERE key LIKE ? ESCAPE '\\'", likePattern(prefix))
	if err != nil {
		return fmt.Errorf("storage: sqlite scan: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("storage: sqlite scan row: %w", err)
		}
		entry, err := Decode(data)
		if err != nil {
			continue
		}
		if !fn(entry) {
			return nil
		}
	}
	return rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// likePattern turns a literal key prefix into a LIKE pattern, escaping
// the LIKE metacharacters that may occur in URLs (%, _).
func likePattern(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+8)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "%"
}
