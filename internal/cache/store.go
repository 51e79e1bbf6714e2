// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps provider search responses in SQLite so repeated
// queries within a TTL skip the network.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/reason-search/pkg/types"
)

const defaultTTL = time.Hour

// Store is a TTL cache of search responses keyed by provider, query and
// request options.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the cache database. An empty cfg.Path keeps the
// database in memory.
func Open(cfg types.CacheConfig) (*Store, error) {
	dsn := ":memory:"
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		dsn = cfg.Path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responses (
			key TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			query TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_expires_at ON responses(expires_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Key derives the cache key for a provider call. Options are folded in as
// JSON so that different result limits or topics never share an entry.
func Key(provider, query string, opts any) (string, error) {
	optJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encoding cache options: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write(optJSON)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached response for key. The boolean is false on a miss
// or when the entry has expired.
func (s *Store) Get(ctx context.Context, key string) (types.SearchResponse, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM responses WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SearchResponse{}, false, nil
	}
	if err != nil {
		return types.SearchResponse{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var resp types.SearchResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return types.SearchResponse{}, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	return resp, true, nil
}

// Put stores resp under key, replacing any earlier entry.
func (s *Store) Put(ctx context.Context, key, provider, query string, resp types.SearchResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses (key, provider, query, body, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key, provider, query, string(body), now.UnixNano(), now.Add(s.ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired entries and reports how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries  int            `json:"entries" yaml:"entries"`
	Expired  int            `json:"expired" yaml:"expired"`
	Provider map[string]int `json:"by_provider" yaml:"by_provider"`
}

// Stats counts live entries per provider and expired entries overall.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Provider: make(map[string]int)}
	now := s.now().UnixNano()

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM responses WHERE expires_at <= ?`, now,
	).Scan(&st.Expired); err != nil {
		return st, fmt.Errorf("counting expired entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, COUNT(*) FROM responses WHERE expires_at > ? GROUP BY provider`, now)
	if err != nil {
		return st, fmt.Errorf("counting entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var provider string
		var n int
		if err := rows.Scan(&provider, &n); err != nil {
			return st, fmt.Errorf("scanning entry count: %w", err)
		}
		st.Provider[provider] = n
		st.Entries += n
	}
	return st, rows.Err()
}
