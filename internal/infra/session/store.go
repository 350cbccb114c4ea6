// Package session persists the signed-in principal across restarts.
// The layout is exactly one record: the JSON-serialized principal keyed
// under a well-known identifier, cleared on logout.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/storefront-bff-go/internal/domain"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// currentKey is the well-known identifier of the single session record.
const currentKey = "current"

// Store is a sqlite-backed session store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the session database at path and ensures the
// schema exists.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// A single local file serving one record needs exactly one connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS session (
		key        TEXT PRIMARY KEY,
		principal  TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Load returns the persisted principal, or nil when no one is signed in.
func (s *Store) Load(ctx context.Context) (*domain.Principal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT principal FROM session WHERE key = ?`, currentKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var p domain.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// A corrupt record is treated as signed-out rather than wedging
		// every request; the next login overwrites it.
		s.logger.Warn("session: discarding corrupt principal record", zap.Error(err))
		return nil, nil
	}
	return &p, nil
}

// Save upserts the single principal record.
func (s *Store) Save(ctx context.Context, p *domain.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session (key, principal, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET principal = excluded.principal, updated_at = excluded.updated_at`,
		currentKey, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the principal record. Deleting an absent record is not an
// error.
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session WHERE key = ?`, currentKey,
	); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
