// Package registry keeps a local sqlite index of saved keystore files:
// where they live, which address they hold, and how many consecutive
// failed unlock attempts each has accumulated. The keystore file itself is
// always the source of truth; a missing registry row never blocks a load.
package registry

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Entry is one indexed keystore file.
type Entry struct {
	ID             string
	Path           string
	Alias          string
	Address        string
	Network        string
	CreatedAt      time.Time
	FailedAttempts int
}

// Store wraps the sqlite connection.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the registry database and runs
// pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Record upserts the index row for a saved keystore file.
func (s *Store) Record(ctx context.Context, path, alias, address, network string) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Path:      path,
		Alias:     alias,
		Address:   address,
		Network:   network,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO keystores (id, path, alias, address, network, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			alias = excluded.alias,
			address = excluded.address,
			network = excluded.network,
			failed_attempts = 0`,
		entry.ID, entry.Path, entry.Alias, entry.Address, entry.Network, entry.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording keystore: %w", err)
	}
	return entry, nil
}

// Get returns the entry for a keystore path, or ok=false when unindexed.
func (s *Store) Get(ctx context.Context, path string) (Entry, bool, error) {
	var e Entry
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, path, alias, address, network, created_at, failed_attempts
		FROM keystores WHERE path = ?`, path,
	).Scan(&e.ID, &e.Path, &e.Alias, &e.Address, &e.Network, &e.CreatedAt, &e.FailedAttempts)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying keystore: %w", err)
	}
	return e, true, nil
}

// List returns all indexed keystores, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, path, alias, address, network, created_at, failed_attempts
		FROM keystores ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing keystores: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Path, &e.Alias, &e.Address, &e.Network, &e.CreatedAt, &e.FailedAttempts); err != nil {
			return nil, fmt.Errorf("scanning keystore row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordFailedUnlock bumps the attempt counter for a keystore and returns
// the new count. Paths never saved through this registry get a row created
// on first failure so lockout still applies.
func (s *Store) RecordFailedUnlock(ctx context.Context, path string) (int, error) {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO keystores (id, path, alias, address, network, failed_attempts)
		VALUES (?, ?, '', '', '', 1)
		ON CONFLICT(path) DO UPDATE SET failed_attempts = failed_attempts + 1`,
		uuid.NewString(), path,
	)
	if err != nil {
		return 0, fmt.Errorf("recording failed unlock: %w", err)
	}

	var attempts int
	err = s.conn.QueryRowContext(ctx,
		"SELECT failed_attempts FROM keystores WHERE path = ?", path,
	).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("reading attempt counter: %w", err)
	}
	return attempts, nil
}

// ResetUnlockAttempts clears the counter after a successful unlock.
func (s *Store) ResetUnlockAttempts(ctx context.Context, path string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE keystores SET failed_attempts = 0 WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("resetting attempt counter: %w", err)
	}
	return nil
}

// Remove drops the index row for a deleted keystore file.
func (s *Store) Remove(ctx context.Context, path string) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM keystores WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("removing keystore row: %w", err)
	}
	return nil
}
