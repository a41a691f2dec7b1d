package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS bans (
	username   TEXT PRIMARY KEY,
	banned_by  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admins (
	username   TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store implements store.ModerationStore for SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadBans returns every banned username.
func (s *Store) LoadBans(ctx context.Context) ([]string, error) {
	return s.loadColumn(ctx, `SELECT username FROM bans ORDER BY created_at`)
}

// LoadAdmins returns every username holding admin privilege.
func (s *Store) LoadAdmins(ctx context.Context) ([]string, error) {
	return s.loadColumn(ctx, `SELECT username FROM admins ORDER BY created_at`)
}

func (s *Store) loadColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return names, nil
}

// AddBan records a ban; repeating a username is a no-op.
func (s *Store) AddBan(ctx context.Context, username, bannedBy string) error {
	query := `INSERT INTO bans (username, banned_by) VALUES (?, ?) ON CONFLICT (username) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, username, bannedBy); err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	return nil
}

// AddAdmin records an admin grant; idempotent.
func (s *Store) AddAdmin(ctx context.Context, username string) error {
	query := `INSERT INTO admins (username) VALUES (?) ON CONFLICT (username) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}
