package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/jwy87/kaoyan/internal/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS blessings (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		content    TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_blessings_content ON blessings(content, created_at);
`

// SQLiteStore implements store.BlessingStore for SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	mu    sync.Mutex
	ready bool
}

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file, optionally prefixed with sqlite://.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, nil)
}

// NewWithSetup creates a new SQLite store and runs a setup function before
// the schema is ensured. Useful for tests that seed rows directly.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

func dsn(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite://")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ensureSchema creates the blessings table once per store.
func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	s.ready = true
	return nil
}

// Append inserts a blessing stamped with the current UTC time.
func (s *SQLiteStore) Append(ctx context.Context, content string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	query := `
		INSERT INTO blessings (content, created_at)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, content, s.now().UTC()); err != nil {
		return fmt.Errorf("insert blessing: %w", err)
	}
	return nil
}

// ListRecentDistinct returns the newest distinct contents.
func (s *SQLiteStore) ListRecentDistinct(ctx context.Context, limit int) ([]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > store.RecentLimit {
		limit = store.RecentLimit
	}

	query := `
		SELECT content
		FROM blessings
		GROUP BY content
		ORDER BY MAX(created_at) DESC, MAX(id) DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query blessings: %w", err)
	}
	defer rows.Close()

	contents := make([]string, 0, limit)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan blessing: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blessings: %w", err)
	}

	return contents, nil
}
