package store

import (
	"context"
	"strings"
)

// RecentLimit caps how many distinct blessings a listing returns.
const RecentLimit = 100

// BlessingStore handles blessing persistence.
type BlessingStore interface {
	// Append persists a blessing with a server-assigned timestamp.
	Append(ctx context.Context, content string) error

	// ListRecentDistinct returns up to limit distinct contents, newest first.
	// Duplicates collapse to one entry ordered by their latest timestamp.
	ListRecentDistinct(ctx context.Context, limit int) ([]string, error)

	// Close closes the underlying database connection.
	Close() error
}

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// InferDriver guesses the database driver from a connection string.
func InferDriver(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return DriverMySQL
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), lower == ":memory:":
		return DriverSQLite
	default:
		return ""
	}
}

// NormalizeDriver maps driver aliases onto the names above.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return DriverMySQL
	case "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return ""
	}
}
