package sqlkit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	// Database file path; use ":memory:" for an in-memory database.
	Path string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SQLite pragmas
	BusyTimeout time.Duration
	JournalMode string // WAL, DELETE, TRUNCATE, PERSIST, MEMORY, OFF
	Synchronous string // FULL, NORMAL, OFF
}

// DefaultSQLiteConfig returns a default SQLite configuration.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:            ":memory:",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
	}
}

// NewSQLitePool creates a pool backed by an embedded SQLite database.
func NewSQLitePool(ctx context.Context, configs ...SQLiteConfig) (*Pool, error) {
	var config SQLiteConfig
	if len(configs) > 0 {
		config = configs[0]
	} else {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite", buildSQLiteDSN(config))
	if err != nil {
		return nil, fmt.Errorf("open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping SQLite database: %w", err)
	}
	return newPoolFromDB(db), nil
}

// buildSQLiteDSN builds a SQLite DSN with _pragma query parameters as the
// modernc driver expects them.
func buildSQLiteDSN(config SQLiteConfig) string {
	var pragmas []string
	if config.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
	}
	if config.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_mode(%s)", config.JournalMode))
	}
	if config.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=synchronous(%s)", config.Synchronous))
	}
	pragmas = append(pragmas, "_pragma=foreign_keys(1)")

	dsn := config.Path
	if len(pragmas) > 0 {
		dsn += "?" + strings.Join(pragmas, "&")
	}
	return dsn
}

// NewSQLiteTestPool creates a file-backed SQLite pool for tests. A file (not
// :memory:) keeps every pooled connection on the same database, which the
// session/transaction tests rely on.
func NewSQLiteTestPool(ctx context.Context, path string) (*Pool, error) {
	config := SQLiteConfig{
		Path:            path,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		BusyTimeout:     time.Second,
		JournalMode:     "WAL",
		Synchronous:     "OFF",
	}
	return NewSQLitePool(ctx, config)
}
