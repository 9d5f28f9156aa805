package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/errors"
	_ "modernc.org/sqlite"
)

// FileName is the database file created under the base directory.
const FileName = "hamper.db"

// Init initializes the SQLite database at baseDir/hamper.db and migrates it
// to CurrentSchemaVersion. Any failure is reported as STORAGE_UNAVAILABLE so
// callers can fall back to InitMemory for a session-only store.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.hamper.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.NewStorageUnavailable(fmt.Errorf("create base directory: %w", err))
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, FileName)
	db, err := open(dbPath)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, errors.NewStorageUnavailable(err)
	}

	if err := Migrate(context.Background(), db, CurrentSchemaVersion); err != nil {
		db.Close()
		return nil, errors.NewStorageUnavailable(err)
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// InitMemory opens a migrated in-memory database. Nothing survives Close.
// A single connection is used since every :memory: connection is its own database.
func InitMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(context.Background(), db, CurrentSchemaVersion); err != nil {
		db.Close()
		return nil, errors.NewStorageUnavailable(err)
	}
	return db, nil
}

// open opens the file with pragmas in the connection string (applies to all connections).
func open(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
