package db

import (
	"adaudit/internal/config"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	testDSN   = "file:adaudit-test?mode=memory&cache=shared"
	memoryDSN = "file:adaudit?mode=memory&cache=shared"
)

var (
	isTesting bool
)

func SetTesting(state bool) {
	isTesting = state
}

func initializeDatabase(opts ...Option) (db *sql.DB, err error) {
	options := &dbOptions{isTesting: isTesting}
	for _, opt := range opts {
		opt(options)
	}

	dsn := config.GetConfig().Database.Path
	if options.GetIsTesting() {
		dsn = testDSN
	} else if options.GetInMemory() {
		dsn = memoryDSN
	}

	db, err = sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// modernc sqlite serializes writes itself; a single writer connection
	// avoids SQLITE_BUSY on concurrent handler writes.
	db.SetMaxOpenConns(1)

	if err := initDB(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return db, nil
}

// EnsureDBSchemaExists creates the schema on demand, mainly for tests that
// open their own connections.
func EnsureDBSchemaExists(opts ...Option) error {
	conn, err := GetDB(opts...)
	if err != nil {
		return err
	}
	return initDB(conn)
}

func initDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ad_accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			platform TEXT NOT NULL,
			external_id TEXT NOT NULL,
			connected_at DATETIME NOT NULL,
			UNIQUE (platform, external_id)
		);

		CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			is_cancelled INTEGER NOT NULL,
			accounts_total INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			cancelled INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
