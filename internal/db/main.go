package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	db    *sql.DB
	once  sync.Once
	dbErr error
)

func GetDB(opts ...Option) (*sql.DB, error) {
	once.Do(func() {
		db, dbErr = initializeDatabase(opts...)
		if dbErr != nil {
			dbErr = fmt.Errorf("failed to initialize database connection: %w", dbErr)
			return
		}
		log.Info().Msg("Database connection initialized")
	})
	return db, dbErr
}

func DeferClose() {
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}
