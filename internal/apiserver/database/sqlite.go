package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/bellalabs/bellaprep/internal/common/config"
)

// NewSQLite creates a SQLite-backed Database. Used for development and
// tests; DBName is the file path (":memory:" for tests).
func NewSQLite(cfg *config.DatabaseConfig) (Database, error) {
	gormDB, err := gorm.Open(sqlite.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStore(gormDB)
}
