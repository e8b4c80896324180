package database

import (
	"fmt"

	"github.com/bellalabs/bellaprep/internal/common/config"
)

// NewDatabase creates a Database based on the configured driver type.
func NewDatabase(cfg *config.DatabaseConfig) (Database, error) {
	switch cfg.Type {
	case "postgres":
		return NewPostgres(cfg)
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
