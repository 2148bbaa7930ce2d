// Package db opens the catalog database for the configured backend.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahti-platform/ahti/internal/config"
)

// Open connects to the database selected by the settings.
func Open(s config.DatabaseSettings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.Driver {
	case "postgres":
		dialector = postgres.Open(s.DSN)
	case "mysql":
		dialector = mysql.Open(s.DSN)
	case "sqlite":
		dialector = sqlite.Open(s.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", s.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", s.Driver, err)
	}
	return gdb, nil
}
