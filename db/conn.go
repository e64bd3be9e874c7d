// Package db opens the database connection backing attachment records
package db

import (
	"fmt"

	v "github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens the configured database and migrates the given models.
func New(models ...any) (*gorm.DB, error) {
	var (
		conn *gorm.DB
		err  error
		dsn  = v.GetString("db.dsn")
	)

	switch driver := v.GetString("db.driver"); driver {
	case "postgres":
		conn, err = gorm.Open(postgres.Open(dsn))
	case "sqlite":
		conn, err = gorm.Open(sqlite.Open(dsn))
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	if len(models) > 0 {
		if err := conn.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to automigrate tables, %w", err)
		}
	}

	return conn, nil
}
