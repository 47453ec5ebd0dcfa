// Package db opens GORM connections for the raid history store.
package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/fireteam/internal/config"
)

// Open connects to the history database described by the storage config.
func Open(cfg config.StorageConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "mysql":
		return ConnectMySQL(cfg.Host, cfg.Port, cfg.Database)
	default:
		return ConnectSQLite(cfg.Path)
	}
}

// ConnectSQLite opens a GORM connection to a SQLite database file.
// Use ":memory:" for an ephemeral database.
func ConnectSQLite(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s: %w", path, err)
	}
	return gdb, nil
}

// DSN builds a MySQL DSN.
func DSN(host string, port int, database string) string {
	return fmt.Sprintf("root@tcp(%s:%d)/%s?parseTime=true", host, port, database)
}

// ConnectMySQL opens a GORM connection to a MySQL database.
func ConnectMySQL(host string, port int, database string) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(DSN(host, port, database)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", host, port, database, err)
	}
	return gdb, nil
}
