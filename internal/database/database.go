package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database stores fold artifacts in a SQLite file. The raw connection is shared with gorm.
type Database struct {
	db   *sql.DB
	gorm *gorm.DB
}

// NewDatabase opens the SQLite file at dbPath, creating its directory unless the path is
// ":memory:", and enables foreign keys.
func NewDatabase(dbPath string) (*Database, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Dialector{Conn: db}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return &Database{db: db, gorm: gdb}, nil
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.db.Close()
}
