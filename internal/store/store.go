package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Container format version, tracked in PRAGMA user_version.
const formatVersion = 1

// File is an open container file: a hierarchical layout of groups,
// datasets and attributes persisted in a single SQLite database.
type File struct {
	db   *sql.DB
	path string
}

// Create creates a fresh container at path, replacing any existing file.
// The caller owns the handle and must Close it on every exit path.
func Create(path string) (*File, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("create container: %w", err)
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.db.Exec(schemaSQL); err != nil {
		f.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := f.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", formatVersion)); err != nil {
		f.Close()
		return nil, fmt.Errorf("set format version: %w", err)
	}
	return f, nil
}

// Open opens an existing container for reading.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}

	var version int
	if err := f.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		f.Close()
		return nil, fmt.Errorf("get format version: %w", err)
	}
	if version != formatVersion {
		f.Close()
		return nil, fmt.Errorf("unsupported container format version %d (want %d)", version, formatVersion)
	}
	return f, nil
}

func open(path string) (*File, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY during writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return &File{db: db, path: path}, nil
}

// Close releases the database handle. Safe to call twice.
func (f *File) Close() error {
	if f.db == nil {
		return nil
	}
	db := f.db
	f.db = nil
	return db.Close()
}

// Path returns the filesystem path of the container.
func (f *File) Path() string { return f.path }

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
