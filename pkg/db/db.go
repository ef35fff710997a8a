package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape. An existing
// database with a different version is refused rather than mis-read.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created with a different
// schema version than this build expects.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Open opens the SQLite database at path with foreign key enforcement
// enabled, so word→video→frame→landmark cascades actually apply.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return conn, nil
}

// InitDB creates the schema on a fresh database or verifies the schema
// version on an existing one.
func InitDB(db *sql.DB) error {
	var tableExists int
	err := db.QueryRow(
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return createSchema(db)
	}

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
