package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"conia-sync/internal/database"
	"conia-sync/internal/database/migrations"
)

// Migrates an in-memory database and dumps the resulting schema into
// internal/database/schema.go, so tests and tools always see the schema the
// migrations actually produce.
func main() {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrating: %v\n", err)
		os.Exit(1)
	}

	schema, err := extractSchema(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extracting schema: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join("internal", "database", "schema.go")
	if err := os.WriteFile(outPath, []byte(renderGoFile(schema)), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "writing %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", outPath)
}

// extractSchema reads every CREATE statement from sqlite_master, skipping
// SQLite internals and the migration tracking table. Tables come before
// indexes, each group sorted by name.
func extractSchema(db *sql.DB) (string, error) {
	query := `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'schema_migrations'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name
	`

	rows, err := db.Query(query)
	if err != nil {
		return "", fmt.Errorf("querying sqlite_master: %w", err)
	}
	defer rows.Close()

	var schema string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scanning: %w", err)
		}
		schema += stmt + "\n\n"
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return schema, nil
}

func renderGoFile(schema string) string {
	// Trim the trailing blank line so the raw string closes cleanly.
	if len(schema) > 0 && schema[len(schema)-1] == '\n' {
		schema = schema[:len(schema)-1]
	}
	return `// Code generated by tools/generate_schema.go from migration files. DO NOT EDIT.
// Source: internal/database/migrations/files/*.sql

package database

// Schema is the full schema at the latest migration version, as dumped from
// sqlite_master of a freshly migrated database. Tests apply it directly to
// skip the migration machinery.
const Schema = ` + "`" + schema + "`" + "\n"
}
