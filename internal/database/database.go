package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"pos_backoffice/internal/config"
	"pos_backoffice/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Open connects to PostgreSQL and verifies the connection. When a schema path
// is configured the schema script is applied right after connecting.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"host": cfg.Host, "db": cfg.Name})

	if err := ApplySchema(ctx, db, cfg.SchemaPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ApplySchema reads and executes the schema script. The script is written to
// be idempotent, so it is safe to run on every start.
func ApplySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	if schemaPath == "" {
		utils.LogInfo("No schema path provided, skipping schema application")
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"path": schemaPath})
	return nil
}
