// Package migrations embeds the schema and runs it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var FS embed.FS

const dir = "sql"

// Commands accepted by Run.
var Commands = []string{"up", "down", "status", "version", "redo", "reset", "up-to", "down-to"}

var ErrUnknownCommand = errors.New("unknown migrate command")

// gooseRun is swapped in tests.
var gooseRun = goose.RunContext

// Open connects through lib/pq, the driver goose's postgres dialect expects.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Run executes one goose command against db using the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	known := false
	for _, c := range Commands {
		if c == command {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w %q", ErrUnknownCommand, command)
	}
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRun(ctx, command, db, dir, args...)
}
