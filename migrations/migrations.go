// Package migrations embeds the goose migrations for every supported store driver.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dialect is a goose dialect name paired with its migrations directory.
type Dialect struct {
	Name string
	Dir  string
}

var (
	Postgres = Dialect{Name: "postgres", Dir: "postgres"}
	SQLite   = Dialect{Name: "sqlite3", Dir: "sqlite"}
)

// Up applies every pending migration for the dialect.
func Up(db *sql.DB, d Dialect) error {
	goose.SetBaseFS(FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.Name); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, d.Dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
