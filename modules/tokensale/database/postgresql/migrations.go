// Package postgresql holds the schema migrations of the token sale tables.
package postgresql

import (
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable is the golang-migrate version table of the module.
const MigrationsTable = "tokensale_schema_migrations"

// Source returns the embedded migrations as a golang-migrate source.
func Source() (source.Driver, error) {
	driver, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embedded migrations")
	}
	return driver, nil
}
