package migrate

import (
	"fmt"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/database/postgresql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrateCmdOptions struct {
	DatabaseURL string
	Source      string
}

func cloneURLWithQuery(u *url.URL, newQuery url.Values) *url.URL {
	clone := *u
	query := clone.Query()
	for key, values := range newQuery {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	clone.RawQuery = query.Encode()
	return &clone
}

var supportedDrivers = map[string]struct{}{
	"postgres":   {},
	"postgresql": {},
}

// newMigrate opens the token sale migrations against the database of opts.
// The embedded migrations are used unless a source directory is given.
func newMigrate(opts *migrateCmdOptions) (*migrate.Migrate, error) {
	if opts.DatabaseURL == "" {
		return nil, errors.New("--database is required")
	}
	databaseURL, err := url.Parse(opts.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}
	if _, ok := supportedDrivers[databaseURL.Scheme]; !ok {
		return nil, errors.Errorf("unsupported database driver: %s", databaseURL.Scheme)
	}
	newDatabaseURL := cloneURLWithQuery(databaseURL, url.Values{"x-migrations-table": {postgresql.MigrationsTable}})

	var m *migrate.Migrate
	if opts.Source != "" {
		m, err = migrate.New("file://"+opts.Source, newDatabaseURL.String())
	} else {
		src, srcErr := postgresql.Source()
		if srcErr != nil {
			return nil, errors.WithStack(srcErr)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, newDatabaseURL.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Migrate instance")
	}
	m.Log = &consoleLogger{
		prefix: fmt.Sprintf("[%s] ", "TokenSale"),
	}
	return m, nil
}
