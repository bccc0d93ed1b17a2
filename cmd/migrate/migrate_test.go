package migrate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneURLWithQuery(t *testing.T) {
	u, err := url.Parse("postgres://localhost:5432/tokensale?sslmode=disable")
	require.NoError(t, err)

	clone := cloneURLWithQuery(u, url.Values{"x-migrations-table": {"tokensale_schema_migrations"}})
	assert.Equal(t, "disable", clone.Query().Get("sslmode"))
	assert.Equal(t, "tokensale_schema_migrations", clone.Query().Get("x-migrations-table"))
	assert.Empty(t, u.Query().Get("x-migrations-table"))
}

func TestNewMigrateInvalidOptions(t *testing.T) {
	testCases := []struct {
		name string
		opts migrateCmdOptions
	}{
		{name: "missing_database", opts: migrateCmdOptions{}},
		{name: "unsupported_driver", opts: migrateCmdOptions{DatabaseURL: "mysql://localhost:3306/tokensale"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newMigrate(&tc.opts)
			assert.Error(t, err)
		})
	}
}
