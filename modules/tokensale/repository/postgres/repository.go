// Package postgres stores the token sale state in PostgreSQL. Rows of the sales
// and consumed message tables are scoped by role so both state machines may
// share one database.
package postgres

import (
	"context"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/internal/postgres"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/jackc/pgx/v5"
)

var (
	_ datagateway.ConductorDataGateway   = (*Repository)(nil)
	_ datagateway.ContributorDataGateway = (*Repository)(nil)
)

type Repository struct {
	db   postgres.DB
	role common.Role
	tx   pgx.Tx
}

func NewRepository(db postgres.DB, role common.Role) *Repository {
	return &Repository{
		db:   db,
		role: role,
	}
}

type queryer interface {
	postgres.Queryable
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// queryable returns the current transaction, or the pool outside a transaction.
func (r *Repository) queryable() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
