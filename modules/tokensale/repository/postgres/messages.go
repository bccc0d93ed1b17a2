package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
)

const (
	isMessageConsumedQuery  = `SELECT EXISTS (SELECT 1 FROM tokensale_consumed_messages WHERE role = $1 AND digest = $2)`
	addConsumedMessageQuery = `INSERT INTO tokensale_consumed_messages (role, digest) VALUES ($1, $2)`
)

func (r *Repository) IsMessageConsumed(ctx context.Context, digest [32]byte) (bool, error) {
	var consumed bool
	if err := r.queryable().QueryRow(ctx, isMessageConsumedQuery, string(r.role), digest[:]).Scan(&consumed); err != nil {
		return false, errors.Wrap(err, "error during query")
	}
	return consumed, nil
}

func (r *Repository) AddConsumedMessage(ctx context.Context, digest [32]byte) error {
	if _, err := r.queryable().Exec(ctx, addConsumedMessageQuery, string(r.role), digest[:]); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}
