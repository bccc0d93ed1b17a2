package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const (
	getEmitterQuery  = `SELECT chain_id, emitter_address FROM tokensale_registered_emitters WHERE chain_id = $1`
	getEmittersQuery = `SELECT chain_id, emitter_address FROM tokensale_registered_emitters ORDER BY chain_id`

	setEmitterQuery = `INSERT INTO tokensale_registered_emitters (chain_id, emitter_address) VALUES ($1, $2)
	ON CONFLICT (chain_id) DO UPDATE SET emitter_address = EXCLUDED.emitter_address, updated_at = NOW()`

	nextSaleCounterQuery = `UPDATE tokensale_counters SET value = value + 1 WHERE name = 'sale' RETURNING value`
)

type emitterRow struct {
	ChainID        int32  `db:"chain_id"`
	EmitterAddress []byte `db:"emitter_address"`
}

func (e emitterRow) toEntity() (entity.RegisteredEmitter, error) {
	addr, err := decodeUniversal(e.EmitterAddress)
	if err != nil {
		return entity.RegisteredEmitter{}, errors.Wrapf(err, "emitter of chain %d", e.ChainID)
	}
	return entity.RegisteredEmitter{Chain: common.ChainID(e.ChainID), Address: addr}, nil
}

func (r *Repository) GetRegisteredEmitter(ctx context.Context, chain common.ChainID) (*entity.RegisteredEmitter, error) {
	rows, err := r.queryable().Query(ctx, getEmitterQuery, int32(chain))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[emitterRow])
	if err != nil {
		return nil, mapError(err, "failed to scan registered emitter")
	}
	emitter, err := row.toEntity()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &emitter, nil
}

func (r *Repository) GetRegisteredEmitters(ctx context.Context) ([]entity.RegisteredEmitter, error) {
	rows, err := r.queryable().Query(ctx, getEmittersQuery)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[emitterRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan registered emitters")
	}
	emitters := make([]entity.RegisteredEmitter, 0, len(result))
	for _, row := range result {
		emitter, err := row.toEntity()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		emitters = append(emitters, emitter)
	}
	return emitters, nil
}

func (r *Repository) SetRegisteredEmitter(ctx context.Context, emitter entity.RegisteredEmitter) error {
	if _, err := r.queryable().Exec(ctx, setEmitterQuery, int32(emitter.Chain), emitter.Address[:]); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) NextSaleCounter(ctx context.Context) (uint64, error) {
	var next int64
	if err := r.queryable().QueryRow(ctx, nextSaleCounterQuery).Scan(&next); err != nil {
		return 0, errors.Wrap(err, "failed to increment sale counter")
	}
	return uint64(next), nil
}

func (r *Repository) GetConductorSale(ctx context.Context, saleID entity.SaleID) (*entity.ConductorSale, error) {
	rec, err := r.getSale(ctx, saleID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sale, err := toConductorSale(*rec)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return sale, nil
}

func (r *Repository) GetConductorSales(ctx context.Context) ([]entity.ConductorSale, error) {
	recs, err := r.getSales(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sales := make([]entity.ConductorSale, 0, len(recs))
	for _, rec := range recs {
		sale, err := toConductorSale(rec)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

func (r *Repository) CreateConductorSale(ctx context.Context, sale entity.ConductorSale) error {
	return errors.WithStack(r.insertSale(ctx, fromConductorSale(sale)))
}

// UpdateConductorSale persists status, authority, token totals and allocations. Other terms never change.
func (r *Repository) UpdateConductorSale(ctx context.Context, sale entity.ConductorSale) error {
	return errors.WithStack(r.updateSale(ctx, fromConductorSale(sale)))
}

func fromConductorSale(sale entity.ConductorSale) saleRecord {
	allocations := lo.KeyBy(sale.Allocations, func(a entity.Allocation) uint8 { return a.TokenIndex })
	states := lo.KeyBy(sale.Tokens, func(t entity.ConductorTokenState) uint8 { return t.Index })
	return saleRecord{
		Terms:  sale.Terms,
		Status: sale.Status,
		Tokens: lo.Map(sale.Terms.AcceptedTokens, func(token entity.AcceptedToken, _ int) tokenRow {
			row := newTokenRow(token)
			state := states[token.Index]
			row.Contributed = encodeAmount(zeroIfNil(state.Contributed))
			row.Collected = state.Collected
			if a, ok := allocations[token.Index]; ok {
				row.Allocation = encodeAmount(a.Allocation)
				row.ExcessContribution = encodeAmount(a.ExcessContribution)
			}
			return row
		}),
	}
}

func toConductorSale(rec saleRecord) (*entity.ConductorSale, error) {
	sale := &entity.ConductorSale{Terms: rec.Terms, Status: rec.Status}
	for _, row := range rec.Tokens {
		contributed, err := decodeAmount(row.Contributed)
		if err != nil {
			return nil, errors.Wrapf(err, "token %d contributed", row.TokenIndex)
		}
		sale.Tokens = append(sale.Tokens, entity.ConductorTokenState{
			Index:       uint8(row.TokenIndex),
			Contributed: contributed,
			Collected:   row.Collected,
		})
		if row.Allocation == nil {
			continue
		}
		allocation, err := decodeAmount(row.Allocation)
		if err != nil {
			return nil, errors.Wrapf(err, "token %d allocation", row.TokenIndex)
		}
		excess, err := decodeAmount(row.ExcessContribution)
		if err != nil {
			return nil, errors.Wrapf(err, "token %d excess contribution", row.TokenIndex)
		}
		sale.Allocations = append(sale.Allocations, entity.Allocation{
			TokenIndex:         uint8(row.TokenIndex),
			Allocation:         allocation,
			ExcessContribution: excess,
		})
	}
	return sale, nil
}
