package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const (
	contributionColumns = `sale_id, token_index, buyer, amount, allocation_claimed, refund_claimed, excess_claimed`

	getContributionQuery = `SELECT ` + contributionColumns + ` FROM tokensale_contributions
	WHERE sale_id = $1 AND token_index = $2 AND buyer = $3`

	getContributionsQuery = `SELECT ` + contributionColumns + ` FROM tokensale_contributions
	WHERE sale_id = $1 ORDER BY token_index, buyer`

	setContributionQuery = `INSERT INTO tokensale_contributions (` + contributionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (sale_id, token_index, buyer) DO UPDATE SET
		amount = EXCLUDED.amount,
		allocation_claimed = EXCLUDED.allocation_claimed,
		refund_claimed = EXCLUDED.refund_claimed,
		excess_claimed = EXCLUDED.excess_claimed,
		updated_at = NOW()`
)

type contributionRow struct {
	SaleID            []byte `db:"sale_id"`
	TokenIndex        int16  `db:"token_index"`
	Buyer             []byte `db:"buyer"`
	Amount            []byte `db:"amount"`
	AllocationClaimed bool   `db:"allocation_claimed"`
	RefundClaimed     bool   `db:"refund_claimed"`
	ExcessClaimed     bool   `db:"excess_claimed"`
}

func (c contributionRow) toEntity() (entity.Contribution, error) {
	var (
		result = entity.Contribution{
			TokenIndex:        uint8(c.TokenIndex),
			AllocationClaimed: c.AllocationClaimed,
			RefundClaimed:     c.RefundClaimed,
			ExcessClaimed:     c.ExcessClaimed,
		}
		err error
	)
	if result.SaleID, err = decodeSaleID(c.SaleID); err != nil {
		return result, errors.WithStack(err)
	}
	if result.Buyer, err = decodeUniversal(c.Buyer); err != nil {
		return result, errors.Wrap(err, "buyer")
	}
	if result.Amount, err = decodeAmount(c.Amount); err != nil {
		return result, errors.Wrap(err, "amount")
	}
	return result, nil
}

func (r *Repository) GetContributorSale(ctx context.Context, saleID entity.SaleID) (*entity.ContributorSale, error) {
	rec, err := r.getSale(ctx, saleID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sale, err := toContributorSale(*rec)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return sale, nil
}

func (r *Repository) GetContributorSales(ctx context.Context) ([]entity.ContributorSale, error) {
	recs, err := r.getSales(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sales := make([]entity.ContributorSale, 0, len(recs))
	for _, rec := range recs {
		sale, err := toContributorSale(rec)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

func (r *Repository) CreateContributorSale(ctx context.Context, sale entity.ContributorSale) error {
	return errors.WithStack(r.insertSale(ctx, fromContributorSale(sale)))
}

func (r *Repository) UpdateContributorSale(ctx context.Context, sale entity.ContributorSale) error {
	return errors.WithStack(r.updateSale(ctx, fromContributorSale(sale)))
}

func (r *Repository) GetContribution(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal) (*entity.Contribution, error) {
	rows, err := r.queryable().Query(ctx, getContributionQuery, saleID[:], int16(tokenIndex), buyer[:])
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[contributionRow])
	if err != nil {
		return nil, mapError(err, "failed to scan contribution")
	}
	contribution, err := row.toEntity()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &contribution, nil
}

func (r *Repository) GetContributions(ctx context.Context, saleID entity.SaleID) ([]entity.Contribution, error) {
	rows, err := r.queryable().Query(ctx, getContributionsQuery, saleID[:])
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[contributionRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan contributions")
	}
	contributions := make([]entity.Contribution, 0, len(result))
	for _, row := range result {
		contribution, err := row.toEntity()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		contributions = append(contributions, contribution)
	}
	return contributions, nil
}

func (r *Repository) SetContribution(ctx context.Context, c entity.Contribution) error {
	_, err := r.queryable().Exec(ctx, setContributionQuery,
		c.SaleID[:], int16(c.TokenIndex), c.Buyer[:], encodeAmount(zeroIfNil(c.Amount)),
		c.AllocationClaimed, c.RefundClaimed, c.ExcessClaimed,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func fromContributorSale(sale entity.ContributorSale) saleRecord {
	states := lo.KeyBy(sale.Tokens, func(t entity.ContributorTokenState) uint8 { return t.Index })
	return saleRecord{
		Terms:  sale.Terms,
		Status: sale.Status,
		Tokens: lo.Map(sale.Terms.AcceptedTokens, func(token entity.AcceptedToken, _ int) tokenRow {
			row := newTokenRow(token)
			state := states[token.Index]
			row.Contributed = encodeAmount(zeroIfNil(state.Contributed))
			row.Allocation = encodeAmount(state.Allocation)
			row.ExcessContribution = encodeAmount(state.ExcessContribution)
			return row
		}),
	}
}

func toContributorSale(rec saleRecord) (*entity.ContributorSale, error) {
	sale := &entity.ContributorSale{Terms: rec.Terms, Status: rec.Status}
	for _, row := range rec.Tokens {
		state := entity.ContributorTokenState{Index: uint8(row.TokenIndex)}
		var err error
		if state.Contributed, err = decodeAmount(row.Contributed); err != nil {
			return nil, errors.Wrapf(err, "token %d contributed", row.TokenIndex)
		}
		if state.Allocation, err = decodeAmount(row.Allocation); err != nil {
			return nil, errors.Wrapf(err, "token %d allocation", row.TokenIndex)
		}
		if state.ExcessContribution, err = decodeAmount(row.ExcessContribution); err != nil {
			return nil, errors.Wrapf(err, "token %d excess contribution", row.TokenIndex)
		}
		sale.Tokens = append(sale.Tokens, state)
	}
	return sale, nil
}

func zeroIfNil(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v
}
