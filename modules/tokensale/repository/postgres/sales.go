package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

var ErrDuplicateKey = errors.New("duplicate key")

const uniqueViolation = "23505"

const (
	saleColumns = `sale_id, token_chain, token_address, token_decimals, token_amount, min_raise, max_raise,
	sale_start, sale_end, unlock_timestamp, recipient, refund_recipient, authority, initiator, status`

	tokenColumns = `sale_id, token_index, chain_id, address, conversion_rate, contributed, collected, allocation, excess_contribution`

	insertSaleQuery = `INSERT INTO tokensale_sales (role, ` + saleColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	insertTokenQuery = `INSERT INTO tokensale_sale_tokens (role, ` + tokenColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateSaleQuery = `UPDATE tokensale_sales SET status = $3, authority = $4, updated_at = NOW()
	WHERE role = $1 AND sale_id = $2`

	updateTokenQuery = `UPDATE tokensale_sale_tokens SET contributed = $4, collected = $5, allocation = $6, excess_contribution = $7
	WHERE role = $1 AND sale_id = $2 AND token_index = $3`

	getSaleQuery      = `SELECT ` + saleColumns + ` FROM tokensale_sales WHERE role = $1 AND sale_id = $2`
	getSalesQuery     = `SELECT ` + saleColumns + ` FROM tokensale_sales WHERE role = $1 ORDER BY sale_id`
	getTokensQuery    = `SELECT ` + tokenColumns + ` FROM tokensale_sale_tokens WHERE role = $1 AND sale_id = $2 ORDER BY token_index`
	getAllTokensQuery = `SELECT ` + tokenColumns + ` FROM tokensale_sale_tokens WHERE role = $1 ORDER BY sale_id, token_index`
)

type saleRow struct {
	SaleID          []byte `db:"sale_id"`
	TokenChain      int32  `db:"token_chain"`
	TokenAddress    []byte `db:"token_address"`
	TokenDecimals   int16  `db:"token_decimals"`
	TokenAmount     []byte `db:"token_amount"`
	MinRaise        []byte `db:"min_raise"`
	MaxRaise        []byte `db:"max_raise"`
	SaleStart       int64  `db:"sale_start"`
	SaleEnd         int64  `db:"sale_end"`
	UnlockTimestamp int64  `db:"unlock_timestamp"`
	Recipient       []byte `db:"recipient"`
	RefundRecipient []byte `db:"refund_recipient"`
	Authority       []byte `db:"authority"`
	Initiator       []byte `db:"initiator"`
	Status          string `db:"status"`
}

type tokenRow struct {
	SaleID             []byte `db:"sale_id"`
	TokenIndex         int16  `db:"token_index"`
	ChainID            int32  `db:"chain_id"`
	Address            []byte `db:"address"`
	ConversionRate     []byte `db:"conversion_rate"`
	Contributed        []byte `db:"contributed"`
	Collected          bool   `db:"collected"`
	Allocation         []byte `db:"allocation"`
	ExcessContribution []byte `db:"excess_contribution"`
}

// saleRecord is the storage shape shared by both roles.
type saleRecord struct {
	Terms  entity.SaleTerms
	Status entity.SaleStatus
	Tokens []tokenRow
}

func (r *Repository) insertSale(ctx context.Context, rec saleRecord) error {
	t := rec.Terms
	_, err := r.queryable().Exec(ctx, insertSaleQuery,
		string(r.role), t.ID[:], int32(t.Token.Chain), t.Token.Address[:], int16(t.Token.Decimals),
		encodeAmount(t.TokenAmount), encodeAmount(t.MinRaise), encodeAmount(t.MaxRaise),
		encodeTimestamp(t.SaleStart), encodeTimestamp(t.SaleEnd), encodeTimestamp(t.UnlockTimestamp),
		t.Recipient[:], t.RefundRecipient[:], t.Authority[:], t.Initiator[:], rec.Status.String(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.Wrapf(ErrDuplicateKey, "sale %s", t.ID)
		}
		return errors.Wrap(err, "error during exec")
	}

	batch := &pgx.Batch{}
	for _, token := range rec.Tokens {
		batch.Queue(insertTokenQuery, string(r.role), t.ID[:], token.TokenIndex, token.ChainID, token.Address,
			token.ConversionRate, token.Contributed, token.Collected, token.Allocation, token.ExcessContribution)
	}
	if batch.Len() > 0 {
		if err := r.queryable().SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "failed to insert sale tokens")
		}
	}
	return nil
}

func (r *Repository) updateSale(ctx context.Context, rec saleRecord) error {
	t := rec.Terms
	tag, err := r.queryable().Exec(ctx, updateSaleQuery, string(r.role), t.ID[:], rec.Status.String(), t.Authority[:])
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(errs.NotFound)
	}

	batch := &pgx.Batch{}
	for _, token := range rec.Tokens {
		batch.Queue(updateTokenQuery, string(r.role), t.ID[:], token.TokenIndex,
			token.Contributed, token.Collected, token.Allocation, token.ExcessContribution)
	}
	if batch.Len() > 0 {
		if err := r.queryable().SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "failed to update sale tokens")
		}
	}
	return nil
}

func (r *Repository) getSale(ctx context.Context, saleID entity.SaleID) (*saleRecord, error) {
	rows, err := r.queryable().Query(ctx, getSaleQuery, string(r.role), saleID[:])
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	sale, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[saleRow])
	if err != nil {
		return nil, mapError(err, "failed to scan sale")
	}

	rows, err = r.queryable().Query(ctx, getTokensQuery, string(r.role), saleID[:])
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowToStructByName[tokenRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan sale tokens")
	}
	return toSaleRecord(sale, tokens)
}

func (r *Repository) getSales(ctx context.Context) ([]saleRecord, error) {
	rows, err := r.queryable().Query(ctx, getSalesQuery, string(r.role))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	sales, err := pgx.CollectRows(rows, pgx.RowToStructByName[saleRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan sales")
	}

	rows, err = r.queryable().Query(ctx, getAllTokensQuery, string(r.role))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowToStructByName[tokenRow])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan sale tokens")
	}
	tokensBySale := lo.GroupBy(tokens, func(token tokenRow) string { return string(token.SaleID) })

	records := make([]saleRecord, 0, len(sales))
	for _, sale := range sales {
		rec, err := toSaleRecord(sale, tokensBySale[string(sale.SaleID)])
		if err != nil {
			return nil, errors.WithStack(err)
		}
		records = append(records, *rec)
	}
	return records, nil
}

func toSaleRecord(row saleRow, tokens []tokenRow) (*saleRecord, error) {
	var (
		terms entity.SaleTerms
		err   error
	)
	if terms.ID, err = decodeSaleID(row.SaleID); err != nil {
		return nil, errors.WithStack(err)
	}
	terms.Token.Chain = common.ChainID(row.TokenChain)
	terms.Token.Decimals = uint8(row.TokenDecimals)
	if terms.Token.Address, err = decodeUniversal(row.TokenAddress); err != nil {
		return nil, errors.Wrap(err, "token address")
	}
	if terms.TokenAmount, err = decodeAmount(row.TokenAmount); err != nil {
		return nil, errors.Wrap(err, "token amount")
	}
	if terms.MinRaise, err = decodeAmount(row.MinRaise); err != nil {
		return nil, errors.Wrap(err, "min raise")
	}
	if terms.MaxRaise, err = decodeAmount(row.MaxRaise); err != nil {
		return nil, errors.Wrap(err, "max raise")
	}
	terms.SaleStart = decodeTimestamp(row.SaleStart)
	terms.SaleEnd = decodeTimestamp(row.SaleEnd)
	terms.UnlockTimestamp = decodeTimestamp(row.UnlockTimestamp)
	if terms.Recipient, err = decodeUniversal(row.Recipient); err != nil {
		return nil, errors.Wrap(err, "recipient")
	}
	if terms.RefundRecipient, err = decodeUniversal(row.RefundRecipient); err != nil {
		return nil, errors.Wrap(err, "refund recipient")
	}
	if terms.Authority, err = decodeAuthority(row.Authority); err != nil {
		return nil, errors.WithStack(err)
	}
	if terms.Initiator, err = decodeUniversal(row.Initiator); err != nil {
		return nil, errors.Wrap(err, "initiator")
	}
	status, err := entity.ParseSaleStatus(row.Status)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, token := range tokens {
		accepted := entity.AcceptedToken{
			Index: uint8(token.TokenIndex),
			Chain: common.ChainID(token.ChainID),
		}
		if accepted.Address, err = decodeUniversal(token.Address); err != nil {
			return nil, errors.Wrapf(err, "token %d address", token.TokenIndex)
		}
		if accepted.ConversionRate, err = decodeRate(token.ConversionRate); err != nil {
			return nil, errors.Wrapf(err, "token %d", token.TokenIndex)
		}
		terms.AcceptedTokens = append(terms.AcceptedTokens, accepted)
	}
	return &saleRecord{Terms: terms, Status: status, Tokens: tokens}, nil
}

func newTokenRow(token entity.AcceptedToken) tokenRow {
	return tokenRow{
		TokenIndex:     int16(token.Index),
		ChainID:        int32(token.Chain),
		Address:        token.Address[:],
		ConversionRate: encodeRate(token.ConversionRate),
	}
}
