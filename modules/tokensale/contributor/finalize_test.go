package contributor

import (
	"testing"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleSealed(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	f.initSale(saleInit())

	_, err := f.contributor.SaleSealed(f.ctx, f.emit(&payload.SaleSealed{SaleID: testSaleID, Allocations: []payload.Allocation{allocation(0, 1, 0)}}))
	assert.ErrorIs(t, err, ErrMissingAllocation)
	assert.Equal(t, entity.SaleStatusActive, f.sale().Status)

	raw := f.emit(&payload.SaleSealed{SaleID: testSaleID, Allocations: []payload.Allocation{
		allocation(0, 700, 3), allocation(1, 100, 0), allocation(2, 200, 0),
	}})
	sale, err := f.contributor.SaleSealed(f.ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusSealed, sale.Status)
	assert.Equal(t, uint64(700), sale.Tokens[0].Allocation.Uint64())
	assert.Equal(t, uint64(3), sale.Tokens[0].ExcessContribution.Uint64())
	assert.Equal(t, uint64(200), sale.Tokens[1].Allocation.Uint64())

	_, err = f.contributor.SaleSealed(f.ctx, raw)
	assert.ErrorIs(t, err, ErrReplayed)

	_, err = f.contributor.SaleAborted(f.ctx, f.emit(&payload.SaleAborted{SaleID: testSaleID}))
	assert.ErrorIs(t, err, ErrSaleNotActive)
	assert.Equal(t, entity.SaleStatusSealed, f.sale().Status)

	_, err = f.contributor.AuthorityUpdated(f.ctx, f.emit(&payload.AuthorityUpdated{SaleID: testSaleID, NewAuthority: entity.Authority{1}}))
	assert.ErrorIs(t, err, ErrSaleNotActive)
	assert.Equal(t, sale, f.sale())
}

func TestSaleAbortedUnknownSale(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	_, err := f.contributor.SaleAborted(f.ctx, f.emit(&payload.SaleAborted{SaleID: testSaleID}))
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestAuthorityUpdated(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	f.initSale(saleInit())

	sale, err := f.contributor.AuthorityUpdated(f.ctx, f.emit(&payload.AuthorityUpdated{SaleID: testSaleID, NewAuthority: entity.Authority{7}}))
	require.NoError(t, err)
	assert.Equal(t, entity.Authority{7}, sale.Terms.Authority)
	assert.Equal(t, entity.Authority{7}, f.sale().Terms.Authority)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)

	result, err := f.contributor.Submit(f.ctx, f.emit(saleInit()), testNow)
	require.NoError(t, err)
	assert.Equal(t, payload.IDSaleInit, result.PayloadID)
	assert.Equal(t, entity.SaleStatusActive, result.Sale.Status)

	result, err = f.contributor.Submit(f.ctx, f.emit(&payload.AuthorityUpdated{SaleID: testSaleID, NewAuthority: entity.Authority{7}}), testNow)
	require.NoError(t, err)
	assert.Equal(t, payload.IDAuthorityUpdated, result.PayloadID)

	_, err = f.contributor.Submit(f.ctx, f.emit(&payload.ContributionsSealed{SaleID: testSaleID, ChainID: common.ChainEthereum}), testNow)
	assert.ErrorIs(t, err, ErrUnexpectedPayload)

	result, err = f.contributor.Submit(f.ctx, f.emit(&payload.SaleAborted{SaleID: testSaleID}), testNow)
	require.NoError(t, err)
	assert.Equal(t, payload.IDSaleAborted, result.PayloadID)
	assert.Equal(t, entity.SaleStatusAborted, result.Sale.Status)
}
