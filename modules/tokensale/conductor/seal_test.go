package conductor

import (
	"testing"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaatest"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealSale(t *testing.T) {
	f := newFixture(t)
	saleID := f.createSale(defaultParams()).Terms.ID

	_, err := f.conductor.SealSale(f.ctx, saleID, testSaleEnd)
	assert.ErrorIs(t, err, ErrSaleNotEnded)

	f.collect(saleID, common.ChainEthereum, map[uint8]uint64{0: 60})
	_, err = f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	assert.ErrorIs(t, err, ErrContributionsMissing)

	f.collect(saleID, common.ChainSolana, map[uint8]uint64{1: 80})
	result, err := f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusSealed, result.Status)
	assert.Equal(t, uint64(140), result.Raised.Uint64())

	// 1000 * 60 / 140 = 428 rem 80, 1000 * 80 / 140 = 571 rem 60, dust 1 goes to index 0
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, uint64(429), result.Allocations[0].Allocation.Uint64())
	assert.Equal(t, uint64(571), result.Allocations[1].Allocation.Uint64())
	assert.True(t, result.Allocations[0].ExcessContribution.IsZero())
	assert.True(t, result.Allocations[1].ExcessContribution.IsZero())

	msg, err := payload.DecodeSaleSealed(result.Payload)
	require.NoError(t, err)
	assert.Equal(t, saleID, msg.SaleID)
	assert.Equal(t, uint64(429), msg.Allocations[0].Allocation.Uint64())

	sale := f.sale(saleID)
	assert.Equal(t, entity.SaleStatusSealed, sale.Status)
	assert.Equal(t, result.Allocations, sale.Allocations)

	_, err = f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.ErrorIs(t, err, errs.StateError)
}

func TestSealSaleUnderRaise(t *testing.T) {
	f := newFixture(t)
	saleID := f.createSale(defaultParams()).Terms.ID
	f.collect(saleID, common.ChainEthereum, map[uint8]uint64{0: 20})
	f.collect(saleID, common.ChainSolana, map[uint8]uint64{1: 30})

	result, err := f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAborted, result.Status)
	assert.Nil(t, result.Allocations)

	msg, err := payload.Decode(result.Payload)
	require.NoError(t, err)
	assert.Equal(t, &payload.SaleAborted{SaleID: saleID}, msg)

	_, err = f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.Equal(t, entity.SaleStatusAborted, f.sale(saleID).Status)
}

func TestSealSaleOverRaise(t *testing.T) {
	f := newFixture(t)
	saleID := f.createSale(defaultParams()).Terms.ID
	f.collect(saleID, common.ChainEthereum, map[uint8]uint64{0: 120})
	f.collect(saleID, common.ChainSolana, map[uint8]uint64{1: 180})

	result, err := f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusSealed, result.Status)
	assert.Equal(t, uint64(400), result.Allocations[0].Allocation.Uint64())
	assert.Equal(t, uint64(600), result.Allocations[1].Allocation.Uint64())
	// excess = contributed * (300 - 200) / 300
	assert.Equal(t, uint64(40), result.Allocations[0].ExcessContribution.Uint64())
	assert.Equal(t, uint64(60), result.Allocations[1].ExcessContribution.Uint64())
}

func TestSealSaleUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.conductor.SealSale(f.ctx, entity.SaleIDFromCounter(42), testAfterEnd)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestAbortSaleBeforeStart(t *testing.T) {
	f := newFixture(t)
	saleID := f.createSale(defaultParams()).Terms.ID

	stranger := crypto.NewFromKey(vaatest.Key("stranger"))
	_, err := f.conductor.AbortSaleBeforeStart(f.ctx, saleID, abortSignature(stranger, saleID), testNow)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.conductor.AbortSaleBeforeStart(f.ctx, saleID, nil, testNow)
	assert.ErrorIs(t, err, ErrBadAuthoritySignature)
	assert.ErrorIs(t, err, errs.AuthenticityError)

	// a signature over another sale does not cancel this one
	_, err = f.conductor.AbortSaleBeforeStart(f.ctx, saleID, abortSignature(initiatorKey, entity.SaleIDFromCounter(42)), testNow)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.conductor.AbortSaleBeforeStart(f.ctx, saleID, abortSignature(initiatorKey, saleID), testSaleStart)
	assert.ErrorIs(t, err, ErrSaleStarted)

	result, err := f.conductor.AbortSaleBeforeStart(f.ctx, saleID, abortSignature(initiatorKey, saleID), testSaleStart-1)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAborted, result.Status)
	aborted, err := payload.DecodeSaleAborted(result.Payload)
	require.NoError(t, err)
	assert.Equal(t, saleID, aborted.SaleID)

	_, err = f.conductor.AbortSaleBeforeStart(f.ctx, saleID, abortSignature(initiatorKey, saleID), testNow)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = f.conductor.SealSale(f.ctx, saleID, testAfterEnd)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestAbortSaleBeforeStartByAuthority(t *testing.T) {
	f := newFixture(t)
	authority := crypto.NewFromKey(vaatest.Key("authority"))
	params := defaultParams()
	params.Authority = authority.Address()
	saleID := f.createSale(params).Terms.ID

	result, err := f.conductor.AbortSaleBeforeStart(f.ctx, saleID, abortSignature(authority, saleID), testNow)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAborted, result.Status)
}
