package contributor

import (
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/custody"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/authz"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaatest"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContribute(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	f.initSale(saleInit())

	f.contribute(0, alice, 40)
	f.contribute(0, alice, 20)
	f.contribute(0, bob, 30)
	f.contribute(2, bob, 5)

	contribution, err := f.contributor.Contribution(f.ctx, testSaleID, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), contribution.Amount.Uint64())

	sale := f.sale()
	assert.Equal(t, uint64(90), sale.Tokens[0].Contributed.Uint64())
	assert.Equal(t, uint64(5), sale.Tokens[1].Contributed.Uint64())

	assert.Equal(t, uint64(90), f.ledger.Escrow(tokenA).Uint64())
	assert.Equal(t, uint64(5), f.ledger.Escrow(tokenB).Uint64())
	assert.True(t, f.ledger.Balance(tokenA, alice).IsZero())

	contributions, err := f.contributor.Contributions(f.ctx, testSaleID)
	require.NoError(t, err)
	assert.Len(t, contributions, 3)
}

func TestContributeRejects(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	f.initSale(saleInit())
	f.ledger.Mint(tokenA, alice, uint256.NewInt(100))

	params := func(index uint8, amount uint64) ContributeParams {
		return ContributeParams{SaleID: testSaleID, TokenIndex: index, Buyer: alice, Amount: uint256.NewInt(amount)}
	}

	tests := []struct {
		name   string
		params ContributeParams
		now    uint64
		want   error
	}{
		{"before_start", params(0, 10), testSaleStart - 1, ErrSaleNotStarted},
		{"after_end", params(0, 10), testSaleEnd + 1, ErrSaleEnded},
		{"foreign_token", params(1, 10), testSaleStart, ErrTokenIndex},
		{"unknown_token", params(9, 10), testSaleStart, ErrTokenIndex},
		{"zero_amount", params(0, 0), testSaleStart, ErrInvalidAmount},
		{"unknown_sale", ContributeParams{SaleID: entity.SaleIDFromCounter(9), Buyer: alice, Amount: uint256.NewInt(1)}, testSaleStart, ErrSaleNotFound},
		{"insufficient_funds", params(0, 101), testSaleEnd, custody.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.contributor.Contribute(f.ctx, tt.params, tt.now)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.contributor.Contribution(f.ctx, testSaleID, 0, alice)
	assert.ErrorIs(t, err, errs.NotFound)
	assert.True(t, f.sale().Tokens[0].Contributed.IsZero())
	assert.Equal(t, uint64(100), f.ledger.Balance(tokenA, alice).Uint64())
}

func TestContributeNotActive(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	f.initSale(saleInit())
	_, err := f.contributor.SaleAborted(f.ctx, f.emit(&payload.SaleAborted{SaleID: testSaleID}))
	require.NoError(t, err)

	f.ledger.Mint(tokenA, alice, uint256.NewInt(10))
	_, err = f.contributor.Contribute(f.ctx, ContributeParams{SaleID: testSaleID, Buyer: alice, Amount: uint256.NewInt(10)}, testSaleStart)
	assert.ErrorIs(t, err, ErrSaleNotActive)
}

func TestContributeWithAuthority(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	authority := crypto.NewFromKey(vaatest.Key("kyc-authority"))
	msg := saleInit()
	msg.Authority = authority.Address()
	f.initSale(msg)
	f.ledger.Mint(tokenA, alice, uint256.NewInt(100))

	approve := func(amount, prior uint64) []byte {
		return utils.Must(authority.Sign(authz.ContributionDigest(testSaleID, 0, uint256.NewInt(amount), alice, uint256.NewInt(prior))))
	}
	contribute := func(amount uint64, signature []byte) error {
		_, err := f.contributor.Contribute(f.ctx, ContributeParams{
			SaleID:     testSaleID,
			TokenIndex: 0,
			Buyer:      alice,
			Amount:     uint256.NewInt(amount),
			Signature:  signature,
		}, testSaleStart)
		return err
	}

	assert.ErrorIs(t, contribute(10, nil), ErrBadKYCSignature)
	assert.ErrorIs(t, contribute(10, approve(20, 0)), ErrBadKYCSignature)

	signature := approve(10, 0)
	require.NoError(t, contribute(10, signature))
	// an approval covers one contribution only
	err := contribute(10, signature)
	assert.ErrorIs(t, err, ErrBadKYCSignature)
	assert.ErrorIs(t, err, errs.AuthenticityError)

	require.NoError(t, contribute(10, approve(10, 10)))
	assert.Equal(t, uint64(20), f.sale().Tokens[0].Contributed.Uint64())
}

func TestAttestContributions(t *testing.T) {
	f := newFixture(t, common.ChainEthereum)
	f.initSale(saleInit())
	f.contribute(0, alice, 60)

	_, err := f.contributor.AttestContributions(f.ctx, testSaleID, testSaleEnd)
	assert.ErrorIs(t, err, ErrSaleNotEnded)

	b, err := f.contributor.AttestContributions(f.ctx, testSaleID, testSaleEnd+1)
	require.NoError(t, err)
	msg, err := payload.DecodeContributionsSealed(b)
	require.NoError(t, err)
	assert.Equal(t, &payload.ContributionsSealed{
		SaleID:  testSaleID,
		ChainID: common.ChainEthereum,
		Contributions: []payload.Contribution{
			{TokenIndex: 0, Amount: uint256.NewInt(60)},
			{TokenIndex: 2, Amount: uint256.NewInt(0)},
		},
	}, msg)

	again, err := f.contributor.AttestContributions(f.ctx, testSaleID, testSaleEnd+1)
	require.NoError(t, err)
	assert.Equal(t, b, again)

	f.seal(allocation(0, 100, 0), allocation(1, 0, 0), allocation(2, 0, 0))
	_, err = f.contributor.AttestContributions(f.ctx, testSaleID, testSaleEnd+1)
	assert.ErrorIs(t, err, ErrSaleNotActive)
}
