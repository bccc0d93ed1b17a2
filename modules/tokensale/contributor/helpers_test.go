package contributor

import (
	"context"
	"testing"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/custody"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/repository/memory"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaatest"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const (
	testNow       uint64 = 1_000
	testSaleStart uint64 = 2_000
	testSaleEnd   uint64 = 3_000
	testUnlock    uint64 = 4_000
)

var (
	testConductor = entity.RegisteredEmitter{Chain: common.ChainEthereum, Address: address.Universal{31: 0xc0}}
	testSaleID    = entity.SaleIDFromCounter(1)
	saleToken     = evmAddress(0x01)
	tokenA        = evmAddress(0x10) // index 0
	tokenB        = evmAddress(0x11) // index 2
	alice         = evmAddress(0xa1)
	bob           = evmAddress(0xb0)
)

func evmAddress(b byte) address.Universal {
	return address.Universal{31: b}
}

type fixture struct {
	t           *testing.T
	ctx         context.Context
	repo        *memory.Repository
	ledger      *custody.Ledger
	contributor *Contributor
	conductor   *vaatest.Emitter
}

func newFixture(t *testing.T, chain common.ChainID) *fixture {
	t.Helper()
	return newFixtureWith(t, chain, memory.NewRepository(), nil)
}

// newFixtureWith uses custodian instead of a ledger when it is not nil.
func newFixtureWith(t *testing.T, chain common.ChainID, dg datagateway.ContributorDataGateway, custodian custody.Custody) *fixture {
	t.Helper()
	signers := vaatest.DevnetSigners(4)
	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		ledger:    custody.NewLedger(),
		conductor: signers.Emitter(testConductor.Chain, testConductor.Address),
	}
	if repo, ok := dg.(*memory.Repository); ok {
		f.repo = repo
	}
	if custodian == nil {
		custodian = f.ledger
	}
	f.contributor = New(dg, custodian, Options{
		ChainID:   chain,
		Verifier:  signers.Verifier(),
		Conductor: testConductor,
	})
	return f
}

// saleInit accepts tokenA on Ethereum, one Solana token and tokenB on Ethereum.
func saleInit() *payload.SaleInit {
	return &payload.SaleInit{
		SaleID:        testSaleID,
		TokenAddress:  saleToken,
		TokenChain:    common.ChainEthereum,
		TokenDecimals: 18,
		SaleStart:     testSaleStart,
		SaleEnd:       testSaleEnd,
		AcceptedTokens: []payload.AcceptedToken{
			{Address: tokenA, Chain: common.ChainEthereum, ConversionRate: entity.RateOne},
			{Address: address.Universal{0: 0x5a}, Chain: common.ChainSolana, ConversionRate: entity.RateOne},
			{Address: tokenB, Chain: common.ChainEthereum, ConversionRate: entity.RateOne},
		},
		Recipient:       evmAddress(0x30),
		UnlockTimestamp: testUnlock,
	}
}

func (f *fixture) emit(msg payload.Payload) []byte {
	f.t.Helper()
	b, err := msg.Encode()
	require.NoError(f.t, err)
	return f.conductor.Emit(b)
}

func (f *fixture) initSale(msg payload.Payload) {
	f.t.Helper()
	_, err := f.contributor.InitSale(f.ctx, f.emit(msg), testNow)
	require.NoError(f.t, err)
}

func (f *fixture) contribute(index uint8, buyer address.Universal, amount uint64) {
	f.t.Helper()
	token := tokenA
	if index == 2 {
		token = tokenB
	}
	f.ledger.Mint(token, buyer, uint256.NewInt(amount))
	_, err := f.contributor.Contribute(f.ctx, ContributeParams{
		SaleID:     testSaleID,
		TokenIndex: index,
		Buyer:      buyer,
		Amount:     uint256.NewInt(amount),
	}, testSaleStart)
	require.NoError(f.t, err)
}

func (f *fixture) seal(allocations ...payload.Allocation) {
	f.t.Helper()
	_, err := f.contributor.SaleSealed(f.ctx, f.emit(&payload.SaleSealed{SaleID: testSaleID, Allocations: allocations}))
	require.NoError(f.t, err)
}

func (f *fixture) sale() *entity.ContributorSale {
	f.t.Helper()
	sale, err := f.contributor.Sale(f.ctx, testSaleID)
	require.NoError(f.t, err)
	return sale
}

func allocation(index uint8, alloc, excess uint64) payload.Allocation {
	return payload.Allocation{TokenIndex: index, Allocation: uint256.NewInt(alloc), ExcessContribution: uint256.NewInt(excess)}
}
