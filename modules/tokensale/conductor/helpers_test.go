package conductor

import (
	"context"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/authz"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/repository/memory"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaatest"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const (
	testNow       uint64 = 1_000
	testSaleStart uint64 = 2_000
	testSaleEnd   uint64 = 3_000
	testUnlock    uint64 = 4_000
	testAfterEnd  uint64 = testSaleEnd + 1
)

var (
	testGovernance = entity.RegisteredEmitter{Chain: common.ChainSolana, Address: address.Universal{31: 0x04}}
	initiatorKey   = crypto.NewFromKey(vaatest.Key("initiator"))
	testInitiator  = entity.Authority(initiatorKey.Address()).Universal()
)

// abortSignature is the signature of signer cancelling saleID.
func abortSignature(signer *crypto.Client, saleID entity.SaleID) []byte {
	return utils.Must(signer.Sign(authz.AbortDigest(saleID)))
}

func evmAddress(b byte) address.Universal {
	return address.Universal{31: b}
}

func solanaAddress(b byte) address.Universal {
	return address.Universal{0: 0x5a, 31: b}
}

func contributorAddress(chain common.ChainID) address.Universal {
	return address.Universal{30: 0xee, 31: byte(chain)}
}

type fixture struct {
	t            *testing.T
	ctx          context.Context
	repo         *memory.Repository
	conductor    *Conductor
	signers      *vaatest.Signers
	governance   *vaatest.Emitter
	contributors map[common.ChainID]*vaatest.Emitter
}

// newFixture returns an Ethereum conductor with contributors registered on Ethereum and Solana.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	signers := vaatest.DevnetSigners(4)
	repo := memory.NewRepository()
	f := &fixture{
		t:    t,
		ctx:  context.Background(),
		repo: repo,
		conductor: New(repo, Options{
			ChainID:    common.ChainEthereum,
			Verifier:   signers.Verifier(),
			Governance: testGovernance,
		}),
		signers:      signers,
		governance:   signers.Emitter(testGovernance.Chain, testGovernance.Address),
		contributors: make(map[common.ChainID]*vaatest.Emitter),
	}
	f.register(common.ChainEthereum)
	f.register(common.ChainSolana)
	return f
}

func (f *fixture) registerChainEnvelope(chain common.ChainID, emitter address.Universal) []byte {
	f.t.Helper()
	b, err := (&payload.RegisterChain{ChainID: chain, EmitterAddress: emitter}).Encode()
	require.NoError(f.t, err)
	return f.governance.Emit(b)
}

func (f *fixture) register(chain common.ChainID) {
	f.t.Helper()
	addr := contributorAddress(chain)
	_, err := f.conductor.RegisterChain(f.ctx, f.registerChainEnvelope(chain, addr))
	require.NoError(f.t, err)
	f.contributors[chain] = f.signers.Emitter(chain, addr)
}

// defaultParams is a sale of 1000 tokens with one 1:1 token on Ethereum and one on Solana.
func defaultParams() CreateSaleParams {
	return CreateSaleParams{
		Token:           entity.TokenDescriptor{Chain: common.ChainEthereum, Address: evmAddress(0x01), Decimals: 18},
		TokenAmount:     uint256.NewInt(1_000),
		MinRaise:        uint256.NewInt(100),
		MaxRaise:        uint256.NewInt(200),
		SaleStart:       testSaleStart,
		SaleEnd:         testSaleEnd,
		UnlockTimestamp: testUnlock,
		AcceptedTokens: []AcceptedTokenParams{
			{Chain: common.ChainEthereum, Address: evmAddress(0x10), ConversionRate: entity.RateOne},
			{Chain: common.ChainSolana, Address: solanaAddress(0x20), ConversionRate: entity.RateOne},
		},
		Recipient:       evmAddress(0x30),
		RefundRecipient: evmAddress(0x31),
		Initiator:       testInitiator,
	}
}

func (f *fixture) createSale(params CreateSaleParams) *CreateSaleResult {
	f.t.Helper()
	result, err := f.conductor.CreateSale(f.ctx, params, testNow)
	require.NoError(f.t, err)
	return result
}

func (f *fixture) attestation(saleID entity.SaleID, chain common.ChainID, amounts map[uint8]uint64) []byte {
	f.t.Helper()
	msg := &payload.ContributionsSealed{SaleID: saleID, ChainID: chain}
	for index := 0; index < 256; index++ {
		if amount, ok := amounts[uint8(index)]; ok {
			msg.Contributions = append(msg.Contributions, payload.Contribution{TokenIndex: uint8(index), Amount: uint256.NewInt(amount)})
		}
	}
	b, err := msg.Encode()
	require.NoError(f.t, err)
	return f.contributors[chain].Emit(b)
}

func (f *fixture) collect(saleID entity.SaleID, chain common.ChainID, amounts map[uint8]uint64) {
	f.t.Helper()
	_, err := f.conductor.CollectContribution(f.ctx, f.attestation(saleID, chain, amounts), testAfterEnd)
	require.NoError(f.t, err)
}

func (f *fixture) sale(saleID entity.SaleID) *entity.ConductorSale {
	f.t.Helper()
	sale, err := f.conductor.Sale(f.ctx, saleID)
	require.NoError(f.t, err)
	return sale
}
