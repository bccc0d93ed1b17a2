package payload

import (
	"testing"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func universal(b byte) address.Universal {
	var u address.Universal
	for i := range u {
		u[i] = b
	}
	return u
}

func saleInitWith(n int) *SaleInit {
	tokens := make([]AcceptedToken, n)
	for i := range tokens {
		tokens[i] = AcceptedToken{
			Address:        universal(byte(i)),
			Chain:          common.ChainID(i%10 + 1),
			ConversionRate: uint128.New(uint64(i)+1, uint64(i)),
		}
	}
	return &SaleInit{
		SaleID:          entity.SaleIDFromCounter(42),
		TokenAddress:    universal(0xaa),
		TokenChain:      common.ChainEthereum,
		TokenDecimals:   18,
		SaleStart:       1_700_000_000,
		SaleEnd:         1_700_086_400,
		AcceptedTokens:  tokens,
		Recipient:       universal(0xbb),
		Authority:       entity.Authority{1, 2, 3},
		UnlockTimestamp: ^uint64(0),
	}
}

func solanaSaleInitWith(n int) *SolanaSaleInit {
	tokens := make([]SolanaToken, n)
	for i := range tokens {
		tokens[i] = SolanaToken{Index: uint8(i), Address: universal(byte(255 - i))}
	}
	return &SolanaSaleInit{
		SaleID:          entity.SaleIDFromCounter(1),
		TokenAddress:    universal(0x01),
		TokenChain:      common.ChainSolana,
		TokenDecimals:   9,
		SaleStart:       10,
		SaleEnd:         20,
		AcceptedTokens:  tokens,
		Recipient:       universal(0x02),
		UnlockTimestamp: 30,
	}
}

func saleSealedWith(n int) *SaleSealed {
	allocations := make([]Allocation, n)
	for i := range allocations {
		allocations[i] = Allocation{
			TokenIndex:         uint8(i),
			Allocation:         uint256.NewInt(uint64(i) * 1000),
			ExcessContribution: new(uint256.Int).Lsh(uint256.NewInt(uint64(i)), 200),
		}
	}
	return &SaleSealed{SaleID: entity.SaleIDFromCounter(3), Allocations: allocations}
}

func contributionsWith(n int) *ContributionsSealed {
	contributions := make([]Contribution, n)
	for i := range contributions {
		contributions[i] = Contribution{TokenIndex: uint8(i), Amount: uint256.NewInt(uint64(i) + 7)}
	}
	return &ContributionsSealed{SaleID: entity.SaleIDFromCounter(4), ChainID: common.ChainBSC, Contributions: contributions}
}

func allPayloads() map[string]Payload {
	return map[string]Payload{
		"sale_init_0":              saleInitWith(0),
		"sale_init_1":              saleInitWith(1),
		"sale_init_255":            saleInitWith(255),
		"solana_sale_init_0":       solanaSaleInitWith(0),
		"solana_sale_init_255":     solanaSaleInitWith(255),
		"sale_sealed_0":            saleSealedWith(0),
		"sale_sealed_255":          saleSealedWith(255),
		"sale_aborted":             &SaleAborted{SaleID: entity.SaleIDFromCounter(9)},
		"contributions_sealed_0":   contributionsWith(0),
		"contributions_sealed_255": contributionsWith(255),
		"authority_updated":        &AuthorityUpdated{SaleID: entity.SaleIDFromCounter(5), NewAuthority: entity.Authority{0xff}},
		"register_chain":           &RegisterChain{TargetChain: common.ChainEthereum, ChainID: common.ChainSolana, EmitterAddress: universal(0x77)},
	}
}

func TestRoundTrip(t *testing.T) {
	for name, p := range allPayloads() {
		p := p
		t.Run(name, func(t *testing.T) {
			raw, err := p.Encode()
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
			assert.Equal(t, p.PayloadID(), decoded.PayloadID())

			again, err := decoded.Encode()
			require.NoError(t, err)
			assert.Equal(t, raw, again)
		})
	}
}

func TestSaleInitLayout(t *testing.T) {
	raw, err := saleInitWith(2).Encode()
	require.NoError(t, err)
	assert.Len(t, raw, saleInitHeaderSize+2*saleInitTokenSize+saleInitFooterSize)
	assert.Equal(t, byte(IDSaleInit), raw[0])
	// token chain follows id, sale id and token address
	assert.Equal(t, []byte{0, byte(common.ChainEthereum)}, raw[65:67])
	assert.Equal(t, byte(2), raw[saleInitHeaderSize-1])
}

func TestRegisterChainLayout(t *testing.T) {
	raw, err := (&RegisterChain{ChainID: common.ChainPolygon}).Encode()
	require.NoError(t, err)
	require.Len(t, raw, registerChainSize)
	assert.Equal(t, []byte("TokenSale"), raw[23:32])
	assert.Equal(t, make([]byte, 23), raw[:23])
	assert.Equal(t, ActionRegisterChain, raw[32])
}

func TestDecodeRejectsTruncation(t *testing.T) {
	for name, p := range allPayloads() {
		p := p
		t.Run(name, func(t *testing.T) {
			raw, err := p.Encode()
			require.NoError(t, err)
			for n := 0; n < len(raw); n++ {
				_, err := Decode(raw[:n])
				require.Error(t, err, "length %d", n)
				assert.ErrorIs(t, err, errs.FormatError, "length %d", n)
			}
		})
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	for name, p := range allPayloads() {
		p := p
		t.Run(name, func(t *testing.T) {
			raw, err := p.Encode()
			require.NoError(t, err)
			_, err = Decode(append(raw, 0))
			assert.ErrorIs(t, err, ErrTrailingBytes)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Decode(nil)
		assert.ErrorIs(t, err, ErrTooShort)
	})
	t.Run("unknown_id", func(t *testing.T) {
		_, err := Decode([]byte{200, 1, 2})
		assert.ErrorIs(t, err, ErrUnknownPayloadID)
		_, err = PeekID([]byte{7})
		assert.ErrorIs(t, err, ErrUnknownPayloadID)
	})
	t.Run("typed_decoder_wrong_id", func(t *testing.T) {
		raw, err := (&SaleAborted{}).Encode()
		require.NoError(t, err)
		_, err = DecodeSaleSealed(raw)
		assert.ErrorIs(t, err, ErrUnknownPayloadID)
	})
	t.Run("declared_count_exceeds_input", func(t *testing.T) {
		raw, err := saleSealedWith(2).Encode()
		require.NoError(t, err)
		raw[33] = 3
		_, err = DecodeSaleSealed(raw)
		assert.ErrorIs(t, err, ErrTooShort)
	})
	t.Run("timestamp_out_of_range", func(t *testing.T) {
		raw, err := saleInitWith(0).Encode()
		require.NoError(t, err)
		// first byte of sale start
		raw[68] = 1
		_, err = DecodeSaleInit(raw)
		assert.ErrorIs(t, err, ErrFieldRange)
	})
	t.Run("wrong_module", func(t *testing.T) {
		raw, err := (&RegisterChain{}).Encode()
		require.NoError(t, err)
		raw[31] = 'x'
		_, err = Decode(raw)
		assert.ErrorIs(t, err, ErrWrongModule)
		assert.ErrorIs(t, err, errs.AuthenticityError)
	})
	t.Run("unknown_action", func(t *testing.T) {
		raw, err := (&RegisterChain{}).Encode()
		require.NoError(t, err)
		raw[32] = 2
		_, err = DecodeRegisterChain(raw)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestEncodeTooManyTokens(t *testing.T) {
	_, err := saleInitWith(256).Encode()
	assert.ErrorIs(t, err, ErrTooManyTokens)
	_, err = saleSealedWith(256).Encode()
	assert.ErrorIs(t, err, ErrTooManyTokens)
}
