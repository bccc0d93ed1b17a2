package entity

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// ConversionRateDecimals is the fixed-point precision of AcceptedToken.ConversionRate, 1:1 is 1e18.
const ConversionRateDecimals = 18

// MaxAcceptedTokens is bounded by the single byte token index.
const MaxAcceptedTokens = 255

// RateOne is the conversion rate of a token worth exactly one denomination unit.
var RateOne = uint128.From64(1_000_000_000_000_000_000)

// SaleID is the 32-byte sale identifier.
type SaleID [32]byte

// SaleIDFromCounter encodes n big-endian into the low bytes of a sale id.
func SaleIDFromCounter(n uint64) SaleID {
	var id SaleID
	binary.BigEndian.PutUint64(id[24:], n)
	return id
}

// ParseSaleID accepts a 64 character hex id or a decimal counter value.
func ParseSaleID(s string) (SaleID, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return SaleIDFromCounter(n), nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != len(SaleID{}) {
		return SaleID{}, errors.Wrapf(errs.InvalidArgument, "invalid sale id %q", s)
	}
	var id SaleID
	copy(id[:], b)
	return id, nil
}

func (id SaleID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id SaleID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SaleID) UnmarshalText(text []byte) error {
	parsed, err := ParseSaleID(string(text))
	if err != nil {
		return errors.WithStack(err)
	}
	*id = parsed
	return nil
}

// Authority is the 20-byte address of a sale authority key.
type Authority [20]byte

func (a Authority) IsZero() bool {
	return a == Authority{}
}

// Universal is the address left-padded to 32 bytes, the universal form of an EVM account.
func (a Authority) Universal() address.Universal {
	var u address.Universal
	copy(u[address.UniversalLength-len(a):], a[:])
	return u
}

func (a Authority) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Authority) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Authority) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil || len(b) != len(Authority{}) {
		return errors.Wrapf(errs.InvalidArgument, "invalid authority %q", text)
	}
	copy(a[:], b)
	return nil
}

type TokenDescriptor struct {
	Chain    common.ChainID
	Address  address.Universal
	Decimals uint8
}

type AcceptedToken struct {
	// Index is the wire identifier of the token, its position in SaleTerms.AcceptedTokens.
	Index          uint8
	Chain          common.ChainID
	Address        address.Universal
	ConversionRate uint128.Uint128
}

// SaleTerms are immutable once published.
type SaleTerms struct {
	ID              SaleID
	Token           TokenDescriptor
	TokenAmount     *uint256.Int
	MinRaise        *uint256.Int
	MaxRaise        *uint256.Int
	SaleStart       uint64 // unix seconds
	SaleEnd         uint64 // unix seconds
	UnlockTimestamp uint64 // unix seconds
	AcceptedTokens  []AcceptedToken
	Recipient       address.Universal
	RefundRecipient address.Universal
	Authority       Authority
	Initiator       address.Universal
}

// AcceptedToken returns the accepted token with the given wire index.
func (t *SaleTerms) AcceptedToken(index uint8) (AcceptedToken, bool) {
	return lo.Find(t.AcceptedTokens, func(token AcceptedToken) bool {
		return token.Index == index
	})
}

// TokensOnChain returns the accepted tokens that live on chain, in index order.
func (t *SaleTerms) TokensOnChain(chain common.ChainID) []AcceptedToken {
	return lo.Filter(t.AcceptedTokens, func(token AcceptedToken, _ int) bool {
		return token.Chain == chain
	})
}

// Chains returns the distinct chains of the accepted tokens.
func (t *SaleTerms) Chains() []common.ChainID {
	return lo.Uniq(lo.Map(t.AcceptedTokens, func(token AcceptedToken, _ int) common.ChainID {
		return token.Chain
	}))
}

func (t SaleTerms) Clone() SaleTerms {
	t.TokenAmount = cloneInt(t.TokenAmount)
	t.MinRaise = cloneInt(t.MinRaise)
	t.MaxRaise = cloneInt(t.MaxRaise)
	t.AcceptedTokens = append([]AcceptedToken(nil), t.AcceptedTokens...)
	return t
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return v.Clone()
}
