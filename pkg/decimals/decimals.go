// Package decimals renders fixed point token amounts and conversion rates for humans.
package decimals

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// RateDecimals is the number of fractional digits of a conversion rate.
const RateDecimals = 18

// FromUint256 scales amount down by decimals. A nil amount is zero.
func FromUint256(amount *uint256.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount.ToBig(), -int32(decimals))
}

// FromRate returns the real value of a fixed point conversion rate.
func FromRate(rate uint128.Uint128) decimal.Decimal {
	return decimal.NewFromBigInt(rate.Big(), -RateDecimals)
}

// ToUint256 parses a decimal string such as "12.5" into base units of a token with the
// given decimals. Digits finer than one base unit are rejected, never rounded.
func ToUint256(s string, decimals uint8) (*uint256.Int, error) {
	value, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(errs.InvalidArgument, "invalid amount %q", s)
	}
	if value.IsNegative() {
		return nil, errors.Wrapf(errs.InvalidArgument, "negative amount %q", s)
	}
	scaled := value.Mul(PowerOfTen(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errors.Wrapf(errs.InvalidArgument, "amount %q has more than %d decimals", s, decimals)
	}
	result, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, errors.Wrapf(errs.OverflowUint256, "amount %q", s)
	}
	return result, nil
}

// ToRate parses a decimal conversion rate such as "0.5" into its 18 decimal fixed point form.
func ToRate(s string) (uint128.Uint128, error) {
	v, err := ToUint256(s, RateDecimals)
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	if v.BitLen() > 128 {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "rate %q does not fit 128 bits", s)
	}
	return uint128.New(v[0], v[1]), nil
}
