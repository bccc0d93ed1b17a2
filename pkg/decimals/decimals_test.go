package decimals

import (
	"testing"

	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUint256(t *testing.T) {
	assert.Equal(t, "0", FromUint256(nil, 18).String())
	assert.Equal(t, "1.5", FromUint256(uint256.NewInt(1_500_000), 6).String())
	assert.Equal(t, "42", FromUint256(uint256.NewInt(42), 0).String())

	max := new(uint256.Int).SetAllOne()
	assert.Equal(t, max.Dec(), FromUint256(max, 0).String())
}

func TestFromRate(t *testing.T) {
	assert.Equal(t, "1", FromRate(uint128.From64(1_000_000_000_000_000_000)).String())
	assert.Equal(t, "0.25", FromRate(uint128.From64(250_000_000_000_000_000)).String())
}

func TestToUint256(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		decimals uint8
		expected uint64
		err      error
	}{
		{name: "integer", input: "12", decimals: 0, expected: 12},
		{name: "fraction", input: "12.5", decimals: 6, expected: 12_500_000},
		{name: "exact_precision", input: "0.000001", decimals: 6, expected: 1},
		{name: "too_precise", input: "0.0000001", decimals: 6, err: errs.InvalidArgument},
		{name: "negative", input: "-1", decimals: 6, err: errs.InvalidArgument},
		{name: "not_a_number", input: "abc", decimals: 6, err: errs.InvalidArgument},
		{name: "overflow", input: "1e80", decimals: 0, err: errs.OverflowUint256},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := ToUint256(tc.input, tc.decimals)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual.Uint64())
		})
	}
}

func TestToRate(t *testing.T) {
	rate, err := ToRate("1")
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(1_000_000_000_000_000_000), rate)

	rate, err = ToRate("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", FromRate(rate).String())

	_, err = ToRate("1e30")
	assert.ErrorIs(t, err, errs.InvalidArgument)
}
