package decimals

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// 10^78 exceeds any uint256 value.
const maxPowerOfTen = 78

var powerOfTen = func() [maxPowerOfTen + 1]decimal.Decimal {
	var table [maxPowerOfTen + 1]decimal.Decimal
	for i := range table {
		table[i] = decimal.New(1, int32(i))
	}
	return table
}()

// PowerOfTen returns 10^n, from a table when 0 <= n <= 78.
func PowerOfTen[T constraints.Integer](n T) decimal.Decimal {
	if n >= 0 && int64(n) <= maxPowerOfTen {
		return powerOfTen[int64(n)]
	}
	return decimal.New(1, int32(n))
}
