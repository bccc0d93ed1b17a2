package conductor

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// RemainderPolicy decides which tokens receive the integer division dust of the allocations.
type RemainderPolicy string

const (
	// RemainderFirstIndex adds all dust to the first accepted token.
	RemainderFirstIndex RemainderPolicy = "first_index"
	// RemainderLargest hands out dust one unit at a time by largest division remainder,
	// lower index first on ties.
	RemainderLargest RemainderPolicy = "largest_remainder"
)

var ErrUnknownRemainderPolicy = errors.New("unknown remainder policy")

func ParseRemainderPolicy(s string) (RemainderPolicy, error) {
	switch p := RemainderPolicy(strings.ToLower(s)); p {
	case "":
		return RemainderFirstIndex, nil
	case RemainderFirstIndex, RemainderLargest:
		return p, nil
	}
	return "", errors.Wrapf(ErrUnknownRemainderPolicy, "%q", s)
}

var rateDenominator = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(entity.ConversionRateDecimals))

// Outcome is the seal decision of a sale.
type Outcome struct {
	Status entity.SaleStatus
	// Raised is the sum of all contributions in the denomination currency.
	Raised      *uint256.Int
	Allocations []entity.Allocation // nil when aborted
}

// Decide computes the outcome of a sale whose contributions were all collected.
// Allocations of a sealed sale sum to the offered token amount exactly.
func Decide(sale *entity.ConductorSale, policy RemainderPolicy) (*Outcome, error) {
	terms := &sale.Terms
	converted := make([]*uint256.Int, len(sale.Tokens))
	raised := new(uint256.Int)
	for i, state := range sale.Tokens {
		token, ok := terms.AcceptedToken(state.Index)
		if !ok {
			return nil, errors.Wrapf(ErrTokenIndex, "index %d has no terms", state.Index)
		}
		rate := &uint256.Int{token.ConversionRate.Lo, token.ConversionRate.Hi, 0, 0}
		value, overflow := new(uint256.Int).MulDivOverflow(state.Contributed, rate, rateDenominator)
		if overflow {
			return nil, errors.Wrapf(errs.OverflowUint256, "converted contribution of index %d", state.Index)
		}
		converted[i] = value
		if _, overflow := raised.AddOverflow(raised, value); overflow {
			return nil, errors.Wrap(errs.OverflowUint256, "total raised")
		}
	}

	if raised.IsZero() || raised.Lt(terms.MinRaise) {
		return &Outcome{Status: entity.SaleStatusAborted, Raised: raised}, nil
	}

	excessRaise := new(uint256.Int)
	if raised.Gt(terms.MaxRaise) {
		excessRaise.Sub(raised, terms.MaxRaise)
	}

	allocations := make([]entity.Allocation, len(sale.Tokens))
	remainders := make([]*uint256.Int, len(sale.Tokens))
	distributed := new(uint256.Int)
	for i, state := range sale.Tokens {
		// converted[i] <= raised, so the quotient fits
		alloc, _ := new(uint256.Int).MulDivOverflow(terms.TokenAmount, converted[i], raised)
		remainders[i] = new(uint256.Int).MulMod(terms.TokenAmount, converted[i], raised)
		distributed.Add(distributed, alloc)

		excess := new(uint256.Int)
		if !excessRaise.IsZero() {
			excess, _ = excess.MulDivOverflow(state.Contributed, excessRaise, raised)
		}
		allocations[i] = entity.Allocation{
			TokenIndex:         state.Index,
			Allocation:         alloc,
			ExcessContribution: excess,
		}
	}

	dust := new(uint256.Int).Sub(terms.TokenAmount, distributed)
	if err := distributeDust(allocations, converted, remainders, dust, policy); err != nil {
		return nil, err
	}

	total := lo.Reduce(allocations, func(sum *uint256.Int, a entity.Allocation, _ int) *uint256.Int {
		return sum.Add(sum, a.Allocation)
	}, new(uint256.Int))
	if !total.Eq(terms.TokenAmount) {
		return nil, errors.Newf("allocations sum to %s, offered %s", total.Dec(), terms.TokenAmount.Dec())
	}

	return &Outcome{
		Status:      entity.SaleStatusSealed,
		Raised:      raised,
		Allocations: allocations,
	}, nil
}

func distributeDust(allocations []entity.Allocation, converted, remainders []*uint256.Int, dust *uint256.Int, policy RemainderPolicy) error {
	if dust.IsZero() {
		return nil
	}
	switch policy {
	case RemainderFirstIndex, "":
		// the first token anybody contributed, since only contributors can claim
		for i, value := range converted {
			if !value.IsZero() {
				allocations[i].Allocation.Add(allocations[i].Allocation, dust)
				return nil
			}
		}
		return errors.New("no contributed token to receive dust")
	case RemainderLargest:
		// dust is below the number of tokens with a non-zero remainder
		order := lo.Range(len(allocations))
		sort.SliceStable(order, func(a, b int) bool {
			return remainders[order[a]].Gt(remainders[order[b]])
		})
		one := uint256.NewInt(1)
		for _, i := range order {
			if dust.IsZero() {
				break
			}
			allocations[i].Allocation.Add(allocations[i].Allocation, one)
			dust.Sub(dust, one)
		}
		return nil
	}
	return errors.Wrapf(ErrUnknownRemainderPolicy, "%q", policy)
}
