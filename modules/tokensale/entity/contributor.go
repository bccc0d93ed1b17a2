package entity

import (
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// ContributorSale is a contributor chain's local view of a sale. Terms.AcceptedTokens
// holds only the tokens of the local chain, keeping their global index.
type ContributorSale struct {
	Terms  SaleTerms
	Status SaleStatus
	Tokens []ContributorTokenState
}

type ContributorTokenState struct {
	Index uint8
	// Contributed is the local running total of the token.
	Contributed *uint256.Int
	// Allocation and ExcessContribution are known once the sale is sealed.
	Allocation         *uint256.Int
	ExcessContribution *uint256.Int
}

// Token returns the local state of a token index.
func (s *ContributorSale) Token(index uint8) (*ContributorTokenState, bool) {
	for i := range s.Tokens {
		if s.Tokens[i].Index == index {
			return &s.Tokens[i], true
		}
	}
	return nil, false
}

func (s ContributorSale) Clone() ContributorSale {
	s.Terms = s.Terms.Clone()
	s.Tokens = lo.Map(s.Tokens, func(token ContributorTokenState, _ int) ContributorTokenState {
		token.Contributed = cloneInt(token.Contributed)
		token.Allocation = cloneInt(token.Allocation)
		token.ExcessContribution = cloneInt(token.ExcessContribution)
		return token
	})
	return s
}

// Contribution is keyed by (sale id, token index, buyer). Each claim flag is independent.
type Contribution struct {
	SaleID            SaleID
	TokenIndex        uint8
	Buyer             address.Universal
	Amount            *uint256.Int
	AllocationClaimed bool
	RefundClaimed     bool
	ExcessClaimed     bool
}

func (c Contribution) Clone() Contribution {
	c.Amount = cloneInt(c.Amount)
	return c
}
