package entity

import (
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// ConductorSale is the canonical sale state held by the conductor.
type ConductorSale struct {
	Terms       SaleTerms
	Status      SaleStatus
	Tokens      []ConductorTokenState // one per accepted token, in index order
	Allocations []Allocation          // set once sealed
}

type ConductorTokenState struct {
	Index       uint8
	Contributed *uint256.Int
	// Collected is set once the owning chain's attestation has been consumed.
	Collected bool
}

// Allocation is the share of the sale token owed to the contributors of one accepted token.
type Allocation struct {
	TokenIndex         uint8
	Allocation         *uint256.Int
	ExcessContribution *uint256.Int
}

// RegisteredEmitter is the trusted contributor emitter of a chain.
type RegisteredEmitter struct {
	Chain   common.ChainID
	Address address.Universal
}

// MissingIndices returns the token indices whose contributions were not collected yet.
func (s *ConductorSale) MissingIndices() []uint8 {
	return lo.FilterMap(s.Tokens, func(token ConductorTokenState, _ int) (uint8, bool) {
		return token.Index, !token.Collected
	})
}

func (s ConductorSale) Clone() ConductorSale {
	s.Terms = s.Terms.Clone()
	s.Tokens = lo.Map(s.Tokens, func(token ConductorTokenState, _ int) ConductorTokenState {
		token.Contributed = cloneInt(token.Contributed)
		return token
	})
	s.Allocations = cloneAllocations(s.Allocations)
	return s
}

func cloneAllocations(allocations []Allocation) []Allocation {
	if allocations == nil {
		return nil
	}
	return lo.Map(allocations, func(a Allocation, _ int) Allocation {
		a.Allocation = cloneInt(a.Allocation)
		a.ExcessContribution = cloneInt(a.ExcessContribution)
		return a
	})
}
