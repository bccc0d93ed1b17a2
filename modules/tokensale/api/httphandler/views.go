package httphandler

import (
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/pkg/decimals"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// Amounts are decimal strings in base units. Formatted amounts apply the sale token decimals.

type tokenView struct {
	Chain         common.ChainID    `json:"chain"`
	Address       address.Universal `json:"address"`
	NativeAddress string            `json:"nativeAddress,omitempty"`
	Decimals      uint8             `json:"decimals"`
}

type acceptedTokenView struct {
	Index          uint8             `json:"index"`
	Chain          common.ChainID    `json:"chain"`
	Address        address.Universal `json:"address"`
	NativeAddress  string            `json:"nativeAddress,omitempty"`
	ConversionRate string            `json:"conversionRate"`
}

type termsView struct {
	ID                   entity.SaleID       `json:"id"`
	Token                tokenView           `json:"token"`
	TokenAmount          *string             `json:"tokenAmount"`
	TokenAmountFormatted *string             `json:"tokenAmountFormatted"`
	MinRaise             *string             `json:"minRaise"`
	MaxRaise             *string             `json:"maxRaise"`
	SaleStart            uint64              `json:"saleStart"`
	SaleEnd              uint64              `json:"saleEnd"`
	UnlockTimestamp      uint64              `json:"unlockTimestamp"`
	AcceptedTokens       []acceptedTokenView `json:"acceptedTokens"`
	Recipient            address.Universal   `json:"recipient"`
	RefundRecipient      address.Universal   `json:"refundRecipient"`
	Authority            *entity.Authority   `json:"authority"`
	Initiator            address.Universal   `json:"initiator"`
}

type conductorTokenView struct {
	Index              uint8   `json:"index"`
	Contributed        string  `json:"contributed"`
	Collected          bool    `json:"collected"`
	Allocation         *string `json:"allocation"`
	ExcessContribution *string `json:"excessContribution"`
}

type conductorSaleView struct {
	Terms   termsView            `json:"terms"`
	Status  entity.SaleStatus    `json:"status"`
	Tokens  []conductorTokenView `json:"tokens"`
	Missing []int                `json:"uncollectedTokens"` // token indices still awaiting attestation
}

type contributorTokenView struct {
	Index              uint8   `json:"index"`
	Contributed        string  `json:"contributed"`
	Allocation         *string `json:"allocation"`
	ExcessContribution *string `json:"excessContribution"`
}

type contributorSaleView struct {
	Terms  termsView              `json:"terms"`
	Status entity.SaleStatus      `json:"status"`
	Tokens []contributorTokenView `json:"tokens"`
}

type contributionView struct {
	SaleID            entity.SaleID     `json:"saleId"`
	TokenIndex        uint8             `json:"tokenIndex"`
	Buyer             address.Universal `json:"buyer"`
	Amount            string            `json:"amount"`
	AllocationClaimed bool              `json:"allocationClaimed"`
	RefundClaimed     bool              `json:"refundClaimed"`
	ExcessClaimed     bool              `json:"excessClaimed"`
}

type allocationView struct {
	TokenIndex         uint8  `json:"tokenIndex"`
	Allocation         string `json:"allocation"`
	ExcessContribution string `json:"excessContribution"`
}

func amountPtr(v *uint256.Int) *string {
	if v == nil {
		return nil
	}
	return lo.ToPtr(v.Dec())
}

func nativeAddress(chain common.ChainID, u address.Universal) string {
	native, err := address.FromUniversal(u, chain)
	if err != nil {
		return ""
	}
	s, err := address.FormatNative(chain, native)
	if err != nil {
		return ""
	}
	return s
}

func newTermsView(t entity.SaleTerms) termsView {
	view := termsView{
		ID: t.ID,
		Token: tokenView{
			Chain:         t.Token.Chain,
			Address:       t.Token.Address,
			NativeAddress: nativeAddress(t.Token.Chain, t.Token.Address),
			Decimals:      t.Token.Decimals,
		},
		TokenAmount:     amountPtr(t.TokenAmount),
		MinRaise:        amountPtr(t.MinRaise),
		MaxRaise:        amountPtr(t.MaxRaise),
		SaleStart:       t.SaleStart,
		SaleEnd:         t.SaleEnd,
		UnlockTimestamp: t.UnlockTimestamp,
		AcceptedTokens: lo.Map(t.AcceptedTokens, func(token entity.AcceptedToken, _ int) acceptedTokenView {
			return acceptedTokenView{
				Index:          token.Index,
				Chain:          token.Chain,
				Address:        token.Address,
				NativeAddress:  nativeAddress(token.Chain, token.Address),
				ConversionRate: decimals.FromRate(token.ConversionRate).String(),
			}
		}),
		Recipient:       t.Recipient,
		RefundRecipient: t.RefundRecipient,
		Initiator:       t.Initiator,
	}
	if t.TokenAmount != nil {
		view.TokenAmountFormatted = lo.ToPtr(decimals.FromUint256(t.TokenAmount, t.Token.Decimals).String())
	}
	if !t.Authority.IsZero() {
		view.Authority = lo.ToPtr(t.Authority)
	}
	return view
}

func newConductorSaleView(sale entity.ConductorSale) conductorSaleView {
	allocations := lo.KeyBy(sale.Allocations, func(a entity.Allocation) uint8 { return a.TokenIndex })
	return conductorSaleView{
		Terms:  newTermsView(sale.Terms),
		Status: sale.Status,
		Tokens: lo.Map(sale.Tokens, func(token entity.ConductorTokenState, _ int) conductorTokenView {
			view := conductorTokenView{
				Index:       token.Index,
				Contributed: token.Contributed.Dec(),
				Collected:   token.Collected,
			}
			if a, ok := allocations[token.Index]; ok {
				view.Allocation = amountPtr(a.Allocation)
				view.ExcessContribution = amountPtr(a.ExcessContribution)
			}
			return view
		}),
		Missing: lo.Map(sale.MissingIndices(), func(index uint8, _ int) int { return int(index) }),
	}
}

func newContributorSaleView(sale entity.ContributorSale) contributorSaleView {
	return contributorSaleView{
		Terms:  newTermsView(sale.Terms),
		Status: sale.Status,
		Tokens: lo.Map(sale.Tokens, func(token entity.ContributorTokenState, _ int) contributorTokenView {
			return contributorTokenView{
				Index:              token.Index,
				Contributed:        token.Contributed.Dec(),
				Allocation:         amountPtr(token.Allocation),
				ExcessContribution: amountPtr(token.ExcessContribution),
			}
		}),
	}
}

func newContributionView(c entity.Contribution) contributionView {
	return contributionView{
		SaleID:            c.SaleID,
		TokenIndex:        c.TokenIndex,
		Buyer:             c.Buyer,
		Amount:            c.Amount.Dec(),
		AllocationClaimed: c.AllocationClaimed,
		RefundClaimed:     c.RefundClaimed,
		ExcessClaimed:     c.ExcessClaimed,
	}
}

func newAllocationViews(allocations []entity.Allocation) []allocationView {
	return lo.Map(allocations, func(a entity.Allocation, _ int) allocationView {
		return allocationView{
			TokenIndex:         a.TokenIndex,
			Allocation:         a.Allocation.Dec(),
			ExcessContribution: a.ExcessContribution.Dec(),
		}
	})
}

type emitterView struct {
	Chain   common.ChainID    `json:"chain"`
	Address address.Universal `json:"address"`
}

func newEmitterView(e entity.RegisteredEmitter) emitterView {
	return emitterView{Chain: e.Chain, Address: e.Address}
}
