package conductor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

type AcceptedTokenParams struct {
	Chain          common.ChainID
	Address        address.Universal
	ConversionRate uint128.Uint128
}

type CreateSaleParams struct {
	Token           entity.TokenDescriptor
	TokenAmount     *uint256.Int
	MinRaise        *uint256.Int
	MaxRaise        *uint256.Int
	SaleStart       uint64
	SaleEnd         uint64
	UnlockTimestamp uint64
	// AcceptedTokens are indexed in the given order.
	AcceptedTokens  []AcceptedTokenParams
	Recipient       address.Universal
	RefundRecipient address.Universal
	Authority       entity.Authority
	Initiator       address.Universal
}

type CreateSaleResult struct {
	Terms    entity.SaleTerms
	SaleInit []byte
	// SolanaSaleInit is nil unless a token is accepted on Solana.
	SolanaSaleInit []byte
}

// CreateSale validates and stores the terms of a new sale and returns the payloads
// announcing it to the contributor chains.
func (c *Conductor) CreateSale(ctx context.Context, params CreateSaleParams, now uint64) (*CreateSaleResult, error) {
	var result *CreateSaleResult
	err := c.update(ctx, "create_sale", func(dg datagateway.ConductorDataGatewayWithTx) error {
		if err := params.Validate(now); err != nil {
			return errors.WithStack(err)
		}
		for _, chain := range lo.Uniq(lo.Map(params.AcceptedTokens, func(t AcceptedTokenParams, _ int) common.ChainID { return t.Chain })) {
			if _, err := dg.GetRegisteredEmitter(ctx, chain); err != nil {
				if errors.Is(err, errs.NotFound) {
					return errors.Wrapf(ErrChainNotRegistered, "chain %s", chain)
				}
				return errors.Wrap(err, "failed to get registered emitter")
			}
		}

		counter, err := dg.NextSaleCounter(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get next sale id")
		}
		terms := params.terms(entity.SaleIDFromCounter(counter))
		sale := entity.ConductorSale{
			Terms:  terms,
			Status: entity.SaleStatusActive,
			Tokens: lo.Map(terms.AcceptedTokens, func(t entity.AcceptedToken, _ int) entity.ConductorTokenState {
				return entity.ConductorTokenState{Index: t.Index, Contributed: uint256.NewInt(0)}
			}),
		}

		saleInit, solanaSaleInit, err := announce(terms)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := dg.CreateConductorSale(ctx, sale); err != nil {
			return errors.Wrap(err, "failed to create sale")
		}

		result = &CreateSaleResult{
			Terms:          terms.Clone(),
			SaleInit:       saleInit,
			SolanaSaleInit: solanaSaleInit,
		}
		eventlog.Applied(ctx, "create_sale",
			slogx.Stringer("sale", terms.ID),
			slogx.Int("accepted_tokens", len(terms.AcceptedTokens)),
			slogx.Uint64("sale_end", terms.SaleEnd),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Validate checks the sale terms invariants.
func (p CreateSaleParams) Validate(now uint64) error {
	switch {
	case len(p.AcceptedTokens) == 0:
		return errors.Wrap(ErrInvalidTerms, "no accepted tokens")
	case len(p.AcceptedTokens) > entity.MaxAcceptedTokens:
		return errors.Wrapf(ErrInvalidTerms, "%d accepted tokens, at most %d", len(p.AcceptedTokens), entity.MaxAcceptedTokens)
	case p.TokenAmount == nil || p.TokenAmount.IsZero():
		return errors.Wrap(ErrInvalidTerms, "token amount must be positive")
	case p.MinRaise == nil || p.MaxRaise == nil:
		return errors.Wrap(ErrInvalidTerms, "raise bounds are required")
	case p.MinRaise.Gt(p.MaxRaise):
		return errors.Wrapf(ErrInvalidTerms, "min raise %s exceeds max raise %s", p.MinRaise.Dec(), p.MaxRaise.Dec())
	case p.SaleStart >= p.SaleEnd:
		return errors.Wrap(ErrInvalidTerms, "sale must start before it ends")
	case p.SaleEnd <= now:
		return errors.Wrap(ErrInvalidTerms, "sale end is in the past")
	case p.UnlockTimestamp < p.SaleEnd:
		return errors.Wrap(ErrInvalidTerms, "unlock must not precede sale end")
	}

	if _, err := address.FromUniversal(p.Token.Address, p.Token.Chain); err != nil {
		return errors.Wrap(err, "sale token")
	}
	type tokenKey struct {
		chain   common.ChainID
		address address.Universal
	}
	seen := make(map[tokenKey]struct{}, len(p.AcceptedTokens))
	for i, token := range p.AcceptedTokens {
		if _, err := address.FromUniversal(token.Address, token.Chain); err != nil {
			return errors.Wrapf(err, "accepted token %d", i)
		}
		if token.ConversionRate.IsZero() {
			return errors.Wrapf(ErrInvalidTerms, "accepted token %d has zero conversion rate", i)
		}
		key := tokenKey{chain: token.Chain, address: token.Address}
		if _, ok := seen[key]; ok {
			return errors.Wrapf(ErrInvalidTerms, "accepted token %d is listed twice", i)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (p CreateSaleParams) terms(id entity.SaleID) entity.SaleTerms {
	return entity.SaleTerms{
		ID:              id,
		Token:           p.Token,
		TokenAmount:     p.TokenAmount.Clone(),
		MinRaise:        p.MinRaise.Clone(),
		MaxRaise:        p.MaxRaise.Clone(),
		SaleStart:       p.SaleStart,
		SaleEnd:         p.SaleEnd,
		UnlockTimestamp: p.UnlockTimestamp,
		AcceptedTokens: lo.Map(p.AcceptedTokens, func(t AcceptedTokenParams, i int) entity.AcceptedToken {
			return entity.AcceptedToken{
				Index:          uint8(i),
				Chain:          t.Chain,
				Address:        t.Address,
				ConversionRate: t.ConversionRate,
			}
		}),
		Recipient:       p.Recipient,
		RefundRecipient: p.RefundRecipient,
		Authority:       p.Authority,
		Initiator:       p.Initiator,
	}
}

func announce(terms entity.SaleTerms) (saleInit []byte, solanaSaleInit []byte, err error) {
	saleInit, err = (&payload.SaleInit{
		SaleID:        terms.ID,
		TokenAddress:  terms.Token.Address,
		TokenChain:    terms.Token.Chain,
		TokenDecimals: terms.Token.Decimals,
		SaleStart:     terms.SaleStart,
		SaleEnd:       terms.SaleEnd,
		AcceptedTokens: lo.Map(terms.AcceptedTokens, func(t entity.AcceptedToken, _ int) payload.AcceptedToken {
			return payload.AcceptedToken{Address: t.Address, Chain: t.Chain, ConversionRate: t.ConversionRate}
		}),
		Recipient:       terms.Recipient,
		Authority:       terms.Authority,
		UnlockTimestamp: terms.UnlockTimestamp,
	}).Encode()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode sale init")
	}

	solana := terms.TokensOnChain(common.ChainSolana)
	if len(solana) == 0 {
		return saleInit, nil, nil
	}
	solanaSaleInit, err = (&payload.SolanaSaleInit{
		SaleID:        terms.ID,
		TokenAddress:  terms.Token.Address,
		TokenChain:    terms.Token.Chain,
		TokenDecimals: terms.Token.Decimals,
		SaleStart:     terms.SaleStart,
		SaleEnd:       terms.SaleEnd,
		AcceptedTokens: lo.Map(solana, func(t entity.AcceptedToken, _ int) payload.SolanaToken {
			return payload.SolanaToken{Index: t.Index, Address: t.Address}
		}),
		Recipient:       terms.Recipient,
		Authority:       terms.Authority,
		UnlockTimestamp: terms.UnlockTimestamp,
	}).Encode()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode solana sale init")
	}
	return saleInit, solanaSaleInit, nil
}
