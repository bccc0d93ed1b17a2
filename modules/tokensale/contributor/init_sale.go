package contributor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// InitSale stores the terms of a sale announced by the conductor. Solana contributors
// take the SolanaSaleInit variant, every other chain takes SaleInit.
func (c *Contributor) InitSale(ctx context.Context, raw []byte, now uint64) (*entity.ContributorSale, error) {
	return c.applyEnvelope(ctx, "init_sale", raw, func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA) (*entity.ContributorSale, error) {
		return c.initSale(ctx, dg, v, now)
	})
}

func (c *Contributor) initSale(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA, now uint64) (*entity.ContributorSale, error) {
	terms, err := c.decodeTerms(v.Payload)
	if err != nil {
		return nil, err
	}
	if now > terms.SaleEnd {
		return nil, errors.Wrapf(ErrAlreadyExpired, "sale %s ended at %d", terms.ID, terms.SaleEnd)
	}
	_, err = dg.GetContributorSale(ctx, terms.ID)
	switch {
	case err == nil:
		return nil, errors.Wrapf(ErrAlreadyInitialized, "sale %s", terms.ID)
	case !errors.Is(err, errs.NotFound):
		return nil, errors.Wrap(err, "failed to get sale")
	}

	sale := entity.ContributorSale{
		Terms:  *terms,
		Status: entity.SaleStatusActive,
		Tokens: lo.Map(terms.AcceptedTokens, func(t entity.AcceptedToken, _ int) entity.ContributorTokenState {
			return entity.ContributorTokenState{Index: t.Index, Contributed: uint256.NewInt(0)}
		}),
	}
	if err := dg.CreateContributorSale(ctx, sale); err != nil {
		return nil, errors.Wrap(err, "failed to create sale")
	}
	eventlog.Applied(ctx, "init_sale",
		slogx.Stringer("sale", terms.ID),
		slogx.Int("local_tokens", len(sale.Tokens)),
	)
	return &sale, nil
}

// decodeTerms returns the local view of announced terms: only the accepted tokens of
// this chain are kept. Raise bounds and token amount are not announced.
func (c *Contributor) decodeTerms(b []byte) (*entity.SaleTerms, error) {
	id, err := payload.PeekID(b)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	solana := c.opts.ChainID == common.ChainSolana

	switch id {
	case payload.IDSaleInit:
		if solana {
			return nil, errors.Wrap(ErrWrongVariant, "solana takes SolanaSaleInit")
		}
		msg, err := payload.DecodeSaleInit(b)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		terms := &entity.SaleTerms{
			ID:              msg.SaleID,
			Token:           entity.TokenDescriptor{Chain: msg.TokenChain, Address: msg.TokenAddress, Decimals: msg.TokenDecimals},
			SaleStart:       msg.SaleStart,
			SaleEnd:         msg.SaleEnd,
			UnlockTimestamp: msg.UnlockTimestamp,
			Recipient:       msg.Recipient,
			Authority:       msg.Authority,
		}
		for i, token := range msg.AcceptedTokens {
			if token.Chain != c.opts.ChainID {
				continue
			}
			terms.AcceptedTokens = append(terms.AcceptedTokens, entity.AcceptedToken{
				Index:          uint8(i),
				Chain:          token.Chain,
				Address:        token.Address,
				ConversionRate: token.ConversionRate,
			})
		}
		return terms, nil

	case payload.IDSolanaSaleInit:
		if !solana {
			return nil, errors.Wrapf(ErrWrongVariant, "%s takes SaleInit", c.opts.ChainID)
		}
		msg, err := payload.DecodeSolanaSaleInit(b)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &entity.SaleTerms{
			ID:              msg.SaleID,
			Token:           entity.TokenDescriptor{Chain: msg.TokenChain, Address: msg.TokenAddress, Decimals: msg.TokenDecimals},
			SaleStart:       msg.SaleStart,
			SaleEnd:         msg.SaleEnd,
			UnlockTimestamp: msg.UnlockTimestamp,
			Recipient:       msg.Recipient,
			Authority:       msg.Authority,
			AcceptedTokens: lo.Map(msg.AcceptedTokens, func(t payload.SolanaToken, _ int) entity.AcceptedToken {
				return entity.AcceptedToken{Index: t.Index, Chain: common.ChainSolana, Address: t.Address}
			}),
		}, nil
	}
	return nil, errors.Wrapf(ErrUnexpectedPayload, "%s is not a sale init", id)
}
