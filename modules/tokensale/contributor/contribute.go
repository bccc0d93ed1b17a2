package contributor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/authz"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

type ContributeParams struct {
	SaleID     entity.SaleID
	TokenIndex uint8
	Buyer      address.Universal
	Amount     *uint256.Int
	// Signature is the sale authority's approval, required when the sale has an authority.
	Signature []byte
}

// Contribute escrows amount of an accepted token from buyer. No cap is enforced
// locally, the conductor refunds any excess after aggregation.
func (c *Contributor) Contribute(ctx context.Context, params ContributeParams, now uint64) (*entity.Contribution, error) {
	var result *entity.Contribution
	err := c.update(ctx, "contribute", func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx) error {
		sale, err := getActiveSale(ctx, dg, params.SaleID)
		if err != nil {
			return err
		}
		if now < sale.Terms.SaleStart {
			return errors.Wrapf(ErrSaleNotStarted, "sale %s starts at %d", params.SaleID, sale.Terms.SaleStart)
		}
		if now > sale.Terms.SaleEnd {
			return errors.Wrapf(ErrSaleEnded, "sale %s ended at %d", params.SaleID, sale.Terms.SaleEnd)
		}
		token, ok := sale.Terms.AcceptedToken(params.TokenIndex)
		state, hasState := sale.Token(params.TokenIndex)
		if !ok || !hasState {
			return errors.Wrapf(ErrTokenIndex, "index %d", params.TokenIndex)
		}
		if params.Amount == nil || params.Amount.IsZero() {
			return errors.WithStack(ErrInvalidAmount)
		}

		contribution, err := dg.GetContribution(ctx, params.SaleID, params.TokenIndex, params.Buyer)
		switch {
		case errors.Is(err, errs.NotFound):
			contribution = &entity.Contribution{
				SaleID:     params.SaleID,
				TokenIndex: params.TokenIndex,
				Buyer:      params.Buyer,
				Amount:     uint256.NewInt(0),
			}
		case err != nil:
			return errors.Wrap(err, "failed to get contribution")
		}

		if !sale.Terms.Authority.IsZero() {
			digest := authz.ContributionDigest(params.SaleID, params.TokenIndex, params.Amount, params.Buyer, contribution.Amount)
			if err := authz.Verify(sale.Terms.Authority, params.Signature, digest); err != nil {
				return errors.Wrapf(ErrBadKYCSignature, "buyer %s: %v", params.Buyer, err)
			}
		}

		amount, overflow := new(uint256.Int).AddOverflow(contribution.Amount, params.Amount)
		total, totalOverflow := new(uint256.Int).AddOverflow(state.Contributed, params.Amount)
		if overflow || totalOverflow {
			return errors.Wrapf(errs.OverflowUint256, "contribution to index %d", params.TokenIndex)
		}

		contribution.Amount = amount
		state.Contributed = total
		if err := dg.SetContribution(ctx, *contribution); err != nil {
			return errors.Wrap(err, "failed to set contribution")
		}
		if err := dg.UpdateContributorSale(ctx, *sale); err != nil {
			return errors.Wrap(err, "failed to update sale")
		}

		// Funds move only after every write of the tx succeeded.
		if err := c.custody.TransferIn(ctx, token.Address, params.Buyer, params.Amount); err != nil {
			return errors.Wrap(err, "failed to transfer contribution into escrow")
		}

		result = contribution
		eventlog.Applied(ctx, "contribute",
			slogx.Stringer("sale", params.SaleID),
			slogx.Uint8("token_index", params.TokenIndex),
			slogx.Stringer("buyer", params.Buyer),
			slogx.String("amount", params.Amount.Dec()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AttestContributions returns the ContributionsSealed payload of the local totals. It
// may be called again until the sale is finalized, the conductor collects once.
func (c *Contributor) AttestContributions(ctx context.Context, saleID entity.SaleID, now uint64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sale, err := getActiveSale(ctx, c.dg, saleID)
	if err != nil {
		return nil, err
	}
	if now <= sale.Terms.SaleEnd {
		return nil, errors.Wrapf(ErrSaleNotEnded, "sale %s ends at %d", saleID, sale.Terms.SaleEnd)
	}

	b, err := (&payload.ContributionsSealed{
		SaleID:  saleID,
		ChainID: c.opts.ChainID,
		Contributions: lo.Map(sale.Tokens, func(t entity.ContributorTokenState, _ int) payload.Contribution {
			return payload.Contribution{TokenIndex: t.Index, Amount: t.Contributed}
		}),
	}).Encode()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode contributions")
	}
	return b, nil
}
