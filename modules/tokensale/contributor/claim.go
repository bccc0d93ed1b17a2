package contributor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/holiman/uint256"
)

type claimKind int

const (
	claimAllocation claimKind = iota
	claimExcess
	claimRefund
)

var claimNames = map[claimKind]string{
	claimAllocation: "claim_allocation",
	claimExcess:     "claim_excess_contribution",
	claimRefund:     "claim_refund",
}

// ClaimAllocation pays buyer its share of the sale token allocated to tokenIndex.
func (c *Contributor) ClaimAllocation(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal, now uint64) (*uint256.Int, error) {
	return c.claim(ctx, claimAllocation, saleID, tokenIndex, buyer, now)
}

// ClaimExcessContribution refunds buyer its share of the contribution above the max raise.
func (c *Contributor) ClaimExcessContribution(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal, now uint64) (*uint256.Int, error) {
	return c.claim(ctx, claimExcess, saleID, tokenIndex, buyer, now)
}

// ClaimRefund returns the full contribution of buyer from an aborted sale.
func (c *Contributor) ClaimRefund(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal, now uint64) (*uint256.Int, error) {
	return c.claim(ctx, claimRefund, saleID, tokenIndex, buyer, now)
}

// claim marks the contribution as claimed before releasing funds. A failed transfer
// rolls the mark back with the transaction.
func (c *Contributor) claim(ctx context.Context, kind claimKind, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal, now uint64) (*uint256.Int, error) {
	var released *uint256.Int
	op := claimNames[kind]
	err := c.update(ctx, op, func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx) error {
		sale, err := getSale(ctx, dg, saleID)
		if err != nil {
			return err
		}
		switch {
		case kind == claimRefund && sale.Status != entity.SaleStatusAborted:
			return errors.Wrapf(ErrSaleNotAborted, "sale %s is %s", saleID, sale.Status)
		case kind != claimRefund && sale.Status != entity.SaleStatusSealed:
			return errors.Wrapf(ErrSaleNotSealed, "sale %s is %s", saleID, sale.Status)
		}
		token, ok := sale.Terms.AcceptedToken(tokenIndex)
		state, hasState := sale.Token(tokenIndex)
		if !ok || !hasState {
			return errors.Wrapf(ErrTokenIndex, "index %d", tokenIndex)
		}

		contribution, err := dg.GetContribution(ctx, saleID, tokenIndex, buyer)
		if errors.Is(err, errs.NotFound) || (err == nil && contribution.Amount.IsZero()) {
			return errors.Wrapf(ErrNothingToClaim, "buyer %s token %d", buyer, tokenIndex)
		}
		if err != nil {
			return errors.Wrap(err, "failed to get contribution")
		}

		var (
			flag     *bool
			payToken = token.Address
		)
		switch kind {
		case claimAllocation:
			flag = &contribution.AllocationClaimed
			payToken = sale.Terms.Token.Address
		case claimExcess:
			flag = &contribution.ExcessClaimed
		case claimRefund:
			flag = &contribution.RefundClaimed
		}
		if *flag {
			return errors.Wrapf(ErrAlreadyClaimed, "%s of buyer %s token %d", op, buyer, tokenIndex)
		}
		if kind == claimAllocation && now < sale.Terms.UnlockTimestamp {
			return errors.Wrapf(ErrLocked, "unlocks at %d", sale.Terms.UnlockTimestamp)
		}

		amount, err := claimable(kind, state, contribution.Amount)
		if err != nil {
			return err
		}

		*flag = true
		if err := dg.SetContribution(ctx, *contribution); err != nil {
			return errors.Wrap(err, "failed to set contribution")
		}
		if !amount.IsZero() {
			if err := c.custody.TransferOut(ctx, payToken, buyer, amount); err != nil {
				return errors.Wrap(err, "failed to release funds")
			}
		}

		released = amount
		eventlog.Applied(ctx, op,
			slogx.Stringer("sale", saleID),
			slogx.Uint8("token_index", tokenIndex),
			slogx.Stringer("buyer", buyer),
			slogx.String("amount", amount.Dec()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// claimable is the buyer's pro-rata share of the token's allocation or excess, or the
// whole contribution for a refund.
func claimable(kind claimKind, state *entity.ContributorTokenState, contributed *uint256.Int) (*uint256.Int, error) {
	var pool *uint256.Int
	switch kind {
	case claimRefund:
		return contributed.Clone(), nil
	case claimAllocation:
		pool = state.Allocation
	case claimExcess:
		pool = state.ExcessContribution
	}
	if pool == nil || pool.IsZero() || state.Contributed.IsZero() {
		return new(uint256.Int), nil
	}
	share, overflow := new(uint256.Int).MulDivOverflow(pool, contributed, state.Contributed)
	if overflow {
		return nil, errors.Wrapf(errs.OverflowUint256, "share of index %d", state.Index)
	}
	return share, nil
}
