package conductor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/authz"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

type SealResult struct {
	Status      entity.SaleStatus
	Raised      *uint256.Int
	Allocations []entity.Allocation
	// Payload is the encoded SaleSealed or SaleAborted message.
	Payload []byte
}

// SealSale decides a sale once every chain's contributions were collected. The sale is
// sealed if the raise reached the minimum, otherwise it is aborted.
func (c *Conductor) SealSale(ctx context.Context, saleID entity.SaleID, now uint64) (*SealResult, error) {
	var result *SealResult
	err := c.update(ctx, "seal_sale", func(dg datagateway.ConductorDataGatewayWithTx) error {
		sale, err := getSale(ctx, dg, saleID)
		if err != nil {
			return err
		}
		if sale.Status.IsTerminal() {
			return errors.Wrapf(ErrAlreadyFinalized, "sale %s is %s", saleID, sale.Status)
		}
		if now <= sale.Terms.SaleEnd {
			return errors.Wrapf(ErrSaleNotEnded, "sale %s ends at %d", saleID, sale.Terms.SaleEnd)
		}
		if missing := sale.MissingIndices(); len(missing) > 0 {
			return errors.Wrapf(ErrContributionsMissing, "token indices %v", missing)
		}

		outcome, err := Decide(sale, c.opts.RemainderPolicy)
		if err != nil {
			return errors.WithStack(err)
		}
		result, err = finalize(ctx, dg, sale, outcome)
		if err != nil {
			return err
		}
		eventlog.Applied(ctx, "seal_sale",
			slogx.Stringer("sale", saleID),
			slogx.Stringer("status", outcome.Status),
			slogx.String("raised", outcome.Raised.Dec()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AbortSaleBeforeStart cancels a sale that has not started. signature is the initiator's
// or the authority's signature over the abort digest of the sale.
func (c *Conductor) AbortSaleBeforeStart(ctx context.Context, saleID entity.SaleID, signature []byte, now uint64) (*SealResult, error) {
	var result *SealResult
	err := c.update(ctx, "abort_sale", func(dg datagateway.ConductorDataGatewayWithTx) error {
		sale, err := getSale(ctx, dg, saleID)
		if err != nil {
			return err
		}
		if sale.Status.IsTerminal() {
			return errors.Wrapf(ErrAlreadyFinalized, "sale %s is %s", saleID, sale.Status)
		}
		signer, err := authz.Signer(signature, authz.AbortDigest(saleID))
		if err != nil {
			return errors.Wrapf(ErrBadAuthoritySignature, "sale %s: %v", saleID, err)
		}
		if signer.Universal() != sale.Terms.Initiator && signer != sale.Terms.Authority {
			return errors.Wrapf(ErrUnauthorized, "%s is neither initiator nor authority of sale %s", signer, saleID)
		}
		if now >= sale.Terms.SaleStart {
			return errors.Wrapf(ErrSaleStarted, "sale %s started at %d", saleID, sale.Terms.SaleStart)
		}

		result, err = finalize(ctx, dg, sale, &Outcome{Status: entity.SaleStatusAborted, Raised: new(uint256.Int)})
		if err != nil {
			return err
		}
		eventlog.Applied(ctx, "abort_sale", slogx.Stringer("sale", saleID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func finalize(ctx context.Context, dg datagateway.ConductorWriterDataGateway, sale *entity.ConductorSale, outcome *Outcome) (*SealResult, error) {
	if !sale.Status.CanTransition(outcome.Status) {
		return nil, errors.Wrapf(ErrAlreadyFinalized, "sale %s cannot move from %s to %s", sale.Terms.ID, sale.Status, outcome.Status)
	}

	var msg payload.Payload = &payload.SaleAborted{SaleID: sale.Terms.ID}
	if outcome.Status == entity.SaleStatusSealed {
		msg = &payload.SaleSealed{
			SaleID: sale.Terms.ID,
			Allocations: lo.Map(outcome.Allocations, func(a entity.Allocation, _ int) payload.Allocation {
				return payload.Allocation{
					TokenIndex:         a.TokenIndex,
					Allocation:         a.Allocation,
					ExcessContribution: a.ExcessContribution,
				}
			}),
		}
	}
	encoded, err := msg.Encode()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", msg.PayloadID())
	}

	sale.Status = outcome.Status
	sale.Allocations = outcome.Allocations
	if err := dg.UpdateConductorSale(ctx, *sale); err != nil {
		return nil, errors.Wrap(err, "failed to update sale")
	}
	return &SealResult{
		Status:      outcome.Status,
		Raised:      outcome.Raised,
		Allocations: outcome.Allocations,
		Payload:     encoded,
	}, nil
}
