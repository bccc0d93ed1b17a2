package contributor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
)

// SaleSealed stores the allocations of the local tokens and seals the sale.
func (c *Contributor) SaleSealed(ctx context.Context, raw []byte) (*entity.ContributorSale, error) {
	return c.applyEnvelope(ctx, "sale_sealed", raw, c.saleSealed)
}

// SaleAborted aborts the sale, opening refunds.
func (c *Contributor) SaleAborted(ctx context.Context, raw []byte) (*entity.ContributorSale, error) {
	return c.applyEnvelope(ctx, "sale_aborted", raw, c.saleAborted)
}

// AuthorityUpdated applies an authority rotation of an active sale.
func (c *Contributor) AuthorityUpdated(ctx context.Context, raw []byte) (*entity.ContributorSale, error) {
	return c.applyEnvelope(ctx, "authority_updated", raw, c.authorityUpdated)
}

type SubmitResult struct {
	PayloadID payload.ID
	Sale      *entity.ContributorSale
}

// Submit applies any conductor envelope, dispatching on its payload id.
func (c *Contributor) Submit(ctx context.Context, raw []byte, now uint64) (*SubmitResult, error) {
	var id payload.ID
	sale, err := c.applyEnvelope(ctx, "submit", raw, func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA) (*entity.ContributorSale, error) {
		var err error
		id, err = payload.PeekID(v.Payload)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		switch id {
		case payload.IDSaleInit, payload.IDSolanaSaleInit:
			return c.initSale(ctx, dg, v, now)
		case payload.IDSaleSealed:
			return c.saleSealed(ctx, dg, v)
		case payload.IDSaleAborted:
			return c.saleAborted(ctx, dg, v)
		case payload.IDAuthorityUpdated:
			return c.authorityUpdated(ctx, dg, v)
		}
		return nil, errors.Wrapf(ErrUnexpectedPayload, "payload %s", id)
	})
	if err != nil {
		return nil, err
	}
	return &SubmitResult{PayloadID: id, Sale: sale}, nil
}

func (c *Contributor) saleSealed(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA) (*entity.ContributorSale, error) {
	msg, err := payload.DecodeSaleSealed(v.Payload)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sale, err := getActiveSale(ctx, dg, msg.SaleID)
	if err != nil {
		return nil, err
	}

	allocations := make(map[uint8]payload.Allocation, len(msg.Allocations))
	for _, a := range msg.Allocations {
		allocations[a.TokenIndex] = a
	}
	for i := range sale.Tokens {
		state := &sale.Tokens[i]
		a, ok := allocations[state.Index]
		if !ok {
			return nil, errors.Wrapf(ErrMissingAllocation, "index %d", state.Index)
		}
		state.Allocation = a.Allocation
		state.ExcessContribution = a.ExcessContribution
	}
	if err := transition(ctx, dg, sale, entity.SaleStatusSealed); err != nil {
		return nil, err
	}
	return sale, nil
}

func (c *Contributor) saleAborted(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA) (*entity.ContributorSale, error) {
	msg, err := payload.DecodeSaleAborted(v.Payload)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sale, err := getActiveSale(ctx, dg, msg.SaleID)
	if err != nil {
		return nil, err
	}
	if err := transition(ctx, dg, sale, entity.SaleStatusAborted); err != nil {
		return nil, err
	}
	return sale, nil
}

func (c *Contributor) authorityUpdated(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA) (*entity.ContributorSale, error) {
	msg, err := payload.DecodeAuthorityUpdated(v.Payload)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sale, err := getActiveSale(ctx, dg, msg.SaleID)
	if err != nil {
		return nil, err
	}
	sale.Terms.Authority = msg.NewAuthority
	if err := dg.UpdateContributorSale(ctx, *sale); err != nil {
		return nil, errors.Wrap(err, "failed to update sale")
	}
	eventlog.Applied(ctx, "authority_updated",
		slogx.Stringer("sale", msg.SaleID),
		slogx.Stringer("authority", msg.NewAuthority),
	)
	return sale, nil
}

func transition(ctx context.Context, dg datagateway.ContributorWriterDataGateway, sale *entity.ContributorSale, next entity.SaleStatus) error {
	if !sale.Status.CanTransition(next) {
		return errors.Wrapf(ErrSaleNotActive, "sale %s cannot move from %s to %s", sale.Terms.ID, sale.Status, next)
	}
	sale.Status = next
	if err := dg.UpdateContributorSale(ctx, *sale); err != nil {
		return errors.Wrap(err, "failed to update sale")
	}
	eventlog.Applied(ctx, "sale_"+next.String(), slogx.Stringer("sale", sale.Terms.ID))
	return nil
}
