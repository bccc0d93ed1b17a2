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
)

// UpdateSaleAuthority rotates the authority of an active sale. signature is the current
// authority's signature over the sale id and the new authority. It returns the
// AuthorityUpdated payload for the contributor chains.
func (c *Conductor) UpdateSaleAuthority(ctx context.Context, saleID entity.SaleID, newAuthority entity.Authority, signature []byte) ([]byte, error) {
	var encoded []byte
	err := c.update(ctx, "update_sale_authority", func(dg datagateway.ConductorDataGatewayWithTx) error {
		sale, err := getSale(ctx, dg, saleID)
		if err != nil {
			return err
		}
		if sale.Status != entity.SaleStatusActive {
			return errors.Wrapf(ErrSaleFinalized, "sale %s is %s", saleID, sale.Status)
		}
		if sale.Terms.Authority.IsZero() {
			return errors.Wrapf(ErrUnauthorized, "sale %s has no authority", saleID)
		}
		if newAuthority.IsZero() {
			return errors.WithStack(ErrInvalidAuthority)
		}
		digest := authz.AuthorityUpdateDigest(saleID, newAuthority)
		if err := authz.Verify(sale.Terms.Authority, signature, digest); err != nil {
			return errors.Wrapf(ErrBadAuthoritySignature, "sale %s: %v", saleID, err)
		}

		encoded, err = (&payload.AuthorityUpdated{SaleID: saleID, NewAuthority: newAuthority}).Encode()
		if err != nil {
			return errors.Wrap(err, "failed to encode authority updated")
		}
		previous := sale.Terms.Authority
		sale.Terms.Authority = newAuthority
		if err := dg.UpdateConductorSale(ctx, *sale); err != nil {
			return errors.Wrap(err, "failed to update sale")
		}
		eventlog.Applied(ctx, "update_sale_authority",
			slogx.Stringer("sale", saleID),
			slogx.Stringer("previous", previous),
			slogx.Stringer("authority", newAuthority),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return encoded, nil
}
