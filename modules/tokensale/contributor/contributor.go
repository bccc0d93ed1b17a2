// Package contributor is the per-chain ledger of a cross-chain sale. It escrows
// buyer contributions, attests the local totals once the sale ends and pays out
// allocations, excess contributions or refunds after the conductor's decision.
package contributor

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/custody"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
)

type Options struct {
	// ChainID is the chain the contributor runs on.
	ChainID  common.ChainID
	Verifier vaa.Verifier
	// Conductor is the trusted emitter of sale messages.
	Conductor entity.RegisteredEmitter
}

type Contributor struct {
	mu      sync.Mutex
	dg      datagateway.ContributorDataGateway
	custody custody.Custody
	opts    Options
}

func New(dg datagateway.ContributorDataGateway, custodian custody.Custody, opts Options) *Contributor {
	return &Contributor{
		dg:      dg,
		custody: custodian,
		opts:    opts,
	}
}

func (c *Contributor) ChainID() common.ChainID {
	return c.opts.ChainID
}

func (c *Contributor) Verifier() vaa.Verifier {
	return c.opts.Verifier
}

func (c *Contributor) update(ctx context.Context, op string, fn func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx) error) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logger.WithContext(ctx, slogx.String("module", "contributor"), slogx.Stringer("chain", c.opts.ChainID))
	defer func() {
		if err != nil {
			eventlog.Rejected(ctx, op, err)
		}
	}()

	qtx, err := c.dg.BeginContributorTx(ctx)
	if err != nil {
		return errors.Wrap(err, "Failed to create transaction")
	}
	defer func() {
		if err := qtx.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to rollback transaction", err)
		}
	}()

	if err := fn(ctx, qtx); err != nil {
		return err
	}

	if err := qtx.Commit(ctx); err != nil {
		return errors.Wrap(err, "Failed to commit transaction")
	}
	return nil
}

type envelopeHandler func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx, v *vaa.VAA) (*entity.ContributorSale, error)

// applyEnvelope authenticates a conductor envelope and consumes it once handle succeeds.
func (c *Contributor) applyEnvelope(ctx context.Context, op string, raw []byte, handle envelopeHandler) (*entity.ContributorSale, error) {
	var sale *entity.ContributorSale
	err := c.update(ctx, op, func(ctx context.Context, dg datagateway.ContributorDataGatewayWithTx) error {
		v, err := c.opts.Verifier.Verify(raw)
		if err != nil {
			return errors.WithStack(err)
		}
		if !v.IsFrom(c.opts.Conductor.Chain, c.opts.Conductor.Address) {
			return errors.Wrapf(ErrBadEmitter, "message %s", v.MessageID())
		}
		consumed, err := dg.IsMessageConsumed(ctx, v.Digest())
		if err != nil {
			return errors.Wrap(err, "failed to check consumed messages")
		}
		if consumed {
			return errors.Wrapf(ErrReplayed, "message %s", v.MessageID())
		}

		sale, err = handle(logger.WithContext(ctx, slogx.String("message", v.MessageID())), dg, v)
		if err != nil {
			return err
		}
		return errors.Wrap(dg.AddConsumedMessage(ctx, v.Digest()), "failed to consume message")
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func getSale(ctx context.Context, dg datagateway.ContributorReaderDataGateway, saleID entity.SaleID) (*entity.ContributorSale, error) {
	sale, err := dg.GetContributorSale(ctx, saleID)
	if errors.Is(err, errs.NotFound) {
		return nil, errors.Wrapf(ErrSaleNotFound, "sale %s", saleID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sale")
	}
	return sale, nil
}

func getActiveSale(ctx context.Context, dg datagateway.ContributorReaderDataGateway, saleID entity.SaleID) (*entity.ContributorSale, error) {
	sale, err := getSale(ctx, dg, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != entity.SaleStatusActive {
		return nil, errors.Wrapf(ErrSaleNotActive, "sale %s is %s", saleID, sale.Status)
	}
	return sale, nil
}

// Sale returns errs.NotFound if the sale was never initialized on this chain.
func (c *Contributor) Sale(ctx context.Context, saleID entity.SaleID) (*entity.ContributorSale, error) {
	sale, err := c.dg.GetContributorSale(ctx, saleID)
	if err != nil {
		return nil, errors.Wrapf(err, "sale %s", saleID)
	}
	return sale, nil
}

func (c *Contributor) Sales(ctx context.Context) ([]entity.ContributorSale, error) {
	sales, err := c.dg.GetContributorSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sales")
	}
	return sales, nil
}

// Contribution returns errs.NotFound if buyer never contributed the token.
func (c *Contributor) Contribution(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal) (*entity.Contribution, error) {
	contribution, err := c.dg.GetContribution(ctx, saleID, tokenIndex, buyer)
	if err != nil {
		return nil, errors.Wrapf(err, "sale %s token %d buyer %s", saleID, tokenIndex, buyer)
	}
	return contribution, nil
}

func (c *Contributor) Contributions(ctx context.Context, saleID entity.SaleID) ([]entity.Contribution, error) {
	contributions, err := c.dg.GetContributions(ctx, saleID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get contributions")
	}
	return contributions, nil
}
