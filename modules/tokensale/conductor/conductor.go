// Package conductor is the coordinating state machine of a cross-chain sale. It
// publishes sale terms, collects the attested totals of every contributor chain
// and decides once whether the sale is sealed or aborted.
package conductor

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
)

type Options struct {
	// ChainID is the chain the conductor runs on.
	ChainID  common.ChainID
	Verifier vaa.Verifier
	// Governance is the only emitter allowed to register contributor chains.
	Governance      entity.RegisteredEmitter
	RemainderPolicy RemainderPolicy
}

type Conductor struct {
	mu   sync.Mutex
	dg   datagateway.ConductorDataGateway
	opts Options
}

func New(dg datagateway.ConductorDataGateway, opts Options) *Conductor {
	return &Conductor{
		dg:   dg,
		opts: opts,
	}
}

func (c *Conductor) ChainID() common.ChainID {
	return c.opts.ChainID
}

func (c *Conductor) Verifier() vaa.Verifier {
	return c.opts.Verifier
}

// update runs fn in a transaction. A rejected operation leaves the state unchanged.
func (c *Conductor) update(ctx context.Context, op string, fn func(dg datagateway.ConductorDataGatewayWithTx) error) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logger.WithContext(ctx, slogx.String("module", "conductor"))
	defer func() {
		if err != nil {
			eventlog.Rejected(ctx, op, err)
		}
	}()

	qtx, err := c.dg.BeginConductorTx(ctx)
	if err != nil {
		return errors.Wrap(err, "Failed to create transaction")
	}
	defer func() {
		if err := qtx.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to rollback transaction", err)
		}
	}()

	if err := fn(qtx); err != nil {
		return err
	}

	if err := qtx.Commit(ctx); err != nil {
		return errors.Wrap(err, "Failed to commit transaction")
	}
	return nil
}

// checkReplay rejects envelopes that were already applied.
func checkReplay(ctx context.Context, dg datagateway.MessageDataGateway, v *vaa.VAA) error {
	consumed, err := dg.IsMessageConsumed(ctx, v.Digest())
	if err != nil {
		return errors.Wrap(err, "failed to check consumed messages")
	}
	if consumed {
		return errors.Wrapf(ErrReplayed, "message %s", v.MessageID())
	}
	return nil
}

func consume(ctx context.Context, dg datagateway.MessageDataGateway, v *vaa.VAA) error {
	return errors.Wrap(dg.AddConsumedMessage(ctx, v.Digest()), "failed to consume message")
}

func getSale(ctx context.Context, dg datagateway.ConductorReaderDataGateway, saleID entity.SaleID) (*entity.ConductorSale, error) {
	sale, err := dg.GetConductorSale(ctx, saleID)
	if errors.Is(err, errs.NotFound) {
		return nil, errors.Wrapf(ErrSaleNotFound, "sale %s", saleID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sale")
	}
	return sale, nil
}

// Sale returns errs.NotFound if the sale does not exist.
func (c *Conductor) Sale(ctx context.Context, saleID entity.SaleID) (*entity.ConductorSale, error) {
	sale, err := c.dg.GetConductorSale(ctx, saleID)
	if err != nil {
		return nil, errors.Wrapf(err, "sale %s", saleID)
	}
	return sale, nil
}

func (c *Conductor) Sales(ctx context.Context) ([]entity.ConductorSale, error) {
	sales, err := c.dg.GetConductorSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sales")
	}
	return sales, nil
}

// RegisteredEmitter returns errs.NotFound if chain has no registered contributor.
func (c *Conductor) RegisteredEmitter(ctx context.Context, chain common.ChainID) (*entity.RegisteredEmitter, error) {
	emitter, err := c.dg.GetRegisteredEmitter(ctx, chain)
	if err != nil {
		return nil, errors.Wrapf(err, "chain %s", chain)
	}
	return emitter, nil
}

func (c *Conductor) RegisteredEmitters(ctx context.Context) ([]entity.RegisteredEmitter, error) {
	emitters, err := c.dg.GetRegisteredEmitters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get registered emitters")
	}
	return emitters, nil
}
