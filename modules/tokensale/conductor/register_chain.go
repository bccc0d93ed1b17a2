package conductor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/samber/lo"
)

// RegisterChain applies a governance envelope binding a chain to its contributor emitter.
// Registering the same emitter again is a no-op that still consumes the envelope.
func (c *Conductor) RegisterChain(ctx context.Context, raw []byte) (*entity.RegisteredEmitter, error) {
	var registered *entity.RegisteredEmitter
	err := c.update(ctx, "register_chain", func(dg datagateway.ConductorDataGatewayWithTx) error {
		v, err := c.opts.Verifier.Verify(raw)
		if err != nil {
			return errors.WithStack(err)
		}
		if !v.IsFrom(c.opts.Governance.Chain, c.opts.Governance.Address) {
			return errors.Wrapf(ErrBadGovernanceEmitter, "message %s", v.MessageID())
		}
		if err := checkReplay(ctx, dg, v); err != nil {
			return err
		}
		msg, err := payload.DecodeRegisterChain(v.Payload)
		if err != nil {
			return errors.WithStack(err)
		}
		if msg.TargetChain != 0 && msg.TargetChain != c.opts.ChainID {
			return errors.Wrapf(ErrWrongTargetChain, "target %s", msg.TargetChain)
		}
		if !address.IsSupported(msg.ChainID) {
			return errors.Wrapf(address.ErrUnsupportedChain, "chain %s", msg.ChainID)
		}

		emitter := entity.RegisteredEmitter{Chain: msg.ChainID, Address: msg.EmitterAddress}
		current, err := dg.GetRegisteredEmitter(ctx, msg.ChainID)
		switch {
		case errors.Is(err, errs.NotFound):
		case err != nil:
			return errors.Wrap(err, "failed to get registered emitter")
		case current.Address == emitter.Address:
			registered = current
			return errors.WithStack(consume(ctx, dg, v))
		default:
			if err := checkNoActiveSale(ctx, dg, emitter); err != nil {
				return err
			}
		}

		if err := dg.SetRegisteredEmitter(ctx, emitter); err != nil {
			return errors.Wrap(err, "failed to register emitter")
		}
		if err := consume(ctx, dg, v); err != nil {
			return errors.WithStack(err)
		}
		registered = &emitter
		eventlog.Applied(ctx, "register_chain",
			slogx.Stringer("chain", emitter.Chain),
			slogx.Stringer("emitter", emitter.Address),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// checkNoActiveSale rejects re-pointing a chain while a sale accepting its tokens is in flight.
func checkNoActiveSale(ctx context.Context, dg datagateway.ConductorReaderDataGateway, emitter entity.RegisteredEmitter) error {
	sales, err := dg.GetConductorSales(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get sales")
	}
	sale, found := lo.Find(sales, func(sale entity.ConductorSale) bool {
		return sale.Status == entity.SaleStatusActive && len(sale.Terms.TokensOnChain(emitter.Chain)) > 0
	})
	if found {
		return errors.Wrapf(ErrAlreadyRegistered, "chain %s is used by sale %s", emitter.Chain, sale.Terms.ID)
	}
	return nil
}
