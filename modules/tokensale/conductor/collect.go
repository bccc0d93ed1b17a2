package conductor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/eventlog"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/holiman/uint256"
)

// CollectContribution applies the attested totals of one contributor chain to a sale.
func (c *Conductor) CollectContribution(ctx context.Context, raw []byte, now uint64) (*entity.ConductorSale, error) {
	var updated *entity.ConductorSale
	err := c.update(ctx, "collect_contribution", func(dg datagateway.ConductorDataGatewayWithTx) error {
		v, err := c.opts.Verifier.Verify(raw)
		if err != nil {
			return errors.WithStack(err)
		}
		emitter, err := dg.GetRegisteredEmitter(ctx, v.EmitterChain)
		if errors.Is(err, errs.NotFound) {
			return errors.Wrapf(ErrEmitterNotRegistered, "chain %s", v.EmitterChain)
		}
		if err != nil {
			return errors.Wrap(err, "failed to get registered emitter")
		}
		if v.EmitterAddress != emitter.Address {
			return errors.Wrapf(ErrEmitterNotRegistered, "emitter %s on chain %s", v.EmitterAddress, v.EmitterChain)
		}
		if err := checkReplay(ctx, dg, v); err != nil {
			return err
		}
		msg, err := payload.DecodeContributionsSealed(v.Payload)
		if err != nil {
			return errors.WithStack(err)
		}
		if msg.ChainID != v.EmitterChain {
			return errors.Wrapf(ErrChainMismatch, "attested chain %s, emitter chain %s", msg.ChainID, v.EmitterChain)
		}

		sale, err := getSale(ctx, dg, msg.SaleID)
		if err != nil {
			return err
		}
		if sale.Status != entity.SaleStatusActive {
			return errors.Wrapf(ErrSaleFinalized, "sale %s is %s", sale.Terms.ID, sale.Status)
		}
		if now <= sale.Terms.SaleEnd {
			return errors.Wrapf(ErrSaleNotEnded, "sale %s ends at %d", sale.Terms.ID, sale.Terms.SaleEnd)
		}
		if err := applyContributions(sale, msg); err != nil {
			return err
		}

		if err := dg.UpdateConductorSale(ctx, *sale); err != nil {
			return errors.Wrap(err, "failed to update sale")
		}
		if err := consume(ctx, dg, v); err != nil {
			return errors.WithStack(err)
		}
		updated = sale
		eventlog.Applied(ctx, "collect_contribution",
			slogx.Stringer("sale", sale.Terms.ID),
			slogx.Stringer("chain", msg.ChainID),
			slogx.Int("missing", len(sale.MissingIndices())),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyContributions adds the attested totals to sale. The attestation must list every
// token of its chain exactly once and none of them may be collected.
func applyContributions(sale *entity.ConductorSale, msg *payload.ContributionsSealed) error {
	expected := sale.Terms.TokensOnChain(msg.ChainID)
	if len(expected) == 0 {
		return errors.Wrapf(ErrTokenIndex, "sale %s accepts no token on chain %s", sale.Terms.ID, msg.ChainID)
	}

	amounts := make(map[uint8]*uint256.Int, len(msg.Contributions))
	for _, contribution := range msg.Contributions {
		token, ok := sale.Terms.AcceptedToken(contribution.TokenIndex)
		if !ok || token.Chain != msg.ChainID {
			return errors.Wrapf(ErrTokenIndex, "index %d", contribution.TokenIndex)
		}
		if _, dup := amounts[contribution.TokenIndex]; dup {
			return errors.Wrapf(ErrIncompleteAttestation, "index %d listed twice", contribution.TokenIndex)
		}
		amounts[contribution.TokenIndex] = contribution.Amount
	}
	if len(amounts) != len(expected) {
		return errors.Wrapf(ErrIncompleteAttestation, "%d of %d tokens listed", len(amounts), len(expected))
	}

	for i := range sale.Tokens {
		state := &sale.Tokens[i]
		amount, ok := amounts[state.Index]
		if !ok {
			continue
		}
		if state.Collected {
			return errors.Wrapf(ErrAlreadyCollected, "chain %s", msg.ChainID)
		}
		total, overflow := new(uint256.Int).AddOverflow(state.Contributed, amount)
		if overflow {
			return errors.Wrapf(errs.OverflowUint256, "contributed total of index %d", state.Index)
		}
		state.Contributed = total
		state.Collected = true
	}
	return nil
}
