package memory

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/samber/lo"
)

func (r *Repository) GetRegisteredEmitter(ctx context.Context, chain common.ChainID) (*entity.RegisteredEmitter, error) {
	var emitter *entity.RegisteredEmitter
	err := r.read(func(s *state) error {
		e, ok := s.emitters[chain]
		if !ok {
			return errors.WithStack(errs.NotFound)
		}
		emitter = &e
		return nil
	})
	return emitter, err
}

func (r *Repository) GetRegisteredEmitters(ctx context.Context) ([]entity.RegisteredEmitter, error) {
	var emitters []entity.RegisteredEmitter
	err := r.read(func(s *state) error {
		emitters = lo.Values(s.emitters)
		return nil
	})
	sort.Slice(emitters, func(i, j int) bool { return emitters[i].Chain < emitters[j].Chain })
	return emitters, err
}

func (r *Repository) SetRegisteredEmitter(ctx context.Context, emitter entity.RegisteredEmitter) error {
	return r.write(func(s *state) error {
		s.emitters[emitter.Chain] = emitter
		return nil
	})
}

func (r *Repository) NextSaleCounter(ctx context.Context) (next uint64, err error) {
	err = r.write(func(s *state) error {
		s.saleCounter++
		next = s.saleCounter
		return nil
	})
	return next, err
}

func (r *Repository) GetConductorSale(ctx context.Context, saleID entity.SaleID) (*entity.ConductorSale, error) {
	var sale *entity.ConductorSale
	err := r.read(func(s *state) error {
		stored, ok := s.conductorSales[saleID]
		if !ok {
			return errors.WithStack(errs.NotFound)
		}
		sale = lo.ToPtr(stored.Clone())
		return nil
	})
	return sale, err
}

func (r *Repository) GetConductorSales(ctx context.Context) ([]entity.ConductorSale, error) {
	var sales []entity.ConductorSale
	err := r.read(func(s *state) error {
		sales = lo.MapToSlice(s.conductorSales, func(_ entity.SaleID, sale entity.ConductorSale) entity.ConductorSale {
			return sale.Clone()
		})
		return nil
	})
	sort.Slice(sales, func(i, j int) bool {
		return less32(sales[i].Terms.ID, sales[j].Terms.ID)
	})
	return sales, err
}

func (r *Repository) CreateConductorSale(ctx context.Context, sale entity.ConductorSale) error {
	return r.write(func(s *state) error {
		if _, ok := s.conductorSales[sale.Terms.ID]; ok {
			return errors.Wrapf(ErrDuplicateKey, "sale %s", sale.Terms.ID)
		}
		s.conductorSales[sale.Terms.ID] = sale.Clone()
		return nil
	})
}

func (r *Repository) UpdateConductorSale(ctx context.Context, sale entity.ConductorSale) error {
	return r.write(func(s *state) error {
		stored, ok := s.conductorSales[sale.Terms.ID]
		if !ok {
			return errors.WithStack(errs.NotFound)
		}
		updated := sale.Clone()
		// terms are immutable apart from the authority
		terms := stored.Terms
		terms.Authority = updated.Terms.Authority
		updated.Terms = terms
		s.conductorSales[sale.Terms.ID] = updated
		return nil
	})
}

func less32(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
