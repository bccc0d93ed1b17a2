package memory

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/samber/lo"
)

func (r *Repository) GetContributorSale(ctx context.Context, saleID entity.SaleID) (*entity.ContributorSale, error) {
	var sale *entity.ContributorSale
	err := r.read(func(s *state) error {
		stored, ok := s.contributorSales[saleID]
		if !ok {
			return errors.WithStack(errs.NotFound)
		}
		sale = lo.ToPtr(stored.Clone())
		return nil
	})
	return sale, err
}

func (r *Repository) GetContributorSales(ctx context.Context) ([]entity.ContributorSale, error) {
	var sales []entity.ContributorSale
	err := r.read(func(s *state) error {
		sales = lo.MapToSlice(s.contributorSales, func(_ entity.SaleID, sale entity.ContributorSale) entity.ContributorSale {
			return sale.Clone()
		})
		return nil
	})
	sort.Slice(sales, func(i, j int) bool {
		return less32(sales[i].Terms.ID, sales[j].Terms.ID)
	})
	return sales, err
}

func (r *Repository) CreateContributorSale(ctx context.Context, sale entity.ContributorSale) error {
	return r.write(func(s *state) error {
		if _, ok := s.contributorSales[sale.Terms.ID]; ok {
			return errors.Wrapf(ErrDuplicateKey, "sale %s", sale.Terms.ID)
		}
		s.contributorSales[sale.Terms.ID] = sale.Clone()
		return nil
	})
}

func (r *Repository) UpdateContributorSale(ctx context.Context, sale entity.ContributorSale) error {
	return r.write(func(s *state) error {
		stored, ok := s.contributorSales[sale.Terms.ID]
		if !ok {
			return errors.WithStack(errs.NotFound)
		}
		updated := sale.Clone()
		terms := stored.Terms
		terms.Authority = updated.Terms.Authority
		updated.Terms = terms
		s.contributorSales[sale.Terms.ID] = updated
		return nil
	})
}

func (r *Repository) GetContribution(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal) (*entity.Contribution, error) {
	var contribution *entity.Contribution
	err := r.read(func(s *state) error {
		stored, ok := s.contributions[contributionKey{saleID, tokenIndex, buyer}]
		if !ok {
			return errors.WithStack(errs.NotFound)
		}
		contribution = lo.ToPtr(stored.Clone())
		return nil
	})
	return contribution, err
}

func (r *Repository) GetContributions(ctx context.Context, saleID entity.SaleID) ([]entity.Contribution, error) {
	var contributions []entity.Contribution
	err := r.read(func(s *state) error {
		for key, c := range s.contributions {
			if key.saleID == saleID {
				contributions = append(contributions, c.Clone())
			}
		}
		return nil
	})
	sort.Slice(contributions, func(i, j int) bool {
		if contributions[i].TokenIndex != contributions[j].TokenIndex {
			return contributions[i].TokenIndex < contributions[j].TokenIndex
		}
		return less32(contributions[i].Buyer, contributions[j].Buyer)
	})
	return contributions, err
}

func (r *Repository) SetContribution(ctx context.Context, contribution entity.Contribution) error {
	return r.write(func(s *state) error {
		s.contributions[contributionKey{contribution.SaleID, contribution.TokenIndex, contribution.Buyer}] = contribution.Clone()
		return nil
	})
}
