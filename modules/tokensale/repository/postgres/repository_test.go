package postgres

import (
	"context"
	"net/url"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/internal/postgres"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/database/postgresql"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to the database named by TOKENSALE_TEST_POSTGRES_URL and
// migrates it to the latest schema. Tests are skipped when the variable is empty.
func newTestRepository(t *testing.T, role common.Role) *Repository {
	t.Helper()
	databaseURL := os.Getenv("TOKENSALE_TEST_POSTGRES_URL")
	if databaseURL == "" {
		t.Skip("TOKENSALE_TEST_POSTGRES_URL is not set")
	}

	u, err := url.Parse(databaseURL)
	require.NoError(t, err)
	query := u.Query()
	query.Set("x-migrations-table", postgresql.MigrationsTable)
	u.RawQuery = query.Encode()

	source, err := postgresql.Source()
	require.NoError(t, err)
	m, err := migrate.NewWithSourceInstance("iofs", source, u.String())
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.Config{URL: databaseURL})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, table := range []string{"tokensale_contributions", "tokensale_sale_tokens", "tokensale_sales", "tokensale_consumed_messages", "tokensale_registered_emitters"} {
		_, err := pool.Exec(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
	return NewRepository(pool, role)
}

func TestRepositoryConductor(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, common.RoleConductor)

	_, err := repo.GetRegisteredEmitter(ctx, common.ChainSolana)
	assert.ErrorIs(t, err, errs.NotFound)
	emitter := entity.RegisteredEmitter{Chain: common.ChainSolana, Address: address.Universal{31: 1}}
	require.NoError(t, repo.SetRegisteredEmitter(ctx, emitter))
	emitter.Address[31] = 2
	require.NoError(t, repo.SetRegisteredEmitter(ctx, emitter))
	stored, err := repo.GetRegisteredEmitter(ctx, common.ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, emitter, *stored)

	first, err := repo.NextSaleCounter(ctx)
	require.NoError(t, err)
	second, err := repo.NextSaleCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	sale := entity.ConductorSale{
		Terms: entity.SaleTerms{
			ID:              entity.SaleIDFromCounter(second),
			Token:           entity.TokenDescriptor{Chain: common.ChainEthereum, Decimals: 18},
			TokenAmount:     uint256.NewInt(1000),
			MinRaise:        uint256.NewInt(100),
			MaxRaise:        uint256.NewInt(200),
			SaleStart:       2000,
			SaleEnd:         3000,
			UnlockTimestamp: 4000,
			AcceptedTokens: []entity.AcceptedToken{
				{Index: 0, Chain: common.ChainEthereum, ConversionRate: entity.RateOne},
			},
			Authority: entity.Authority{19: 1},
		},
		Status: entity.SaleStatusActive,
		Tokens: []entity.ConductorTokenState{{Index: 0, Contributed: uint256.NewInt(0)}},
	}

	tx, err := repo.BeginConductorTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateConductorSale(ctx, sale))
	require.NoError(t, tx.AddConsumedMessage(ctx, [32]byte{9}))
	require.NoError(t, tx.Rollback(ctx))

	_, err = repo.GetConductorSale(ctx, sale.Terms.ID)
	assert.ErrorIs(t, err, errs.NotFound)
	consumed, err := repo.IsMessageConsumed(ctx, [32]byte{9})
	require.NoError(t, err)
	assert.False(t, consumed)

	require.NoError(t, repo.CreateConductorSale(ctx, sale))
	assert.ErrorIs(t, repo.CreateConductorSale(ctx, sale), ErrDuplicateKey)

	sale.Status = entity.SaleStatusSealed
	sale.Tokens[0] = entity.ConductorTokenState{Index: 0, Contributed: uint256.NewInt(150), Collected: true}
	sale.Allocations = []entity.Allocation{{TokenIndex: 0, Allocation: uint256.NewInt(1000), ExcessContribution: uint256.NewInt(0)}}
	sale.Terms.Authority = entity.Authority{19: 2}
	require.NoError(t, repo.UpdateConductorSale(ctx, sale))

	got, err := repo.GetConductorSale(ctx, sale.Terms.ID)
	require.NoError(t, err)
	assert.Equal(t, sale, *got)

	sales, err := repo.GetConductorSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestRepositoryContributor(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, common.RoleContributor)

	sale := entity.ContributorSale{
		Terms: entity.SaleTerms{
			ID:      entity.SaleIDFromCounter(1),
			SaleEnd: 3000,
			AcceptedTokens: []entity.AcceptedToken{
				{Index: 1, Chain: common.ChainBSC, ConversionRate: entity.RateOne},
			},
		},
		Status: entity.SaleStatusActive,
		Tokens: []entity.ContributorTokenState{{Index: 1, Contributed: uint256.NewInt(0)}},
	}
	require.NoError(t, repo.CreateContributorSale(ctx, sale))

	buyer := address.Universal{31: 0xa1}
	_, err := repo.GetContribution(ctx, sale.Terms.ID, 1, buyer)
	assert.ErrorIs(t, err, errs.NotFound)

	contribution := entity.Contribution{SaleID: sale.Terms.ID, TokenIndex: 1, Buyer: buyer, Amount: uint256.NewInt(10)}
	require.NoError(t, repo.SetContribution(ctx, contribution))
	contribution.Amount = uint256.NewInt(25)
	contribution.RefundClaimed = true
	require.NoError(t, repo.SetContribution(ctx, contribution))

	stored, err := repo.GetContribution(ctx, sale.Terms.ID, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, contribution, *stored)

	contributions, err := repo.GetContributions(ctx, sale.Terms.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.Contribution{contribution}, contributions)

	// the conductor role never sees contributor rows
	conductorRepo := NewRepository(repo.db, common.RoleConductor)
	_, err = conductorRepo.GetConductorSale(ctx, sale.Terms.ID)
	assert.ErrorIs(t, err, errs.NotFound)
}
