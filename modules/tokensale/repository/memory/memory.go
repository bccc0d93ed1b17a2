// Package memory is an in-process state store. A transaction works on a copy of
// the committed state and publishes it on Commit, the last commit wins, so
// writers must be serialized by the caller.
package memory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
)

var (
	ErrTxAlreadyExists = errors.New("Transaction already exists. Call Commit() or Rollback() first.")
	ErrDuplicateKey    = errors.New("duplicate key")
)

var (
	_ datagateway.ConductorDataGateway   = (*Repository)(nil)
	_ datagateway.ContributorDataGateway = (*Repository)(nil)
)

type contributionKey struct {
	saleID     entity.SaleID
	tokenIndex uint8
	buyer      address.Universal
}

type state struct {
	consumed         map[[32]byte]struct{}
	emitters         map[common.ChainID]entity.RegisteredEmitter
	saleCounter      uint64
	conductorSales   map[entity.SaleID]entity.ConductorSale
	contributorSales map[entity.SaleID]entity.ContributorSale
	contributions    map[contributionKey]entity.Contribution
}

func newState() *state {
	return &state{
		consumed:         make(map[[32]byte]struct{}),
		emitters:         make(map[common.ChainID]entity.RegisteredEmitter),
		conductorSales:   make(map[entity.SaleID]entity.ConductorSale),
		contributorSales: make(map[entity.SaleID]entity.ContributorSale),
		contributions:    make(map[contributionKey]entity.Contribution),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.consumed {
		c.consumed[k] = v
	}
	for k, v := range s.emitters {
		c.emitters[k] = v
	}
	c.saleCounter = s.saleCounter
	for k, v := range s.conductorSales {
		c.conductorSales[k] = v.Clone()
	}
	for k, v := range s.contributorSales {
		c.contributorSales[k] = v.Clone()
	}
	for k, v := range s.contributions {
		c.contributions[k] = v.Clone()
	}
	return c
}

type Repository struct {
	mu    *sync.RWMutex
	state **state // committed state, shared with transactions

	tx *state // working copy, nil outside a transaction
}

func NewRepository() *Repository {
	committed := newState()
	return &Repository{
		mu:    &sync.RWMutex{},
		state: &committed,
	}
}

// read runs fn against the working copy inside a transaction, or the committed state.
func (r *Repository) read(fn func(s *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(*r.state)
}

// write runs fn against the working copy, or applies it directly to the committed
// state when called outside a transaction.
func (r *Repository) write(fn func(s *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	working := (*r.state).clone()
	if err := fn(working); err != nil {
		return err
	}
	*r.state = working
	return nil
}

func (r *Repository) begin() (*Repository, error) {
	if r.tx != nil {
		return nil, errors.WithStack(ErrTxAlreadyExists)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Repository{
		mu:    r.mu,
		state: r.state,
		tx:    (*r.state).clone(),
	}, nil
}

func (r *Repository) BeginConductorTx(ctx context.Context) (datagateway.ConductorDataGatewayWithTx, error) {
	repo, err := r.begin()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return repo, nil
}

func (r *Repository) BeginContributorTx(ctx context.Context) (datagateway.ContributorDataGatewayWithTx, error) {
	repo, err := r.begin()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return repo, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.state = r.tx
	r.tx = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	r.tx = nil
	logger.DebugContext(ctx, "rolled back transaction")
	return nil
}

func (r *Repository) IsMessageConsumed(ctx context.Context, digest [32]byte) (consumed bool, err error) {
	err = r.read(func(s *state) error {
		_, consumed = s.consumed[digest]
		return nil
	})
	return consumed, err
}

func (r *Repository) AddConsumedMessage(ctx context.Context, digest [32]byte) error {
	return r.write(func(s *state) error {
		if _, ok := s.consumed[digest]; ok {
			return errors.Wrapf(ErrDuplicateKey, "message %x", digest)
		}
		s.consumed[digest] = struct{}{}
		return nil
	})
}
