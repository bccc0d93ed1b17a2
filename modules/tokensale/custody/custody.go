// Package custody moves tokens between buyers and the sale escrow of a chain.
package custody

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/holiman/uint256"
)

// Custody is the native asset transfer capability of a chain.
type Custody interface {
	// TransferIn moves amount of token from an account into escrow.
	TransferIn(ctx context.Context, token address.Universal, from address.Universal, amount *uint256.Int) error
	// TransferOut releases amount of token from escrow to an account. It is irreversible.
	TransferOut(ctx context.Context, token address.Universal, to address.Universal, amount *uint256.Int) error
}

var (
	// ErrInsufficientFunds is a buyer balance below the transferred amount.
	ErrInsufficientFunds = errs.New(errs.CapacityError, "insufficient funds")
	// ErrInsufficientEscrow means escrow cannot cover a release, so the ledger is out of sync with the sale records.
	ErrInsufficientEscrow = errs.New(errs.SomethingWentWrong, "insufficient escrow")
)

type balanceKey struct {
	token   address.Universal
	account address.Universal
}

var _ Custody = (*Ledger)(nil)

// Ledger is an in-memory Custody with per account balances and one escrow per token.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]*uint256.Int
	escrow   map[address.Universal]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[balanceKey]*uint256.Int),
		escrow:   make(map[address.Universal]*uint256.Int),
	}
}

// Mint credits an account.
func (l *Ledger) Mint(token, account address.Universal, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{token, account}
	l.balances[key] = new(uint256.Int).Add(l.balanceOf(key), amount)
}

// Fund credits the escrow of token directly, for the sale token deposited by the organizer.
func (l *Ledger) Fund(token address.Universal, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.escrow[token] = new(uint256.Int).Add(l.escrowOf(token), amount)
}

func (l *Ledger) Balance(token, account address.Universal) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(balanceKey{token, account}).Clone()
}

func (l *Ledger) Escrow(token address.Universal) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrowOf(token).Clone()
}

func (l *Ledger) TransferIn(ctx context.Context, token address.Universal, from address.Universal, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{token, from}
	balance := l.balanceOf(key)
	if balance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "balance %s, transfer %s", balance.Dec(), amount.Dec())
	}
	l.balances[key] = new(uint256.Int).Sub(balance, amount)
	l.escrow[token] = new(uint256.Int).Add(l.escrowOf(token), amount)
	return nil
}

func (l *Ledger) TransferOut(ctx context.Context, token address.Universal, to address.Universal, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	escrow := l.escrowOf(token)
	if escrow.Lt(amount) {
		return errors.Wrapf(ErrInsufficientEscrow, "escrow %s, transfer %s", escrow.Dec(), amount.Dec())
	}
	key := balanceKey{token, to}
	l.escrow[token] = new(uint256.Int).Sub(escrow, amount)
	l.balances[key] = new(uint256.Int).Add(l.balanceOf(key), amount)
	return nil
}

func (l *Ledger) balanceOf(key balanceKey) *uint256.Int {
	if v, ok := l.balances[key]; ok {
		return v
	}
	return new(uint256.Int)
}

func (l *Ledger) escrowOf(token address.Universal) *uint256.Int {
	if v, ok := l.escrow[token]; ok {
		return v
	}
	return new(uint256.Int)
}
