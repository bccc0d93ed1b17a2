package payload

import (
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
	"github.com/holiman/uint256"
)

const contributionSize = 1 + 32

type Contribution struct {
	TokenIndex uint8
	Amount     *uint256.Int
}

// ContributionsSealed attests the local totals of one contributor chain after the sale ended.
type ContributionsSealed struct {
	SaleID        entity.SaleID
	ChainID       common.ChainID
	Contributions []Contribution
}

func (*ContributionsSealed) PayloadID() ID { return IDContributionsSealed }

func (p *ContributionsSealed) Encode() ([]byte, error) {
	n, err := countByte(len(p.Contributions), "contributions")
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(1 + 32 + 2 + 1 + int(n)*contributionSize)
	w.U8(uint8(IDContributionsSealed)).Bytes(p.SaleID[:]).U16(uint16(p.ChainID)).U8(n)
	for _, c := range p.Contributions {
		w.U8(c.TokenIndex).U256(c.Amount)
	}
	return w.Finish(), nil
}

func DecodeContributionsSealed(b []byte) (*ContributionsSealed, error) {
	r, err := newReader(b, IDContributionsSealed)
	if err != nil {
		return nil, err
	}
	p := &ContributionsSealed{}
	if p.SaleID, err = r.Bytes32(); err != nil {
		return nil, err
	}
	chain, err := r.U16()
	if err != nil {
		return nil, err
	}
	p.ChainID = common.ChainID(chain)
	n, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Need(int(n)*contributionSize, "contributions"); err != nil {
		return nil, err
	}
	p.Contributions = make([]Contribution, n)
	for i := range p.Contributions {
		c := &p.Contributions[i]
		if c.TokenIndex, err = r.U8(); err != nil {
			return nil, err
		}
		if c.Amount, err = r.U256(); err != nil {
			return nil, err
		}
	}
	return p, finish(r)
}

// AuthorityUpdated mirrors a sale authority rotation to contributor chains.
type AuthorityUpdated struct {
	SaleID       entity.SaleID
	NewAuthority entity.Authority
}

func (*AuthorityUpdated) PayloadID() ID { return IDAuthorityUpdated }

func (p *AuthorityUpdated) Encode() ([]byte, error) {
	return wire.NewWriter(1 + 32 + 20).
		U8(uint8(IDAuthorityUpdated)).
		Bytes(p.SaleID[:]).
		Bytes(p.NewAuthority[:]).
		Finish(), nil
}

func DecodeAuthorityUpdated(b []byte) (*AuthorityUpdated, error) {
	r, err := newReader(b, IDAuthorityUpdated)
	if err != nil {
		return nil, err
	}
	p := &AuthorityUpdated{}
	if p.SaleID, err = r.Bytes32(); err != nil {
		return nil, err
	}
	if p.NewAuthority, err = r.Bytes20(); err != nil {
		return nil, err
	}
	return p, finish(r)
}
