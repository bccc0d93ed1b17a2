package payload

import (
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
	"github.com/holiman/uint256"
)

const allocationSize = 1 + 32 + 32

type Allocation struct {
	TokenIndex         uint8
	Allocation         *uint256.Int
	ExcessContribution *uint256.Int
}

// SaleSealed carries the conductor's allocations, one per accepted token.
type SaleSealed struct {
	SaleID      entity.SaleID
	Allocations []Allocation
}

func (*SaleSealed) PayloadID() ID { return IDSaleSealed }

func (p *SaleSealed) Encode() ([]byte, error) {
	n, err := countByte(len(p.Allocations), "allocations")
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(1 + 32 + 1 + int(n)*allocationSize)
	w.U8(uint8(IDSaleSealed)).Bytes(p.SaleID[:]).U8(n)
	for _, a := range p.Allocations {
		w.U8(a.TokenIndex).U256(a.Allocation).U256(a.ExcessContribution)
	}
	return w.Finish(), nil
}

func DecodeSaleSealed(b []byte) (*SaleSealed, error) {
	r, err := newReader(b, IDSaleSealed)
	if err != nil {
		return nil, err
	}
	p := &SaleSealed{}
	if p.SaleID, err = r.Bytes32(); err != nil {
		return nil, err
	}
	n, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Need(int(n)*allocationSize, "allocations"); err != nil {
		return nil, err
	}
	p.Allocations = make([]Allocation, n)
	for i := range p.Allocations {
		a := &p.Allocations[i]
		if a.TokenIndex, err = r.U8(); err != nil {
			return nil, err
		}
		if a.Allocation, err = r.U256(); err != nil {
			return nil, err
		}
		if a.ExcessContribution, err = r.U256(); err != nil {
			return nil, err
		}
	}
	return p, finish(r)
}

// SaleAborted tells every contributor chain to open refunds.
type SaleAborted struct {
	SaleID entity.SaleID
}

func (*SaleAborted) PayloadID() ID { return IDSaleAborted }

func (p *SaleAborted) Encode() ([]byte, error) {
	return wire.NewWriter(1 + 32).U8(uint8(IDSaleAborted)).Bytes(p.SaleID[:]).Finish(), nil
}

func DecodeSaleAborted(b []byte) (*SaleAborted, error) {
	r, err := newReader(b, IDSaleAborted)
	if err != nil {
		return nil, err
	}
	p := &SaleAborted{}
	if p.SaleID, err = r.Bytes32(); err != nil {
		return nil, err
	}
	return p, finish(r)
}
