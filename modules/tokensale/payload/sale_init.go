package payload

import (
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
	"github.com/gaze-network/uint128"
)

const (
	saleInitHeaderSize = 1 + 32 + 32 + 2 + 1 + 32 + 32 + 1
	saleInitTokenSize  = 32 + 2 + 16
	saleInitFooterSize = 32 + 20 + 32
)

type AcceptedToken struct {
	Address        address.Universal
	Chain          common.ChainID
	ConversionRate uint128.Uint128
}

// SaleInit announces a new sale to every contributor chain. The position of an
// accepted token is its index.
type SaleInit struct {
	SaleID          entity.SaleID
	TokenAddress    address.Universal
	TokenChain      common.ChainID
	TokenDecimals   uint8
	SaleStart       uint64
	SaleEnd         uint64
	AcceptedTokens  []AcceptedToken
	Recipient       address.Universal
	Authority       entity.Authority
	UnlockTimestamp uint64
}

func (*SaleInit) PayloadID() ID { return IDSaleInit }

func (p *SaleInit) Encode() ([]byte, error) {
	n, err := countByte(len(p.AcceptedTokens), "accepted tokens")
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(saleInitHeaderSize + int(n)*saleInitTokenSize + saleInitFooterSize)
	w.U8(uint8(IDSaleInit)).
		Bytes(p.SaleID[:]).
		Bytes(p.TokenAddress[:]).
		U16(uint16(p.TokenChain)).
		U8(p.TokenDecimals)
	writeTimestamp(w, p.SaleStart)
	writeTimestamp(w, p.SaleEnd)
	w.U8(n)
	for _, token := range p.AcceptedTokens {
		w.Bytes(token.Address[:]).U16(uint16(token.Chain)).U128(token.ConversionRate)
	}
	w.Bytes(p.Recipient[:]).Bytes(p.Authority[:])
	writeTimestamp(w, p.UnlockTimestamp)
	return w.Finish(), nil
}

func DecodeSaleInit(b []byte) (*SaleInit, error) {
	r, err := newReader(b, IDSaleInit)
	if err != nil {
		return nil, err
	}
	p := &SaleInit{}
	if err := decodeHeader(r, &p.SaleID, &p.TokenAddress, &p.TokenChain, &p.TokenDecimals, &p.SaleStart, &p.SaleEnd); err != nil {
		return nil, err
	}
	n, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Need(int(n)*saleInitTokenSize+saleInitFooterSize, "accepted tokens"); err != nil {
		return nil, err
	}
	p.AcceptedTokens = make([]AcceptedToken, n)
	for i := range p.AcceptedTokens {
		token := &p.AcceptedTokens[i]
		if token.Address, err = r.Bytes32(); err != nil {
			return nil, err
		}
		chain, err := r.U16()
		if err != nil {
			return nil, err
		}
		token.Chain = common.ChainID(chain)
		if token.ConversionRate, err = r.U128(); err != nil {
			return nil, err
		}
	}
	if err := decodeFooter(r, &p.Recipient, &p.Authority, &p.UnlockTimestamp); err != nil {
		return nil, err
	}
	return p, finish(r)
}

// decodeHeader reads the fields shared by both sale init variants.
func decodeHeader(r *wire.Reader, saleID *entity.SaleID, token *address.Universal, chain *common.ChainID, decimals *uint8, start, end *uint64) (err error) {
	if *saleID, err = r.Bytes32(); err != nil {
		return err
	}
	if *token, err = r.Bytes32(); err != nil {
		return err
	}
	c, err := r.U16()
	if err != nil {
		return err
	}
	*chain = common.ChainID(c)
	if *decimals, err = r.U8(); err != nil {
		return err
	}
	if *start, err = readTimestamp(r); err != nil {
		return err
	}
	if *end, err = readTimestamp(r); err != nil {
		return err
	}
	return nil
}

func decodeFooter(r *wire.Reader, recipient *address.Universal, authority *entity.Authority, unlock *uint64) (err error) {
	if *recipient, err = r.Bytes32(); err != nil {
		return err
	}
	if *authority, err = r.Bytes20(); err != nil {
		return err
	}
	*unlock, err = readTimestamp(r)
	return err
}
