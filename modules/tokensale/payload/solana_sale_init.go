package payload

import (
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
)

const solanaTokenSize = 1 + 32

// SolanaToken marks an accepted token that lives on Solana with its global index.
type SolanaToken struct {
	Index   uint8
	Address address.Universal
}

// SolanaSaleInit is the SaleInit variant for Solana. It lists only the accepted
// tokens on Solana, without conversion rates.
type SolanaSaleInit struct {
	SaleID          entity.SaleID
	TokenAddress    address.Universal
	TokenChain      common.ChainID
	TokenDecimals   uint8
	SaleStart       uint64
	SaleEnd         uint64
	AcceptedTokens  []SolanaToken
	Recipient       address.Universal
	Authority       entity.Authority
	UnlockTimestamp uint64
}

func (*SolanaSaleInit) PayloadID() ID { return IDSolanaSaleInit }

func (p *SolanaSaleInit) Encode() ([]byte, error) {
	n, err := countByte(len(p.AcceptedTokens), "solana tokens")
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(saleInitHeaderSize + int(n)*solanaTokenSize + saleInitFooterSize)
	w.U8(uint8(IDSolanaSaleInit)).
		Bytes(p.SaleID[:]).
		Bytes(p.TokenAddress[:]).
		U16(uint16(p.TokenChain)).
		U8(p.TokenDecimals)
	writeTimestamp(w, p.SaleStart)
	writeTimestamp(w, p.SaleEnd)
	w.U8(n)
	for _, token := range p.AcceptedTokens {
		w.U8(token.Index).Bytes(token.Address[:])
	}
	w.Bytes(p.Recipient[:]).Bytes(p.Authority[:])
	writeTimestamp(w, p.UnlockTimestamp)
	return w.Finish(), nil
}

func DecodeSolanaSaleInit(b []byte) (*SolanaSaleInit, error) {
	r, err := newReader(b, IDSolanaSaleInit)
	if err != nil {
		return nil, err
	}
	p := &SolanaSaleInit{}
	if err := decodeHeader(r, &p.SaleID, &p.TokenAddress, &p.TokenChain, &p.TokenDecimals, &p.SaleStart, &p.SaleEnd); err != nil {
		return nil, err
	}
	n, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Need(int(n)*solanaTokenSize+saleInitFooterSize, "solana tokens"); err != nil {
		return nil, err
	}
	p.AcceptedTokens = make([]SolanaToken, n)
	for i := range p.AcceptedTokens {
		token := &p.AcceptedTokens[i]
		if token.Index, err = r.U8(); err != nil {
			return nil, err
		}
		if token.Address, err = r.Bytes32(); err != nil {
			return nil, err
		}
	}
	if err := decodeFooter(r, &p.Recipient, &p.Authority, &p.UnlockTimestamp); err != nil {
		return nil, err
	}
	return p, finish(r)
}
