package payload

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
)

// ActionRegisterChain is the only governance action of the sale module.
const ActionRegisterChain uint8 = 1

const registerChainSize = 32 + 1 + 2 + 2 + 32

// ModuleTag identifies governance messages of the sale module: "TokenSale" left padded to 32 bytes.
var ModuleTag = func() [32]byte {
	var tag [32]byte
	name := []byte("TokenSale")
	copy(tag[32-len(name):], name)
	return tag
}()

// RegisterChain binds a chain id to the emitter of its contributor. A zero
// TargetChain addresses every conductor.
type RegisterChain struct {
	TargetChain    common.ChainID
	ChainID        common.ChainID
	EmitterAddress address.Universal
}

func (*RegisterChain) PayloadID() ID { return IDGovernance }

func (p *RegisterChain) Encode() ([]byte, error) {
	return wire.NewWriter(registerChainSize).
		Bytes(ModuleTag[:]).
		U8(ActionRegisterChain).
		U16(uint16(p.TargetChain)).
		U16(uint16(p.ChainID)).
		Bytes(p.EmitterAddress[:]).
		Finish(), nil
}

// DecodeRegisterChain checks the module tag before reading anything else.
func DecodeRegisterChain(b []byte) (*RegisterChain, error) {
	r := wire.NewReader(b, ErrTooShort)
	tag, err := r.Bytes32()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(tag[:], ModuleTag[:]) {
		return nil, errors.WithStack(ErrWrongModule)
	}
	action, err := r.U8()
	if err != nil {
		return nil, err
	}
	if action != ActionRegisterChain {
		return nil, errors.Wrapf(ErrUnknownAction, "action %d", action)
	}
	p := &RegisterChain{}
	target, err := r.U16()
	if err != nil {
		return nil, err
	}
	chain, err := r.U16()
	if err != nil {
		return nil, err
	}
	p.TargetChain, p.ChainID = common.ChainID(target), common.ChainID(chain)
	if p.EmitterAddress, err = r.Bytes32(); err != nil {
		return nil, err
	}
	return p, finish(r)
}
