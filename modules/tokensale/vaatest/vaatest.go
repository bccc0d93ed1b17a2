// Package vaatest signs envelopes with deterministic devnet guardian keys.
package vaatest

import (
	"fmt"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/samber/lo"
)

// Key derives a deterministic private key from seed.
func Key(seed string) *btcec.PrivateKey {
	key, _ := btcec.PrivKeyFromBytes(chainhash.HashB([]byte(seed)))
	return key
}

// Signers is a devnet guardian set with its private keys.
type Signers struct {
	Index uint32
	Keys  []*btcec.PrivateKey
}

// DevnetSigners returns n deterministic guardians for set index 0.
func DevnetSigners(n int) *Signers {
	return &Signers{
		Keys: lo.Times(n, func(i int) *btcec.PrivateKey {
			return Key(fmt.Sprintf("devnet-guardian-%d", i))
		}),
	}
}

func (s *Signers) GuardianSet() vaa.GuardianSet {
	return vaa.GuardianSet{
		Index: s.Index,
		Keys: lo.Map(s.Keys, func(key *btcec.PrivateKey, _ int) *btcec.PublicKey {
			return key.PubKey()
		}),
	}
}

func (s *Signers) Verifier() vaa.Verifier {
	return vaa.Verifier{Set: s.GuardianSet()}
}

// Sign signs body with every guardian.
func (s *Signers) Sign(body vaa.Body) []byte {
	return s.SignWith(body, lo.Range(len(s.Keys))...)
}

// SignWith signs body with the guardians at indices, in the given order.
func (s *Signers) SignWith(body vaa.Body, indices ...int) []byte {
	encoded := body.Encode()
	digest := vaa.SigningDigest(encoded)
	signatures := lo.Map(indices, func(index int, _ int) vaa.Signature {
		sig := vaa.Signature{GuardianIndex: uint8(index)}
		copy(sig.Signature[:], utils.Must(crypto.NewFromKey(s.Keys[index]).Sign(digest[:])))
		return sig
	})
	return vaa.Marshal(s.Index, signatures, encoded)
}

// Emitter produces envelopes from one chain and address with increasing sequence numbers.
type Emitter struct {
	Chain    common.ChainID
	Address  address.Universal
	signers  *Signers
	sequence uint64
}

func (s *Signers) Emitter(chain common.ChainID, addr address.Universal) *Emitter {
	return &Emitter{Chain: chain, Address: addr, signers: s}
}

// Emit wraps payload in an envelope signed by every guardian.
func (e *Emitter) Emit(payload []byte) []byte {
	e.sequence++
	return e.signers.Sign(vaa.Body{
		Timestamp:        uint32(e.sequence),
		Nonce:            uint32(e.sequence),
		EmitterChain:     e.Chain,
		EmitterAddress:   e.Address,
		Sequence:         e.sequence,
		ConsistencyLevel: 1,
		Payload:          payload,
	})
}
