// Package vaa parses and verifies attested envelopes: a payload signed by a
// quorum of a trusted guardian set.
package vaa

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
)

const (
	// SupportedVersion is the only envelope version accepted.
	SupportedVersion uint8 = 1

	headerSize     = 1 + 4 + 1
	signatureSize  = 1 + crypto.SignatureLength
	bodyHeaderSize = 4 + 4 + 2 + 32 + 8 + 1
)

var (
	ErrBadLength                  = errs.New(errs.FormatError, "envelope truncated")
	ErrUnsupportedVersion         = errs.New(errs.FormatError, "unsupported envelope version")
	ErrUnknownSigner              = errs.New(errs.AuthenticityError, "signer index not in guardian set")
	ErrBadSignature               = errs.New(errs.AuthenticityError, "signature does not match guardian")
	ErrQuorumNotMet               = errs.New(errs.AuthenticityError, "signature quorum not met")
	ErrDuplicateOrUnorderedSigner = errs.New(errs.AuthenticityError, "signer indices not strictly increasing")
	ErrGuardianSetMismatch        = errs.New(errs.AuthenticityError, "envelope signed by another guardian set")
)

// Digest is the double SHA-256 of an envelope body. It keys the consumed message set.
type Digest [32]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}

type Signature struct {
	GuardianIndex uint8
	Signature     [crypto.SignatureLength]byte
}

// Body is the signed part of an envelope.
type Body struct {
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     common.ChainID
	EmitterAddress   address.Universal
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

func (b Body) Encode() []byte {
	return wire.NewWriter(bodyHeaderSize+len(b.Payload)).
		U32(b.Timestamp).
		U32(b.Nonce).
		U16(uint16(b.EmitterChain)).
		Bytes(b.EmitterAddress[:]).
		U64(b.Sequence).
		U8(b.ConsistencyLevel).
		Bytes(b.Payload).
		Finish()
}

// SigningDigest is the hash guardians sign for an encoded body.
func SigningDigest(body []byte) Digest {
	var d Digest
	copy(d[:], crypto.Hash(body))
	return d
}

// VAA is a verified envelope. Values are only handed out by Verify.
type VAA struct {
	Version          uint8
	GuardianSetIndex uint32
	Signatures       []Signature
	Body

	digest Digest
}

// Digest returns the body hash.
func (v *VAA) Digest() Digest {
	return v.digest
}

// MessageID identifies the message by emitter and sequence, for logs.
func (v *VAA) MessageID() string {
	return fmt.Sprintf("%d/%x/%d", v.EmitterChain, v.EmitterAddress[:], v.Sequence)
}

// IsFrom reports whether the envelope was emitted by the given chain and address.
func (v *VAA) IsFrom(chain common.ChainID, emitter address.Universal) bool {
	return v.EmitterChain == chain && v.EmitterAddress == emitter
}

// Marshal assembles an envelope from its signatures and encoded body.
func Marshal(guardianSetIndex uint32, signatures []Signature, body []byte) []byte {
	w := wire.NewWriter(headerSize + len(signatures)*signatureSize + len(body))
	w.U8(SupportedVersion).U32(guardianSetIndex).U8(uint8(len(signatures)))
	for _, sig := range signatures {
		w.U8(sig.GuardianIndex).Bytes(sig.Signature[:])
	}
	return w.Bytes(body).Finish()
}

func parse(raw []byte) (*VAA, []byte, error) {
	r := wire.NewReader(raw, ErrBadLength)
	v := &VAA{}
	var err error
	if v.Version, err = r.U8(); err != nil {
		return nil, nil, err
	}
	if v.Version != SupportedVersion {
		return nil, nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", v.Version)
	}
	if v.GuardianSetIndex, err = r.U32(); err != nil {
		return nil, nil, err
	}
	n, err := r.U8()
	if err != nil {
		return nil, nil, err
	}
	if err := r.Need(int(n)*signatureSize+bodyHeaderSize, "signatures and body"); err != nil {
		return nil, nil, err
	}
	v.Signatures = make([]Signature, n)
	for i := range v.Signatures {
		sig := &v.Signatures[i]
		if sig.GuardianIndex, err = r.U8(); err != nil {
			return nil, nil, err
		}
		b, err := r.Bytes(crypto.SignatureLength)
		if err != nil {
			return nil, nil, err
		}
		copy(sig.Signature[:], b)
	}

	body := raw[r.Offset():]
	if v.Timestamp, err = r.U32(); err != nil {
		return nil, nil, err
	}
	if v.Nonce, err = r.U32(); err != nil {
		return nil, nil, err
	}
	chain, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	v.EmitterChain = common.ChainID(chain)
	if v.EmitterAddress, err = r.Bytes32(); err != nil {
		return nil, nil, err
	}
	if v.Sequence, err = r.U64(); err != nil {
		return nil, nil, err
	}
	if v.ConsistencyLevel, err = r.U8(); err != nil {
		return nil, nil, err
	}
	v.Payload = append([]byte(nil), r.Rest()...)
	return v, body, nil
}

// Verify parses raw and checks it carries at least quorum valid signatures of set.
// Signer indices must be strictly increasing, so no guardian is counted twice.
func Verify(raw []byte, set GuardianSet, quorum int) (*VAA, error) {
	v, body, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if v.GuardianSetIndex != set.Index {
		return nil, errors.Wrapf(ErrGuardianSetMismatch, "envelope set %d, trusted set %d", v.GuardianSetIndex, set.Index)
	}
	if quorum <= 0 || len(set.Keys) == 0 || len(v.Signatures) < quorum {
		return nil, errors.Wrapf(ErrQuorumNotMet, "%d signatures, quorum %d", len(v.Signatures), quorum)
	}

	v.digest = SigningDigest(body)
	last := -1
	for _, sig := range v.Signatures {
		index := int(sig.GuardianIndex)
		if index <= last {
			return nil, errors.Wrapf(ErrDuplicateOrUnorderedSigner, "index %d after %d", index, last)
		}
		last = index
		if index >= len(set.Keys) {
			return nil, errors.Wrapf(ErrUnknownSigner, "index %d, set size %d", index, len(set.Keys))
		}
		pub, err := crypto.Recover(sig.Signature[:], v.digest[:])
		if err != nil {
			return nil, errors.Wrapf(ErrBadSignature, "guardian %d: %v", index, err)
		}
		if !pub.IsEqual(set.Keys[index]) {
			return nil, errors.Wrapf(ErrBadSignature, "guardian %d", index)
		}
	}
	return v, nil
}
