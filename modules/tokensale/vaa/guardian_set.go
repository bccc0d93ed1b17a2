package vaa

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
)

// GuardianSet is an ordered set of trusted signer keys for one epoch.
type GuardianSet struct {
	Index uint32
	Keys  []*btcec.PublicKey
}

// ParseGuardianSet parses hex encoded public keys.
func ParseGuardianSet(index uint32, keys []string) (GuardianSet, error) {
	set := GuardianSet{Index: index, Keys: make([]*btcec.PublicKey, 0, len(keys))}
	for i, key := range keys {
		pub, err := crypto.ParsePublicKey(key)
		if err != nil {
			return GuardianSet{}, errors.Wrapf(err, "guardian %d", i)
		}
		set.Keys = append(set.Keys, pub)
	}
	return set, nil
}

// Quorum is the smallest number of signatures above two thirds of the set.
func (s GuardianSet) Quorum() int {
	return len(s.Keys)*2/3 + 1
}

// Verifier bundles the trusted guardian set with the signature threshold.
type Verifier struct {
	Set GuardianSet
	// Quorum overrides the default threshold of the set when positive.
	Quorum int
}

func (v Verifier) Threshold() int {
	if v.Quorum > 0 {
		return v.Quorum
	}
	return v.Set.Quorum()
}

func (v Verifier) Verify(raw []byte) (*VAA, error) {
	return Verify(raw, v.Set, v.Threshold())
}
