// Package authz builds and checks the digests signed by a sale authority.
package authz

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/holiman/uint256"
)

var ErrSignerMismatch = errors.New("signature is not from authority")

// AuthorityUpdateDigest is signed by the current authority to rotate it.
func AuthorityUpdateDigest(saleID entity.SaleID, newAuthority entity.Authority) []byte {
	return crypto.Hash(saleID[:], newAuthority[:])
}

// AbortDigest is signed by the initiator or the authority to cancel a sale before it starts.
func AbortDigest(saleID entity.SaleID) []byte {
	return crypto.Hash(saleID[:], []byte("abort"))
}

// ContributionDigest is signed by the authority to approve a buyer contribution.
// prior is the buyer's contribution to the token before this one, so an approval cannot be reused.
func ContributionDigest(saleID entity.SaleID, tokenIndex uint8, amount *uint256.Int, buyer address.Universal, prior *uint256.Int) []byte {
	a, p := amount.Bytes32(), prior.Bytes32()
	return crypto.Hash(saleID[:], []byte{tokenIndex}, a[:], buyer[:], p[:])
}

// Signer returns the address of the key that signed digest.
func Signer(signature, digest []byte) (entity.Authority, error) {
	signer, err := crypto.RecoverAddress(signature, digest)
	if err != nil {
		return entity.Authority{}, errors.WithStack(err)
	}
	return entity.Authority(signer), nil
}

// Verify checks signature over digest was produced by the key of authority.
func Verify(authority entity.Authority, signature, digest []byte) error {
	signer, err := Signer(signature, digest)
	if err != nil {
		return err
	}
	if signer != authority {
		return errors.Wrapf(ErrSignerMismatch, "signer %s", signer)
	}
	return nil
}
