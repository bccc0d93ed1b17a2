package authz

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	signer := crypto.NewFromKey(key)
	authority := entity.Authority(signer.Address())

	digest := ContributionDigest(entity.SaleIDFromCounter(1), 2, uint256.NewInt(10), address.Universal{1}, uint256.NewInt(0))
	sig, err := signer.Sign(digest)
	require.NoError(t, err)
	require.NoError(t, Verify(authority, sig, digest))

	other := ContributionDigest(entity.SaleIDFromCounter(1), 2, uint256.NewInt(10), address.Universal{1}, uint256.NewInt(10))
	assert.Error(t, Verify(authority, sig, other))
	assert.Error(t, Verify(entity.Authority{1}, sig, digest))
	assert.Error(t, Verify(authority, sig[:10], digest))
}

func TestDigestsDiffer(t *testing.T) {
	id := entity.SaleIDFromCounter(1)
	assert.NotEqual(t,
		AuthorityUpdateDigest(id, entity.Authority{1}),
		AuthorityUpdateDigest(id, entity.Authority{2}),
	)
}
