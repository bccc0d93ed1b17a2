package crypto

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
)

// SignatureLength is the size of a compact recoverable signature.
const SignatureLength = 65

// AddressLength is the size of an address derived from a public key.
const AddressLength = 20

// Client signs digests with a secp256k1 key.
type Client struct {
	privateKey *btcec.PrivateKey
}

// New creates a client from a hex encoded private key.
func New(privateKeyStr string) (*Client, error) {
	privateKeyBytes, err := hex.DecodeString(privateKeyStr)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	if len(privateKeyBytes) != btcec.PrivKeyBytesLen {
		return nil, errors.Errorf("private key must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(privateKeyBytes))
	}
	privateKey, _ := btcec.PrivKeyFromBytes(privateKeyBytes)
	return &Client{privateKey: privateKey}, nil
}

func NewFromKey(privateKey *btcec.PrivateKey) *Client {
	return &Client{privateKey: privateKey}
}

func (c *Client) PublicKey() *btcec.PublicKey {
	return c.privateKey.PubKey()
}

func (c *Client) Address() [AddressLength]byte {
	return Address(c.PublicKey())
}

// Sign returns the compact recoverable signature of digest.
func (c *Client) Sign(digest []byte) ([]byte, error) {
	sig, err := ecdsa.SignCompact(c.privateKey, digest, true)
	if err != nil {
		return nil, errors.Wrap(err, "sign compact")
	}
	return sig, nil
}

// Hash is the double SHA-256 of the concatenated parts.
func Hash(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	msg := make([]byte, 0, size)
	for _, p := range parts {
		msg = append(msg, p...)
	}
	return chainhash.DoubleHashB(msg)
}

// Recover returns the public key that produced a compact signature over digest.
func Recover(signature, digest []byte) (*btcec.PublicKey, error) {
	if len(signature) != SignatureLength {
		return nil, errors.Errorf("signature must be %d bytes, got %d", SignatureLength, len(signature))
	}
	pub, _, err := ecdsa.RecoverCompact(signature, digest)
	if err != nil {
		return nil, errors.Wrap(err, "recover public key")
	}
	return pub, nil
}

// Address is the hash160 of the compressed public key.
func Address(pub *btcec.PublicKey) [AddressLength]byte {
	var addr [AddressLength]byte
	copy(addr[:], btcutil.Hash160(pub.SerializeCompressed()))
	return addr
}

// RecoverAddress returns the address of the key that signed digest.
func RecoverAddress(signature, digest []byte) ([AddressLength]byte, error) {
	pub, err := Recover(signature, digest)
	if err != nil {
		return [AddressLength]byte{}, errors.WithStack(err)
	}
	return Address(pub), nil
}

// ParsePublicKey parses a hex encoded compressed or uncompressed public key.
func ParsePublicKey(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "pubkey decode")
	}
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, errors.Wrap(err, "pubkey parse")
	}
	return pub, nil
}
