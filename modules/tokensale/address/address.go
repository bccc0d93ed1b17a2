// Package address converts chain-native account identifiers to and from the
// 32-byte universal form used on the wire.
package address

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
)

// UniversalLength is the width of every address at the protocol boundary.
const UniversalLength = 32

var (
	ErrUnsupportedChain = errs.New(errs.CapacityError, "unsupported chain")
	ErrNonZeroPadding   = errs.New(errs.FormatError, "universal address has non-zero padding for target chain")
	ErrBadNativeLength  = errs.New(errs.FormatError, "native address has wrong length for chain")
)

// nativeWidths is the native address width in bytes of every supported chain.
var nativeWidths = map[common.ChainID]int{
	common.ChainSolana:    32,
	common.ChainEthereum:  20,
	common.ChainTerra:     20,
	common.ChainBSC:       20,
	common.ChainPolygon:   20,
	common.ChainAvalanche: 20,
	common.ChainAlgorand:  32,
	common.ChainFantom:    20,
}

// Universal is a 32-byte canonical address.
type Universal [UniversalLength]byte

func (u Universal) IsZero() bool {
	return u == Universal{}
}

func (u Universal) Bytes() []byte {
	return u[:]
}

func (u Universal) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

func (u Universal) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Universal) UnmarshalText(text []byte) error {
	parsed, err := ParseUniversal(string(text))
	if err != nil {
		return errors.WithStack(err)
	}
	*u = parsed
	return nil
}

// ParseUniversal parses a 64 character hex string, with or without 0x prefix.
func ParseUniversal(s string) (Universal, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Universal{}, errors.Wrap(errs.InvalidArgument, "universal address is not valid hex")
	}
	if len(b) != UniversalLength {
		return Universal{}, errors.Wrapf(errs.InvalidArgument, "universal address must be %d bytes, got %d", UniversalLength, len(b))
	}
	var u Universal
	copy(u[:], b)
	return u, nil
}

// IsSupported reports whether addresses of chain can be normalized.
func IsSupported(chain common.ChainID) bool {
	_, ok := nativeWidths[chain]
	return ok
}

// NativeWidth returns the native address width of chain in bytes.
func NativeWidth(chain common.ChainID) (int, error) {
	width, ok := nativeWidths[chain]
	if !ok {
		return 0, errors.Wrapf(ErrUnsupportedChain, "chain %s", chain)
	}
	return width, nil
}

// ToUniversal left-pads a native address of chain to 32 bytes.
func ToUniversal(native []byte, chain common.ChainID) (Universal, error) {
	width, err := NativeWidth(chain)
	if err != nil {
		return Universal{}, errors.WithStack(err)
	}
	if len(native) != width {
		return Universal{}, errors.Wrapf(ErrBadNativeLength, "chain %s expects %d bytes, got %d", chain, width, len(native))
	}
	var u Universal
	copy(u[UniversalLength-width:], native)
	return u, nil
}

// FromUniversal narrows u to the native width of chain. Padding bytes must be zero.
func FromUniversal(u Universal, chain common.ChainID) ([]byte, error) {
	width, err := NativeWidth(chain)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	pad := UniversalLength - width
	if !bytes.Equal(u[:pad], make([]byte, pad)) {
		return nil, errors.Wrapf(ErrNonZeroPadding, "chain %s", chain)
	}
	native := make([]byte, width)
	copy(native, u[pad:])
	return native, nil
}

// ParseNative parses the textual form of a native address: base58 on Solana, hex elsewhere.
func ParseNative(chain common.ChainID, s string) ([]byte, error) {
	width, err := NativeWidth(chain)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var native []byte
	switch chain {
	case common.ChainSolana:
		native = base58.Decode(s)
		if len(native) == 0 && s != "" {
			return nil, errors.Wrap(errs.InvalidArgument, "invalid base58 address")
		}
	default:
		native, err = hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
		if err != nil {
			return nil, errors.Wrap(errs.InvalidArgument, "invalid hex address")
		}
	}
	if len(native) != width {
		return nil, errors.Wrapf(ErrBadNativeLength, "chain %s expects %d bytes, got %d", chain, width, len(native))
	}
	return native, nil
}

// FormatNative renders a native address of chain in its textual form.
func FormatNative(chain common.ChainID, native []byte) (string, error) {
	width, err := NativeWidth(chain)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(native) != width {
		return "", errors.Wrapf(ErrBadNativeLength, "chain %s expects %d bytes, got %d", chain, width, len(native))
	}
	if chain == common.ChainSolana {
		return base58.Encode(native), nil
	}
	return "0x" + hex.EncodeToString(native), nil
}

// Parse accepts either a native textual address of chain or a 0x-prefixed universal address.
func Parse(chain common.ChainID, s string) (Universal, error) {
	if u, err := ParseUniversal(s); err == nil {
		if _, err := FromUniversal(u, chain); err != nil {
			return Universal{}, errors.WithStack(err)
		}
		return u, nil
	}
	native, err := ParseNative(chain, s)
	if err != nil {
		return Universal{}, errors.WithStack(err)
	}
	return ToUniversal(native, chain)
}
