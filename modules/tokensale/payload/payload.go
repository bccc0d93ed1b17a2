// Package payload encodes and decodes the fixed-layout sale messages carried
// inside attested envelopes.
package payload

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/wire"
	"github.com/holiman/uint256"
)

// ID discriminates the sale message types.
type ID uint8

const (
	// IDGovernance is reported by governance payloads, which carry a module tag instead of an id byte.
	IDGovernance          ID = 0
	IDSaleInit            ID = 1
	IDSolanaSaleInit      ID = 2
	IDSaleSealed          ID = 3
	IDSaleAborted         ID = 4
	IDContributionsSealed ID = 5
	IDAuthorityUpdated    ID = 6
)

var idNames = map[ID]string{
	IDGovernance:          "governance",
	IDSaleInit:            "sale_init",
	IDSolanaSaleInit:      "solana_sale_init",
	IDSaleSealed:          "sale_sealed",
	IDSaleAborted:         "sale_aborted",
	IDContributionsSealed: "contributions_sealed",
	IDAuthorityUpdated:    "authority_updated",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return "unknown"
}

var (
	ErrTooShort         = errs.New(errs.FormatError, "payload too short")
	ErrUnknownPayloadID = errs.New(errs.FormatError, "unknown payload id")
	ErrTrailingBytes    = errs.New(errs.FormatError, "trailing bytes after payload")
	ErrFieldRange       = errs.New(errs.FormatError, "payload field out of range")
	ErrUnknownAction    = errs.New(errs.FormatError, "unknown governance action")
	ErrWrongModule      = errs.New(errs.AuthenticityError, "governance module tag mismatch")
	ErrTooManyTokens    = errs.New(errs.CapacityError, "too many list entries for one byte count")
)

// Payload is a decoded sale message.
type Payload interface {
	PayloadID() ID
	Encode() ([]byte, error)
}

// Decode decodes any sale or governance payload.
func Decode(b []byte) (Payload, error) {
	if len(b) == 0 {
		return nil, errors.WithStack(ErrTooShort)
	}
	switch ID(b[0]) {
	case IDSaleInit:
		return DecodeSaleInit(b)
	case IDSolanaSaleInit:
		return DecodeSolanaSaleInit(b)
	case IDSaleSealed:
		return DecodeSaleSealed(b)
	case IDSaleAborted:
		return DecodeSaleAborted(b)
	case IDContributionsSealed:
		return DecodeContributionsSealed(b)
	case IDAuthorityUpdated:
		return DecodeAuthorityUpdated(b)
	case IDGovernance:
		// module tags are left padded, so their first byte is zero
		return DecodeRegisterChain(b)
	default:
		return nil, errors.Wrapf(ErrUnknownPayloadID, "id %d", b[0])
	}
}

// PeekID returns the payload id without decoding the rest.
func PeekID(b []byte) (ID, error) {
	if len(b) == 0 {
		return 0, errors.WithStack(ErrTooShort)
	}
	id := ID(b[0])
	if _, ok := idNames[id]; !ok {
		return 0, errors.Wrapf(ErrUnknownPayloadID, "id %d", b[0])
	}
	return id, nil
}

func newReader(b []byte, want ID) (*wire.Reader, error) {
	r := wire.NewReader(b, ErrTooShort)
	id, err := r.U8()
	if err != nil {
		return nil, err
	}
	if ID(id) != want {
		return nil, errors.Wrapf(ErrUnknownPayloadID, "expected %s (%d), got %d", want, want, id)
	}
	return r, nil
}

func finish(r *wire.Reader) error {
	if n := r.Remaining(); n > 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes", n)
	}
	return nil
}

// readTimestamp reads a 32-byte timestamp. Values beyond uint64 are rejected.
func readTimestamp(r *wire.Reader) (uint64, error) {
	v, err := r.U256()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, errors.Wrapf(ErrFieldRange, "timestamp %s", v.Dec())
	}
	return v.Uint64(), nil
}

func writeTimestamp(w *wire.Writer, ts uint64) {
	w.U256(uint256.NewInt(ts))
}

func countByte(n int, list string) (uint8, error) {
	if n > 255 {
		return 0, errors.Wrapf(ErrTooManyTokens, "%d %s", n, list)
	}
	return uint8(n), nil
}
