// Package wire implements the big-endian fixed-width framing shared by the
// envelope and payload codecs.
package wire

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
)

// Reader consumes fixed-width fields from a byte slice. Every read past the end
// of the input returns eof wrapped with the field and offset.
type Reader struct {
	b   []byte
	off int
	eof error
}

func NewReader(b []byte, eof error) *Reader {
	return &Reader{b: b, eof: eof}
}

func (r *Reader) take(n int, field string) ([]byte, error) {
	if n < 0 || r.off+n > len(r.b) {
		return nil, errors.Wrapf(r.eof, "unexpected EOF reading %s at offset %d", field, r.off)
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v, nil
}

func (r *Reader) U8() (uint8, error) {
	v, err := r.take(1, "u8")
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (r *Reader) U16() (uint16, error) {
	v, err := r.take(2, "u16")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(v), nil
}

func (r *Reader) U32() (uint32, error) {
	v, err := r.take(4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v), nil
}

func (r *Reader) U64() (uint64, error) {
	v, err := r.take(8, "u64")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

// U128 reads a 16-byte big-endian unsigned integer.
func (r *Reader) U128() (uint128.Uint128, error) {
	v, err := r.take(16, "u128")
	if err != nil {
		return uint128.Zero, err
	}
	return uint128.New(binary.BigEndian.Uint64(v[8:]), binary.BigEndian.Uint64(v[:8])), nil
}

// U256 reads a 32-byte big-endian unsigned integer.
func (r *Reader) U256() (*uint256.Int, error) {
	v, err := r.take(32, "u256")
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(v), nil
}

// Bytes32 reads a 32-byte field such as an id or universal address.
func (r *Reader) Bytes32() ([32]byte, error) {
	var out [32]byte
	v, err := r.take(32, "bytes32")
	if err != nil {
		return out, err
	}
	copy(out[:], v)
	return out, nil
}

// Bytes20 reads a 20-byte field such as an authority address.
func (r *Reader) Bytes20() ([20]byte, error) {
	var out [20]byte
	v, err := r.take(20, "bytes20")
	if err != nil {
		return out, err
	}
	copy(out[:], v)
	return out, nil
}

// Bytes reads n bytes. The result aliases the input.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n, "bytes")
}

// Rest returns everything not yet consumed.
func (r *Reader) Rest() []byte {
	v := r.b[r.off:]
	r.off = len(r.b)
	return v
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) Remaining() int {
	return len(r.b) - r.off
}

// Need fails with eof unless n more bytes are available. Decoders call it once the
// element count is known so truncated lists are rejected as a whole.
func (r *Reader) Need(n int, field string) error {
	if r.Remaining() < n {
		return errors.Wrapf(r.eof, "%s needs %d bytes, %d remaining", field, n, r.Remaining())
	}
	return nil
}
