package wire

import (
	"encoding/binary"

	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
)

// Writer appends big-endian fixed-width fields.
type Writer struct {
	buf []byte
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
	return w
}

func (w *Writer) U128(v uint128.Uint128) *Writer {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v.Hi)
	w.buf = binary.BigEndian.AppendUint64(w.buf, v.Lo)
	return w
}

// U256 writes v as 32 bytes. A nil value is written as zero.
func (w *Writer) U256(v *uint256.Int) *Writer {
	if v == nil {
		v = new(uint256.Int)
	}
	b := v.Bytes32()
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) Bytes(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Finish() []byte {
	return w.buf
}
