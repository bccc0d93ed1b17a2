package postgres

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/uint128"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
)

// encodeAmount returns the 32 byte big-endian form of v, or nil for a nil value.
func encodeAmount(v *uint256.Int) []byte {
	if v == nil {
		return nil
	}
	b := v.Bytes32()
	return b[:]
}

func decodeAmount(b []byte) (*uint256.Int, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) != 32 {
		return nil, errors.Errorf("invalid amount length %d", len(b))
	}
	return new(uint256.Int).SetBytes(b), nil
}

func encodeRate(v uint128.Uint128) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], v.Hi)
	binary.BigEndian.PutUint64(b[8:], v.Lo)
	return b
}

func decodeRate(b []byte) (uint128.Uint128, error) {
	if len(b) != 16 {
		return uint128.Zero, errors.Errorf("invalid conversion rate length %d", len(b))
	}
	return uint128.New(binary.BigEndian.Uint64(b[8:]), binary.BigEndian.Uint64(b[:8])), nil
}

// Timestamps are stored as BIGINT, so values above math.MaxInt64 wrap to negative numbers
// and come back unchanged.
func encodeTimestamp(v uint64) int64 { return int64(v) }

func decodeTimestamp(v int64) uint64 { return uint64(v) }

func decodeUniversal(b []byte) (address.Universal, error) {
	var u address.Universal
	if len(b) != len(u) {
		return u, errors.Errorf("invalid address length %d", len(b))
	}
	copy(u[:], b)
	return u, nil
}

func decodeSaleID(b []byte) (entity.SaleID, error) {
	var id entity.SaleID
	if len(b) != len(id) {
		return id, errors.Errorf("invalid sale id length %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

func decodeAuthority(b []byte) (entity.Authority, error) {
	var a entity.Authority
	if len(b) != len(a) {
		return a, errors.Errorf("invalid authority length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// mapError converts pgx.ErrNoRows into errs.NotFound and wraps the rest.
func mapError(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.WithStack(errs.NotFound)
	}
	return errors.Wrap(err, msg)
}
