package slogx

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// ErrorKey is the attribute key used by [Error].
const ErrorKey = "error"

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Error returns an slog.Attr for an error value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(ErrorKey, err)
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Stringer returns an slog.Attr for a fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Hex returns an slog.Attr rendering b as a hex string.
func Hex(key string, b []byte) slog.Attr {
	return slog.String(key, hex.EncodeToString(b))
}

func Int(key string, value int) slog.Attr {
	return slog.Int64(key, int64(value))
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Uint8(key string, v uint8) slog.Attr {
	return slog.Uint64(key, uint64(v))
}

func Uint16(key string, v uint16) slog.Attr {
	return slog.Uint64(key, uint64(v))
}

func Uint32(key string, v uint32) slog.Attr {
	return slog.Uint64(key, uint64(v))
}

func Uint64(key string, v uint64) slog.Attr {
	return slog.Uint64(key, v)
}

func Bool(key string, v bool) slog.Attr {
	return slog.Bool(key, v)
}

func Time(key string, v time.Time) slog.Attr {
	return slog.Time(key, v)
}

func Duration(key string, v time.Duration) slog.Attr {
	return slog.Duration(key, v)
}
