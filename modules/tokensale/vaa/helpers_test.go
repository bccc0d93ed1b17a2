package vaa_test

import "encoding/hex"

func hexKey(b []byte) string {
	return hex.EncodeToString(b)
}
