package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectedLevel(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		level string
	}{
		{"replay", errs.New(errs.ReplayError, "already applied"), "DEBUG"},
		{"state", errs.New(errs.StateError, "sale not active"), "DEBUG"},
		{"capacity", errs.New(errs.CapacityError, "insufficient funds"), "DEBUG"},
		{"authenticity", errs.New(errs.AuthenticityError, "bad signature"), "WARN"},
		{"internal", errs.New(errs.SomethingWentWrong, "insufficient escrow"), "ERROR"},
		{"unclassified", errors.New("disk full"), "ERROR"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			ctx := logger.NewContext(context.Background(), l)

			Rejected(ctx, "contribute", tc.err)

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tc.level, record["level"])
			assert.Equal(t, "contribute", record["op"])
		})
	}
}
