// Package eventlog logs the outcome of state machine operations.
package eventlog

import (
	"context"

	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
)

// Rejected logs a rejected operation at a level that depends on its class.
func Rejected(ctx context.Context, op string, err error, args ...any) {
	class := errs.ClassOf(err)
	args = append(args, slogx.String("op", op), slogx.String("class", string(class)))
	switch class {
	case errs.ReplayError:
		logger.DebugContext(ctx, "message already applied", append(args, slogx.Error(err))...)
	case errs.AuthenticityError:
		logger.WarnContext(ctx, "rejected unauthenticated message", append(args, slogx.Error(err))...)
	case "", errs.SomethingWentWrong:
		logger.ErrorContext(ctx, "operation failed", err, args...)
	default:
		logger.DebugContext(ctx, "rejected operation", append(args, slogx.Error(err))...)
	}
}

// Applied logs a state transition.
func Applied(ctx context.Context, op string, args ...any) {
	logger.InfoContext(ctx, "applied "+op, args...)
}
