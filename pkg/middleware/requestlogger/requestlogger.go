package requestlogger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/pkg/errorhandler"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Config struct {
	WithRequestQuery bool `mapstructure:"request_query"`
	Disable          bool `mapstructure:"disable"` // Disable logger level `INFO`
}

// New logs every request once it completes. The request id set by the requestid
// middleware is added to the context logger of the handler.
func New(config Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		ctx := c.UserContext()
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
			ctx = logger.WithContext(ctx, "requestId", id)
			c.SetUserContext(ctx)
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			status = errorhandler.StatusOf(err)
			if e := new(fiber.Error); errors.As(err, &e) {
				status = e.Code
			}
		}

		attrs := []slog.Attr{
			slog.String("event", "api_request"),
			slog.Int64("latency", latency.Milliseconds()),
			slog.String("latencyHuman", latency.String()),
			slog.Group("request",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("route", c.Route().Path),
				slog.String("ip", c.IP()),
				slog.Int("length", len(c.Body())),
			),
			slog.Int("status", status),
		}
		if config.WithRequestQuery {
			attrs = append(attrs, slog.String("query", string(c.Request().URI().QueryString())))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
			attrs = append(attrs, slog.Any("error", err))
		case err != nil:
			// rejected messages are expected traffic
			attrs = append(attrs, slog.String("rejection", string(errs.ClassOf(err))), slog.String("reason", err.Error()))
		}

		if config.Disable && level == slog.LevelInfo {
			return errors.WithStack(err)
		}
		logger.FromContext(ctx).LogAttrs(ctx, level, "Request Completed", attrs...)
		return errors.WithStack(err)
	}
}
