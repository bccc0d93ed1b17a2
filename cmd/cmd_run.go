package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/internal/config"
	"github.com/gaze-network/crosschain-sale/modules/tokensale"
	"github.com/gaze-network/crosschain-sale/pkg/errorhandler"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/gaze-network/crosschain-sale/pkg/middleware/requestlogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Register Modules
var Modules = do.Package(
	do.LazyNamed("tokensale", tokensale.New),
)

func NewRunCommand() *cobra.Command {
	// Create command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start token sale node",
		RunE:  runHandler,
	}

	// Add local flags
	flags := runCmd.Flags()
	flags.Int("port", 0, "HTTP server port")
	flags.String("database", "", "Database to store sale state. E.g. `memory` or `postgres`")

	// Bind flags to configuration
	config.BindPFlag("http_server.port", flags.Lookup("port"))
	config.BindPFlag("modules.tokensale.database", flags.Lookup("database"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()

	// Initialize application process context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)

	// Initialize HTTP server
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		app := fiber.New(fiber.Config{
			AppName:               "Token Sale",
			ErrorHandler:          errorhandler.NewHTTPErrorHandler(),
			DisableStartupMessage: true,
		})
		app.
			Use(favicon.New()).
			Use(cors.New()).
			Use(requestid.New()).
			Use(requestlogger.New(conf.HTTPServer.Logger)).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024) // bufLen = 1024
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", errors.Newf("panic: %v", e), slog.String("stacktrace", string(buf)))
				},
			})).
			Use(compress.New(compress.Config{
				Level: compress.LevelDefault,
			}))

		// Health check
		app.Get("/", func(c *fiber.Ctx) error {
			return errors.WithStack(c.SendStatus(http.StatusOK))
		})

		return app, nil
	})

	// Start the node, this also mounts its API on the HTTP server
	node, err := do.InvokeNamed[*tokensale.Node](injector, "tokensale")
	if err != nil {
		return errors.Wrap(err, "can't init token sale node")
	}
	ctx = logger.WithContext(ctx, slogx.Stringer("role", node.Role()))

	httpServer := do.MustInvoke[*fiber.App](injector)
	group, gctx := errgroup.WithContext(ctx)

	// Run API server
	group.Go(func() error {
		logger.InfoContext(ctx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			return errors.Wrap(err, "error during running HTTP server")
		}
		return nil
	})

	// Stop API server on interrupt signal or server failure
	group.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "Stopping HTTP server...")
		return errors.WithStack(httpServer.ShutdownWithTimeout(shutdownTimeout))
	})

	logger.InfoContext(ctx, "Token sale node started")

	// Wait for interrupt signal or a failing server to gracefully stop the node
	runErr := group.Wait()

	// Force shutdown if timeout exceeded or got signal again
	go func() {
		defer os.Exit(1)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
			logger.FatalContext(ctx, "Received exit signal again. Force shutdown...")
		case <-time.After(shutdownTimeout + 15*time.Second):
			logger.FatalContext(ctx, "Shutdown timeout exceeded. Force shutdown...")
		}
	}()

	if err := injector.Shutdown(); err != nil {
		logger.ErrorContext(ctx, "Failed while gracefully shutting down", err)
	}

	if runErr != nil {
		return errors.WithStack(runErr)
	}
	return nil
}
