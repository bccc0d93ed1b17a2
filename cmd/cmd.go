package cmd

import (
	"context"
	"log/slog"

	"github.com/gaze-network/crosschain-sale/internal/config"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var (
	// root command
	cmd = &cobra.Command{
		Use: "tokensale",
		Long: `Cross-chain token sale node.
A conductor node publishes sales and decides their outcome, contributor nodes collect contributions on their chain.`,
	}

	// sub-commands
	cmds = []*cobra.Command{
		NewVersionCommand(),
		NewRunCommand(),
		NewMigrateCommand(),
		NewGenerateKeypairCommand(),
		NewSubmitCommand(),
	}
)

// Execute runs the root command.
func Execute(ctx context.Context) {
	var configFile string

	// Add global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, E.g. `./config.yaml`")

	// Bind flags to configuration
	flags.String("role", "", "role of the node, E.g. `conductor` or `contributor`")
	config.BindPFlag("modules.tokensale.role", flags.Lookup("role"))

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		// Initialize configuration
		config := config.Parse(configFile)

		// Initialize logger
		if err := logger.Init(config.Logger); err != nil {
			logger.Panic("Something went wrong, can't init logger", slogx.Error(err), slog.Any("config", config.Logger))
		}
	})

	// Register sub-commands
	cmd.AddCommand(cmds...)

	// Execute command
	if err := cmd.ExecuteContext(ctx); err != nil {
		// Cobra will print the error message by default
		logger.DebugContext(ctx, "Error executing command", slogx.Error(err))
	}
}
