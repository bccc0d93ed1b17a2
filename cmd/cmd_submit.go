package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/api/nodeclient"
	"github.com/gaze-network/crosschain-sale/pkg/httpclient"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

type submitCmdOptions struct {
	Nodes   []string
	Route   string
	Timeout time.Duration
	Debug   bool
}

func NewSubmitCommand() *cobra.Command {
	opts := &submitCmdOptions{}

	cmd := &cobra.Command{
		Use:     "submit <envelope>",
		Short:   "Deliver a hex encoded attested envelope to one or more nodes",
		Args:    cobra.ExactArgs(1),
		Example: `tokensale submit --node http://localhost:8080 --node http://localhost:8081 0x01000000...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.Nodes, "node", nil, "Base URL of a node, repeatable")
	flags.StringVar(&opts.Route, "route", "", "Endpoint of the envelope, `envelopes` | `governance` | `contributions`. Default depends on the node role")
	flags.DurationVar(&opts.Timeout, "timeout", httpclient.DefaultTimeout, "Timeout of each request")
	flags.BoolVar(&opts.Debug, "debug", false, "Log every request")

	return cmd
}

func submitHandler(opts *submitCmdOptions, cmd *cobra.Command, args []string) error {
	if len(opts.Nodes) == 0 {
		return errors.New("--node is required")
	}
	envelope, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(args[0]), "0x"))
	if err != nil {
		return errors.Wrap(errs.InvalidArgument, "envelope is not valid hex")
	}
	var route nodeclient.Route
	if opts.Route != "" {
		if route, err = nodeclient.ParseRoute(opts.Route); err != nil {
			return errors.WithStack(err)
		}
	}

	ctx := cmd.Context()
	var failed int
	for _, node := range opts.Nodes {
		ctx := logger.WithContext(ctx, slogx.String("node", node))
		if err := submitTo(cmd, node, route, envelope, opts); err != nil {
			// already applied envelopes are a success for the sender
			if errors.Is(err, errs.ReplayError) {
				logger.InfoContext(ctx, "Envelope already applied")
				continue
			}
			failed++
			logger.ErrorContext(ctx, "Failed to submit envelope", err)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d nodes rejected the envelope", failed, len(opts.Nodes))
	}
	return nil
}

func submitTo(cmd *cobra.Command, node string, route nodeclient.Route, envelope []byte, opts *submitCmdOptions) error {
	client, err := nodeclient.New(node, httpclient.Config{Debug: opts.Debug, Timeout: opts.Timeout})
	if err != nil {
		return errors.WithStack(err)
	}
	if route == "" {
		info, err := client.Info(cmd.Context())
		if err != nil {
			return errors.WithStack(err)
		}
		route = nodeclient.DefaultRoute(info.Role)
	}
	result, err := client.Submit(cmd.Context(), route, envelope)
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", node, string(result))
	return nil
}
