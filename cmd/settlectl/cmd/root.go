// Package cmd provides the settlectl commands.
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/backend"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/fixture"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/pkg/logging"
)

type options struct {
	envFile  string
	backend  string
	debug    bool
	exponent int32
}

// NewRootCmd builds the settlectl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "settlectl",
		Short: "Inspect and seed splitledger groups",
		Long: `settlectl operates directly on the configured splitledger backend.

Amounts are printed in major units using --exponent decimal places.
Run it while the server is stopped: the server caches balances per group.

Example:
  settlectl import testdata/trip.yaml
  settlectl balances trip
  settlectl plan trip
  settlectl split --total 100 alice bob carol`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file to load (default is .env)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "override DATA_BACKEND (sqlite, bolt, memory)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().Int32Var(&opts.exponent, "exponent", fixture.DefaultExponent, "decimal places of the currency")

	root.AddCommand(
		newImportCmd(opts),
		newBalancesCmd(opts),
		newPlanCmd(opts),
		newSplitCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) config() *config.Config {
	var cfg *config.Config
	if o.envFile != "" {
		cfg = config.Load(o.envFile)
	} else {
		cfg = config.Load()
	}
	if o.backend != "" {
		cfg.DataBackend = o.backend
	}
	return cfg
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := "warn"
	if o.debug {
		level = "debug"
	}
	return logging.New(cmd.ErrOrStderr(), level, "text")
}

// openLedger opens the configured backend and a ledger over it. The returned
// function releases the backend.
func (o *options) openLedger(ctx context.Context, cmd *cobra.Command) (*backend.Result, *ledger.Ledger, func(), error) {
	cfg := o.config()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger := o.logger(cmd)

	res, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	l := ledger.New(res.Store,
		ledger.WithLogger(logger),
		ledger.WithPublisher(res.Publisher),
		ledger.WithStrictInvariants(cfg.StrictInvariants),
	)
	release := func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	}
	return res, l, release, nil
}
