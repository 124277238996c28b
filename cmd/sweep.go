package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/graviton-studio/logos-I/internal/config"
	"github.com/graviton-studio/logos-I/internal/logging"
	"github.com/graviton-studio/logos-I/internal/token"
)

func newSweepCmd() *cobra.Command {
	var (
		interval    time.Duration
		lead        time.Duration
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh credentials nearing expiry",
		Long: `Run the token refresh sweep against the credential store.

By default a single pass runs and the command exits; --interval keeps
sweeping on a schedule, for running the sweep as its own process instead
of inside the gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(interval, lead, concurrency)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Sweep repeatedly at this interval (0 = one pass)")
	cmd.Flags().DurationVar(&lead, "lead", 0, "Refresh credentials expiring within this window (default: the safety margin)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel refreshes per pass (default from the sweeper)")

	return cmd
}

func runSweep(interval, lead time.Duration, concurrency int) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config.LoadEnv(ctx, ".env")
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	specs, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(specs, cfg)
	if err != nil {
		return err
	}
	tokens := token.NewService(store, registry,
		token.WithSafetyMargin(cfg.SafetyMargin),
		token.WithLogger(logger),
	)

	opts := []token.SweeperOption{token.WithSweepLogger(logger)}
	if lead > 0 {
		opts = append(opts, token.WithSweepLead(lead))
	}
	if concurrency > 0 {
		opts = append(opts, token.WithSweepConcurrency(concurrency))
	}
	sweeper := token.NewSweeper(tokens, store, opts...)

	if interval > 0 {
		err := sweeper.Run(ctx, interval)
		if err == context.Canceled {
			return nil
		}
		return err
	}

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	logger.Info("sweep complete",
		"scanned", result.Scanned,
		"refreshed", result.Refreshed,
		"skipped", result.Skipped,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)
	if result.Failed > 0 {
		logger.Warn("some refreshes failed; they will be retried next pass",
			logging.Status(logging.StatusError))
	}
	return nil
}
