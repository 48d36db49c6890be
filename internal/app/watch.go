package app

import (
	"context"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/watch"
)

func (s *runtimeState) newWatchCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "watch",
		Short: "Poll the chain for events",
		Long: "Polls for one event kind and emits an envelope per batch of events. " +
			"Cursors persist across runs, so restarting a watch resumes where it " +
			"left off instead of replaying history.",
	}

	kindsCmd := &cobra.Command{
		Use:   "kinds",
		Short: "List supported watch kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), watch.Kinds(), nil, cacheMetaBypass(), nil, false)
		},
	}
	root.AddCommand(kindsCmd)

	var (
		runAddress       string
		runContract      string
		runTopic         string
		runTx            string
		runConfirmations uint64
		runThresholdWei  string
		runWindow        uint64
		runInterval      time.Duration
		runOnce          bool
	)
	runCmd := &cobra.Command{
		Use:   "run <kind>",
		Short: "Start a watch loop for one event kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window := runWindow
			if window == 0 {
				window = uint64(s.settings.WatchWindow)
			}
			spec := watch.Spec{
				Kind:          strings.TrimSpace(args[0]),
				ChainID:       s.chain.EVMChainID,
				Address:       runAddress,
				Contract:      runContract,
				Topic:         runTopic,
				TxHash:        runTx,
				Confirmations: runConfirmations,
				ThresholdWei:  runThresholdWei,
				Window:        window,
			}
			if err := spec.Validate(); err != nil {
				return err
			}

			interval := runInterval
			if interval <= 0 {
				interval = s.settings.WatchInterval
			}
			store, err := s.store()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			client, err := s.l2(ctx)
			if err != nil {
				return err
			}
			poller := watch.NewPoller(spec, store, client)
			commandPath := trimRootPath(cmd.CommandPath())

			if runOnce {
				pollCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
				events, err := poller.PollOnce(pollCtx)
				cancel()
				if err != nil {
					return err
				}
				return s.emitWatchBatch(commandPath, spec, events)
			}

			for {
				pollCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
				events, err := poller.PollOnce(pollCtx)
				cancel()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					s.renderError(commandPath, normalizeRunError(err), nil, nil, false)
				} else if len(events) > 0 {
					if err := s.emitWatchBatch(commandPath, spec, events); err != nil {
						return err
					}
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(jitter(interval)):
				}
			}
		},
	}
	runCmd.Flags().StringVar(&runAddress, "address", "", "Account filter for transfer and activity kinds")
	runCmd.Flags().StringVar(&runContract, "contract", "", "Contract address for event and transfer kinds")
	runCmd.Flags().StringVar(&runTopic, "topic", "", "topic0 filter for contract-event")
	runCmd.Flags().StringVar(&runTx, "tx", "", "Transaction hash for tx-confirmed")
	runCmd.Flags().Uint64Var(&runConfirmations, "confirmations", 1, "Confirmation depth for tx-confirmed")
	runCmd.Flags().StringVar(&runThresholdWei, "threshold-wei", "", "Value threshold for large-tx")
	runCmd.Flags().Uint64Var(&runWindow, "window", 0, "Max blocks scanned per poll (0 = config default)")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Poll interval (0 = config default)")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Poll once and exit, emitting even an empty batch")
	root.AddCommand(runCmd)

	var resetKind string
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the stored cursor for a watch id or kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(resetKind) == "" {
				return clierr.New(clierr.CodeUsage, "provide the watch id with --id")
			}
			store, err := s.store()
			if err != nil {
				return err
			}
			if err := store.ResetCursor(resetKind); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "reset watch cursor", err)
			}
			data := map[string]any{"watch_id": resetKind, "reset": true}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	resetCmd.Flags().StringVar(&resetKind, "id", "", "Watch id as reported in batch output")
	root.AddCommand(resetCmd)

	return root
}

func (s *runtimeState) emitWatchBatch(commandPath string, spec watch.Spec, events []model.WatchEvent) error {
	data := map[string]any{
		"watch_id": spec.ID(),
		"kind":     spec.Kind,
		"events":   events,
		"count":    len(events),
	}
	return s.emitSuccess(commandPath, data, nil, cacheMetaBypass(), nil, false)
}

// jitter spreads poll intervals by up to 10% to avoid thundering herds
// when several watches share a provider.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	spread := int64(d) / 10
	if spread == 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(spread*2)-spread)
}
