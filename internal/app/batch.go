package app

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/rollup"
)

func (s *runtimeState) rollupStatusList(err error, start time.Time) []model.ProviderStatus {
	return []model.ProviderStatus{{Name: s.rollup.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
}

func (s *runtimeState) newBatchCommand() *cobra.Command {
	root := &cobra.Command{Use: "batch", Short: "Rollup batches"}

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Most recent batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				batches, err := s.rollup.Batches(ctx, 1, 1)
				status := s.rollupStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				if len(batches) == 0 {
					return nil, status, nil, false, clierr.New(clierr.CodeUnavailable, "rollup api returned no batches")
				}
				return batches[0], status, nil, false, nil
			})
		},
	}
	root.AddCommand(latestCmd)

	var getIndex uint64
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Batch by index, with a finalization estimate when pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"index": getIndex, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				batch, err := s.rollup.BatchByIndex(ctx, getIndex)
				status := s.rollupStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				warnings := []string{}
				if batch.Status != rollup.FinalityFinalized {
					recent, err := s.rollup.Batches(ctx, 1, 10)
					if err != nil {
						warnings = append(warnings, "recent batches unavailable; finalization estimate omitted")
					} else {
						avg, _ := rollup.AvgFinalizeInterval(recent)
						batch.EstimatedFinalize = rollup.EstimateFinalization(batch, avg, s.runner.now())
					}
				}
				return batch, status, warnings, false, nil
			})
		},
	}
	getCmd.Flags().Uint64Var(&getIndex, "index", 0, "Batch index")
	_ = getCmd.MarkFlagRequired("index")
	root.AddCommand(getCmd)

	var statusIndex uint64
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Classify a batch index against the committed and finalized heads",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"index": statusIndex, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				heads, err := s.rollup.LastBatchIndexes(ctx)
				status := s.rollupStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				classified := "pending"
				switch {
				case statusIndex <= heads.FinalizedIndex:
					classified = "finalized"
				case statusIndex <= heads.CommittedIndex:
					classified = "committed"
				}
				data := model.BatchSummary{Index: statusIndex, Status: classified}
				return data, status, nil, false, nil
			})
		},
	}
	statusCmd.Flags().Uint64Var(&statusIndex, "index", 0, "Batch index")
	_ = statusCmd.MarkFlagRequired("index")
	root.AddCommand(statusCmd)

	return root
}

func (s *runtimeState) newRollupCommand() *cobra.Command {
	root := &cobra.Command{Use: "rollup", Short: "Rollup state"}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Committed and finalized heads with block-level lag",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				heads, err := s.rollup.LastBatchIndexes(ctx)
				statuses := s.rollupStatusList(err, start)
				if err != nil {
					return nil, statuses, nil, false, err
				}
				data := model.RollupStatus{
					ChainID:            s.chain.CAIP2,
					L1ChainID:          caip2(s.chain.L1ChainID),
					LastFinalizedBatch: heads.FinalizedIndex,
					LastCommittedBatch: heads.CommittedIndex,
					FetchedAt:          s.runner.now().UTC().Format(time.RFC3339),
				}

				warnings := []string{}
				partial := false
				if batches, err := s.rollup.Batches(ctx, 1, 10); err == nil {
					avg, _ := rollup.AvgFinalizeInterval(batches)
					data.AvgFinalizeIntervalSecs = avg
				}

				client, err := s.l2(ctx)
				if err != nil {
					warnings = append(warnings, "l2 rpc unavailable; block heads omitted")
					partial = true
					return data, statuses, warnings, partial, nil
				}
				rpcStart := time.Now()
				head, err := client.BlockNumber(ctx)
				statuses = append(statuses, rpcStatus(rpcProviderName, rpcStart, err)...)
				if err != nil {
					warnings = append(warnings, "l2 rpc unavailable; block heads omitted")
					partial = true
					return data, statuses, warnings, partial, nil
				}
				data.L2BlockNumber = head
				if finalized, err := finalizedBlockNumber(ctx, client); err == nil {
					data.FinalizedL2BlockNumber = finalized
				}
				return data, statuses, warnings, partial, nil
			})
		},
	}
	root.AddCommand(statusCmd)

	var estimateIndex uint64
	estimateCmd := &cobra.Command{
		Use:   "finality-estimate",
		Short: "Estimate when a batch will finalize",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"index": estimateIndex, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				recent, err := s.rollup.Batches(ctx, 1, 10)
				status := s.rollupStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				avg, samples := rollup.AvgFinalizeInterval(recent)

				var batch model.BatchSummary
				if estimateIndex > 0 {
					batch, err = s.rollup.BatchByIndex(ctx, estimateIndex)
					if err != nil {
						return nil, status, nil, false, err
					}
				} else if len(recent) > 0 {
					batch = recent[0]
				}
				batch.EstimatedFinalize = rollup.EstimateFinalization(batch, avg, s.runner.now())
				data := map[string]any{
					"batch":                      batch,
					"avg_finalize_interval_secs": avg,
					"samples":                    samples,
				}
				return data, status, nil, false, nil
			})
		},
	}
	estimateCmd.Flags().Uint64Var(&estimateIndex, "index", 0, "Batch index (0 = most recent)")
	root.AddCommand(estimateCmd)

	return root
}

func caip2(chainID int64) string {
	return "eip155:" + strconv.FormatInt(chainID, 10)
}
