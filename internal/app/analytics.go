package app

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/providers"
)

const (
	analyticsMaxSample   = 100
	largeTransferMaxSpan = 50
)

func (s *runtimeState) newAnalyticsCommand() *cobra.Command {
	root := &cobra.Command{Use: "analytics", Short: "On-chain activity summaries"}

	var activityAddress string
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Transaction activity for an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(activityAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": strings.ToLower(address.Hex()), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				nonce, err := client.NonceAt(ctx, address, nil)
				statuses := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, statuses, nil, false, err
				}
				data := model.AddressActivity{
					Address: strings.ToLower(address.Hex()),
					ChainID: s.chain.CAIP2,
					TxCount: nonce,
				}

				warnings := []string{}
				partial := false
				expStart := time.Now()
				history, err := s.explorer.AccountTransactions(ctx, providers.AccountHistoryRequest{
					Address:    address.Hex(),
					Page:       1,
					Limit:      analyticsMaxSample,
					Descending: true,
				})
				statuses = append(statuses, model.ProviderStatus{
					Name:      s.explorer.Info().Name,
					Status:    statusFromErr(err),
					LatencyMS: time.Since(expStart).Milliseconds(),
				})
				if err != nil {
					warnings = append(warnings, "explorer unavailable; history window omitted")
					partial = true
					return data, statuses, warnings, partial, nil
				}

				data.WindowTxCount = len(history)
				for _, tx := range history {
					if tx.TimestampUNIX == 0 {
						continue
					}
					if data.FirstSeenUNIX == 0 || tx.TimestampUNIX < data.FirstSeenUNIX {
						data.FirstSeenUNIX = tx.TimestampUNIX
					}
					if tx.TimestampUNIX > data.LastSeenUNIX {
						data.LastSeenUNIX = tx.TimestampUNIX
					}
				}
				if len(history) > 0 {
					first := history[len(history)-1].BlockNumber
					last := history[0].BlockNumber
					if last > first {
						data.WindowBlocks = last - first
					}
				}
				return data, statuses, warnings, partial, nil
			})
		},
	}
	activityCmd.Flags().StringVar(&activityAddress, "address", "", "Account address")
	_ = activityCmd.MarkFlagRequired("address")
	root.AddCommand(activityCmd)

	var (
		largeMinETH string
		largeBlocks uint64
	)
	largeCmd := &cobra.Command{
		Use:   "large-transfers",
		Short: "Native transfers above a threshold in recent blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if largeBlocks == 0 || largeBlocks > largeTransferMaxSpan {
				return clierr.New(clierr.CodeUsage, "--blocks must be between 1 and 50")
			}
			threshold, err := thresholdWei(largeMinETH)
			if err != nil {
				return err
			}
			req := map[string]any{"min_eth": largeMinETH, "blocks": largeBlocks, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				head, err := client.BlockNumber(ctx)
				if err != nil {
					return nil, rpcStatus(rpcProviderName, start, err), nil, false, err
				}

				from := uint64(0)
				if head >= largeBlocks {
					from = head - largeBlocks + 1
				}
				matches := make([]model.TransactionSummary, 0)
				warnings := []string{}
				partial := false
				for number := from; number <= head; number++ {
					block, err := client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
					if err != nil {
						warnings = append(warnings, "block scan stopped early; rpc error")
						partial = true
						break
					}
					for _, tx := range block.Transactions() {
						if tx.Value().Cmp(threshold) < 0 {
							continue
						}
						summary := s.txToSummary(tx, false, head, number, block.Hash().Hex())
						summary.TimestampUNIX = int64(block.Time())
						matches = append(matches, summary)
					}
				}
				status := rpcStatus(rpcProviderName, start, nil)
				data := map[string]any{
					"from_block":     from,
					"to_block":       head,
					"min_value_wei":  threshold.String(),
					"transfers":      matches,
					"transfer_count": len(matches),
				}
				return data, status, warnings, partial, nil
			})
		},
	}
	largeCmd.Flags().StringVar(&largeMinETH, "min-eth", "10", "Threshold in ETH (decimal)")
	largeCmd.Flags().Uint64Var(&largeBlocks, "blocks", 20, "How many recent blocks to scan (max 50)")
	root.AddCommand(largeCmd)

	var networkSample int
	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Block cadence and gas usage over a recent sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			if networkSample < 2 || networkSample > analyticsMaxSample {
				return clierr.New(clierr.CodeUsage, "--sample must be between 2 and 100")
			}
			req := map[string]any{"sample": networkSample, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				head, err := client.BlockNumber(ctx)
				if err != nil {
					return nil, rpcStatus(rpcProviderName, start, err), nil, false, err
				}

				var (
					firstTime, lastTime uint64
					gasRatioSum         float64
					txTotal             int
					sampled             int
				)
				warnings := []string{}
				partial := false
				for i := 0; i < networkSample && head >= uint64(i); i++ {
					number := head - uint64(i)
					block, err := client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
					if err != nil {
						warnings = append(warnings, "block sample stopped early; rpc error")
						partial = true
						break
					}
					if sampled == 0 {
						lastTime = block.Time()
					}
					firstTime = block.Time()
					if block.GasLimit() > 0 {
						gasRatioSum += float64(block.GasUsed()) / float64(block.GasLimit())
					}
					txTotal += len(block.Transactions())
					sampled++
				}
				if sampled < 2 {
					return nil, rpcStatus(rpcProviderName, start, nil), warnings, false, clierr.New(clierr.CodeUnavailable, "not enough blocks sampled")
				}

				data := model.ChainAnalytics{
					ChainID:          s.chain.CAIP2,
					LatestBlock:      head,
					AvgBlockTimeSecs: float64(lastTime-firstTime) / float64(sampled-1),
					AvgGasUsedRatio:  gasRatioSum / float64(sampled),
					TxPerBlock:       float64(txTotal) / float64(sampled),
					SampleBlocks:     sampled,
					FetchedAt:        s.runner.now().UTC().Format(time.RFC3339),
				}
				statuses := rpcStatus(rpcProviderName, start, nil)

				if price, err := client.SuggestGasPrice(ctx); err == nil {
					data.GasPriceWei = price.String()
				} else {
					warnings = append(warnings, "gas price unavailable")
					partial = true
				}
				rollupStart := time.Now()
				heads, err := s.rollup.LastBatchIndexes(ctx)
				statuses = append(statuses, model.ProviderStatus{
					Name:      s.rollup.Info().Name,
					Status:    statusFromErr(err),
					LatencyMS: time.Since(rollupStart).Milliseconds(),
				})
				if err != nil {
					warnings = append(warnings, "rollup api unavailable; batch lag omitted")
					partial = true
				} else if heads.CommittedIndex >= heads.FinalizedIndex {
					data.BatchLag = heads.CommittedIndex - heads.FinalizedIndex
				}
				return data, statuses, warnings, partial, nil
			})
		},
	}
	networkCmd.Flags().IntVar(&networkSample, "sample", 20, "How many recent blocks to sample (2-100)")
	root.AddCommand(networkCmd)

	return root
}

func thresholdWei(eth string) (*big.Int, error) {
	base, err := id.ParseUnits(eth, 18)
	if err != nil {
		return nil, err
	}
	return parseBig(base, "--min-eth")
}
