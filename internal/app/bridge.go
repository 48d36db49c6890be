package app

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/rollup"
)

// Gas budgets for bridge fee heuristics. Deposits relay a message into
// the L2 gateway; withdrawals are claimed on L1 with a Merkle proof.
const (
	depositRelayGas  = uint64(170_000)
	withdrawClaimGas = uint64(280_000)
)

func normalizeBridgeDirection(input string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "deposit", "l1-to-l2":
		return "deposit", nil
	case "withdraw", "withdrawal", "l2-to-l1":
		return "withdraw", nil
	default:
		return "", clierr.New(clierr.CodeUsage, "direction must be deposit or withdraw")
	}
}

func (s *runtimeState) newBridgeCommand() *cobra.Command {
	root := &cobra.Command{Use: "bridge", Short: "Canonical bridge history and estimates"}

	listFactory := func(use, short, direction string) *cobra.Command {
		var address string
		var page, limit int
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				parsed, err := parseAddressFlag(address, "--address")
				if err != nil {
					return err
				}
				req := map[string]any{"address": parsed.Hex(), "direction": direction, "page": page, "limit": limit, "chain": s.chain.CAIP2}
				key := cacheKey(trimRootPath(cmd.CommandPath()), req)
				return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
					start := time.Now()
					messages, err := s.bridgeHist.Transactions(ctx, parsed.Hex(), page, limit)
					status := []model.ProviderStatus{{Name: s.bridgeHist.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
					if err != nil {
						return nil, status, nil, false, err
					}
					if direction != "" {
						filtered := make([]model.BridgeMessage, 0, len(messages))
						for _, message := range messages {
							if message.Direction == direction {
								filtered = append(filtered, message)
							}
						}
						messages = filtered
					}
					return messages, status, nil, false, nil
				})
			},
		}
		cmd.Flags().StringVar(&address, "address", "", "Account address")
		cmd.Flags().IntVar(&page, "page", 1, "Result page")
		cmd.Flags().IntVar(&limit, "limit", 25, "Results per page")
		_ = cmd.MarkFlagRequired("address")
		return cmd
	}

	root.AddCommand(listFactory("deposits", "L1-to-L2 deposits for an address", "deposit"))
	root.AddCommand(listFactory("withdrawals", "L2-to-L1 withdrawals for an address", "withdraw"))

	var claimAddress string
	var claimPage, claimLimit int
	claimableCmd := &cobra.Command{
		Use:   "claimable",
		Short: "Withdrawals ready to claim on L1",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAddressFlag(claimAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": parsed.Hex(), "page": claimPage, "limit": claimLimit, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.bridgeHist.ClaimableWithdrawals(ctx, parsed.Hex(), claimPage, claimLimit)
				status := []model.ProviderStatus{{Name: s.bridgeHist.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	claimableCmd.Flags().StringVar(&claimAddress, "address", "", "Account address")
	claimableCmd.Flags().IntVar(&claimPage, "page", 1, "Result page")
	claimableCmd.Flags().IntVar(&claimLimit, "limit", 25, "Results per page")
	_ = claimableCmd.MarkFlagRequired("address")
	root.AddCommand(claimableCmd)

	var feeDirection string
	feeCmd := &cobra.Command{
		Use:   "fee-estimate",
		Short: "Approximate bridge cost for a direction",
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := normalizeBridgeDirection(feeDirection)
			if err != nil {
				return err
			}
			req := map[string]any{"direction": direction, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				// Deposit relays execute on L2; withdrawal claims
				// execute on L1.
				if direction == "deposit" {
					client, err := s.l2(ctx)
					if err != nil {
						return nil, nil, nil, false, err
					}
					start := time.Now()
					gasPrice, err := client.SuggestGasPrice(ctx)
					status := rpcStatus(rpcProviderName, start, err)
					if err != nil {
						return nil, status, nil, false, err
					}
					executionFee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(depositRelayGas))
					data := model.BridgeFeeEstimate{
						Direction:       direction,
						GasLimit:        depositRelayGas,
						GasPriceWei:     gasPrice.String(),
						ExecutionFeeWei: executionFee.String(),
						TotalFeeWei:     executionFee.String(),
						TotalFeeDecimal: id.FormatUnits(executionFee.String(), 18),
					}
					return data, status, nil, false, nil
				}

				client, err := s.l1(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				gasPrice, err := client.SuggestGasPrice(ctx)
				status := rpcStatus(l1RPCProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				executionFee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(withdrawClaimGas))
				warnings := []string{}
				total := new(big.Int).Set(executionFee)
				l1DataFee := ""
				if l2Client, err := s.l2(ctx); err == nil {
					// Withdrawals also pay the L2 data fee for the
					// initiating transaction.
					payload, packErr := gatewayRouterABI.Pack("withdrawETH", common.Address{}, new(big.Int), new(big.Int))
					if packErr == nil {
						if fee, _, feeErr := evm.L1DataFee(ctx, l2Client, payload); feeErr == nil {
							total.Add(total, fee)
							l1DataFee = fee.String()
						}
					}
				}
				if l1DataFee == "" {
					warnings = append(warnings, "l2 data-fee component unavailable; estimate covers the L1 claim only")
				}
				data := model.BridgeFeeEstimate{
					Direction:       direction,
					GasLimit:        withdrawClaimGas,
					GasPriceWei:     gasPrice.String(),
					ExecutionFeeWei: executionFee.String(),
					L1DataFeeWei:    l1DataFee,
					TotalFeeWei:     total.String(),
					TotalFeeDecimal: id.FormatUnits(total.String(), 18),
				}
				return data, status, warnings, false, nil
			})
		},
	}
	feeCmd.Flags().StringVar(&feeDirection, "direction", "", "Bridge direction (deposit|withdraw)")
	_ = feeCmd.MarkFlagRequired("direction")
	root.AddCommand(feeCmd)

	var timeDirection string
	timeCmd := &cobra.Command{
		Use:   "time-estimate",
		Short: "Expected completion time for a direction",
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := normalizeBridgeDirection(timeDirection)
			if err != nil {
				return err
			}
			req := map[string]any{"direction": direction, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				if direction == "deposit" {
					return rollup.BridgeEstimate(direction), nil, nil, false, nil
				}
				start := time.Now()
				batches, err := s.rollup.Batches(ctx, 1, 10)
				status := []model.ProviderStatus{{Name: s.rollup.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				if err != nil {
					warnings := []string{"rollup api unavailable; using the default withdrawal window"}
					return rollup.BridgeEstimate(direction), status, warnings, false, nil
				}
				avg, samples := rollup.AvgFinalizeInterval(batches)
				return rollup.BridgeEstimateFromSamples(direction, avg, samples), status, nil, false, nil
			})
		},
	}
	timeCmd.Flags().StringVar(&timeDirection, "direction", "", "Bridge direction (deposit|withdraw)")
	_ = timeCmd.MarkFlagRequired("direction")
	root.AddCommand(timeCmd)

	return root
}
