package app

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
)

func (s *runtimeState) newGasCommand() *cobra.Command {
	root := &cobra.Command{Use: "gas", Short: "Gas prices and fee composition"}

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Current L2 gas price, tip, and L1 data-fee parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
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
				data := model.GasPriceInfo{
					ChainID:      s.chain.CAIP2,
					GasPriceWei:  gasPrice.String(),
					GasPriceGwei: weiToGwei(gasPrice),
					FetchedAt:    s.runner.now().UTC().Format(time.RFC3339),
				}
				warnings := []string{}
				if tip, err := client.SuggestGasTipCap(ctx); err == nil {
					data.MaxPriorityWei = tip.String()
				}
				if header, err := client.HeaderByNumber(ctx, nil); err == nil && header.BaseFee != nil {
					data.BaseFeeWei = header.BaseFee.String()
				}
				params, err := evm.ReadOracleParams(ctx, client)
				if err != nil {
					warnings = append(warnings, "l1 gas oracle unavailable: "+err.Error())
					return data, status, warnings, false, nil
				}
				data.L1BaseFeeWei = params.L1BaseFee.String()
				data.L1OverheadUnits = params.Overhead.String()
				data.L1Scalar = params.Scalar.String()
				return data, status, warnings, false, nil
			})
		},
	}
	root.AddCommand(priceCmd)

	oracleCmd := &cobra.Command{
		Use:   "oracle",
		Short: "L1GasPriceOracle parameters (l1BaseFee, overhead, scalar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				params, err := evm.ReadOracleParams(ctx, client)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.GasPriceInfo{
					ChainID:         s.chain.CAIP2,
					L1BaseFeeWei:    params.L1BaseFee.String(),
					L1OverheadUnits: params.Overhead.String(),
					L1Scalar:        params.Scalar.String(),
					FetchedAt:       s.runner.now().UTC().Format(time.RFC3339),
				}
				return data, status, nil, false, nil
			})
		},
	}
	root.AddCommand(oracleCmd)

	var estTo, estData, estValue, estFrom string
	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Total fee estimate: L2 execution fee plus L1 data fee",
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseAddressFlag(estTo, "--to")
			if err != nil {
				return err
			}
			payload, err := evm.DecodeHex(estData)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "parse --data", err)
			}
			var value *big.Int
			if strings.TrimSpace(estValue) != "" {
				value, err = parseBig(estValue, "--value-wei")
				if err != nil {
					return err
				}
			}
			req := map[string]any{"to": to.Hex(), "data": estData, "value": estValue, "from": estFrom, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				msg := ethereum.CallMsg{To: &to, Data: payload, Value: value}
				if strings.TrimSpace(estFrom) != "" {
					from, err := parseAddressFlag(estFrom, "--from")
					if err != nil {
						return nil, nil, nil, false, err
					}
					msg.From = from
				}
				start := time.Now()
				gasLimit, err := client.EstimateGas(ctx, msg)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, clierr.Wrap(clierr.CodeUnavailable, "eth_estimateGas failed", err)
				}
				gasPrice, err := client.SuggestGasPrice(ctx)
				if err != nil {
					return nil, status, nil, false, err
				}
				executionFee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))

				warnings := []string{}
				l1Fee, source, err := evm.L1DataFee(ctx, client, payload)
				if err != nil {
					warnings = append(warnings, "l1 data fee unavailable; total covers execution only: "+err.Error())
					l1Fee = new(big.Int)
					source = ""
				}
				total := new(big.Int).Add(executionFee, l1Fee)
				data := model.FeeEstimate{
					ChainID:           s.chain.CAIP2,
					GasLimit:          gasLimit,
					ExecutionFeeWei:   executionFee.String(),
					L1DataFeeWei:      l1Fee.String(),
					TotalFeeWei:       total.String(),
					TotalFeeDecimal:   id.FormatUnits(total.String(), 18),
					L1FeeSource:       source,
					CalldataSizeBytes: len(payload),
					GasPriceWei:       gasPrice.String(),
				}
				return data, status, warnings, false, nil
			})
		},
	}
	estimateCmd.Flags().StringVar(&estTo, "to", "", "Call target address")
	estimateCmd.Flags().StringVar(&estData, "data", "", "Calldata hex (0x-prefixed)")
	estimateCmd.Flags().StringVar(&estValue, "value-wei", "", "ETH value in wei")
	estimateCmd.Flags().StringVar(&estFrom, "from", "", "Sender address used for estimation")
	_ = estimateCmd.MarkFlagRequired("to")
	root.AddCommand(estimateCmd)

	return root
}

func weiToGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return id.FormatUnits(wei.String(), 9)
}
