package app

import (
	"context"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/providers"
)

func (s *runtimeState) newAccountCommand() *cobra.Command {
	root := &cobra.Command{Use: "account", Short: "Account state"}

	var balanceAddress string
	var balanceToken string
	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Native ETH balance, or a token balance with --token",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(balanceAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": address.Hex(), "token": balanceToken, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				if balanceToken == "" {
					balance, err := client.BalanceAt(ctx, address, nil)
					status := rpcStatus(rpcProviderName, start, err)
					if err != nil {
						return nil, status, nil, false, err
					}
					head, _ := client.BlockNumber(ctx)
					data := model.NativeBalance{
						Address:     address.Hex(),
						ChainID:     s.chain.CAIP2,
						Symbol:      "ETH",
						Balance:     amountInfo(balance, 18),
						BlockNumber: head,
						FetchedAt:   s.runner.now().UTC().Format(time.RFC3339),
					}
					return data, status, nil, false, nil
				}

				asset, err := id.ParseAsset(balanceToken, s.chain)
				if err != nil {
					return nil, nil, nil, false, err
				}
				if asset.IsNative() {
					return nil, nil, nil, false, clierr.New(clierr.CodeUsage, "omit --token for the native ETH balance")
				}
				token, err := parseAddressFlag(asset.Address, "--token")
				if err != nil {
					return nil, nil, nil, false, err
				}
				outputs, _, err := evm.Call(ctx, client, erc20ABI, token, "balanceOf", []string{address.Hex()})
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				balance, _ := new(big.Int).SetString(outputs[0], 10)
				symbol, name, decimals := asset.Symbol, "", asset.Decimals
				if symbol == "" || decimals == 0 {
					symbol, name, decimals = s.erc20Meta(ctx, client, token)
				}
				data := model.TokenBalance{
					Address:      address.Hex(),
					ChainID:      s.chain.CAIP2,
					TokenAddress: token.Hex(),
					Symbol:       symbol,
					Name:         name,
					Balance:      amountInfo(balance, decimals),
					FetchedAt:    s.runner.now().UTC().Format(time.RFC3339),
				}
				return data, status, nil, false, nil
			})
		},
	}
	balanceCmd.Flags().StringVar(&balanceAddress, "address", "", "Account address")
	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "Token symbol or address (empty = native ETH)")
	_ = balanceCmd.MarkFlagRequired("address")
	root.AddCommand(balanceCmd)

	var nonceAddress string
	nonceCmd := &cobra.Command{
		Use:   "nonce",
		Short: "Latest and pending nonce for an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(nonceAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": address.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				latest, err := client.NonceAt(ctx, address, nil)
				if err != nil {
					return nil, rpcStatus(rpcProviderName, start, err), nil, false, err
				}
				pending, err := client.PendingNonceAt(ctx, address)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.NonceInfo{
					Address: address.Hex(),
					ChainID: s.chain.CAIP2,
					Latest:  latest,
					Pending: pending,
				}
				if pending > latest {
					data.PendingDelta = pending - latest
				}
				return data, status, nil, false, nil
			})
		},
	}
	nonceCmd.Flags().StringVar(&nonceAddress, "address", "", "Account address")
	_ = nonceCmd.MarkFlagRequired("address")
	root.AddCommand(nonceCmd)

	var kindAddress string
	isContractCmd := &cobra.Command{
		Use:   "is-contract",
		Short: "Report whether an address holds deployed code",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(kindAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": address.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				code, err := client.CodeAt(ctx, address, nil)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.AddressKind{
					Address:    address.Hex(),
					ChainID:    s.chain.CAIP2,
					IsContract: len(code) > 0,
					CodeSize:   len(code),
				}
				return data, status, nil, false, nil
			})
		},
	}
	isContractCmd.Flags().StringVar(&kindAddress, "address", "", "Address to classify")
	_ = isContractCmd.MarkFlagRequired("address")
	root.AddCommand(isContractCmd)

	var historyAddress string
	var historyStart, historyEnd uint64
	var historyPage, historyLimit int
	var historyDesc bool
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Transaction history for an address (Scrollscan)",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(historyAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{
				"address": address.Hex(),
				"start":   historyStart,
				"end":     historyEnd,
				"page":    historyPage,
				"limit":   historyLimit,
				"desc":    historyDesc,
				"chain":   s.chain.CAIP2,
			}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.explorer.AccountTransactions(ctx, providers.AccountHistoryRequest{
					Address:    address.Hex(),
					StartBlock: historyStart,
					EndBlock:   historyEnd,
					Page:       historyPage,
					Limit:      historyLimit,
					Descending: historyDesc,
				})
				status := []model.ProviderStatus{{Name: s.explorer.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	historyCmd.Flags().StringVar(&historyAddress, "address", "", "Account address")
	historyCmd.Flags().Uint64Var(&historyStart, "start-block", 0, "Start block")
	historyCmd.Flags().Uint64Var(&historyEnd, "end-block", 0, "End block (0 = latest)")
	historyCmd.Flags().IntVar(&historyPage, "page", 1, "Result page")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 25, "Results per page")
	historyCmd.Flags().BoolVar(&historyDesc, "desc", true, "Newest first")
	_ = historyCmd.MarkFlagRequired("address")
	root.AddCommand(historyCmd)

	return root
}
