package app

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

var (
	v2FactoryABI = mustABI(registry.UniswapV2FactoryABI)
	v2PairABI    = mustABI(registry.UniswapV2PairABI)
)

func (s *runtimeState) newDefiCommand() *cobra.Command {
	root := &cobra.Command{Use: "defi", Short: "DeFi deployments on Scroll"}

	dexesCmd := &cobra.Command{
		Use:   "dexes",
		Short: "Known DEX routers and factories",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				routers := registry.DEXRouters(s.chain.EVMChainID)
				entries := make([]model.DEXInfo, 0, len(routers))
				for _, r := range routers {
					entries = append(entries, model.DEXInfo{Name: r.Name, Router: r.Router, Factory: r.Factory, Kind: r.Kind})
				}
				warnings := []string{}
				if len(entries) == 0 {
					warnings = append(warnings, "no known dex deployments on "+s.chain.Slug)
				}
				return entries, nil, warnings, false, nil
			})
		},
	}
	root.AddCommand(dexesCmd)

	var (
		poolDEX    string
		poolToken0 string
		poolToken1 string
	)
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Look up a v2-style pair and its reserves",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"dex": poolDEX, "token0": strings.ToLower(poolToken0), "token1": strings.ToLower(poolToken1), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				dex, err := s.findDEX(poolDEX)
				if err != nil {
					return nil, nil, nil, false, err
				}
				token0, err := parseAddressFlag(poolToken0, "--token0")
				if err != nil {
					return nil, nil, nil, false, err
				}
				token1, err := parseAddressFlag(poolToken1, "--token1")
				if err != nil {
					return nil, nil, nil, false, err
				}
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}

				start := time.Now()
				pool, err := s.readPool(ctx, client, dex, token0, token1)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				return pool, status, nil, false, nil
			})
		},
	}
	poolCmd.Flags().StringVar(&poolDEX, "dex", "", "DEX name from `defi dexes`")
	poolCmd.Flags().StringVar(&poolToken0, "token0", "", "First token address")
	poolCmd.Flags().StringVar(&poolToken1, "token1", "", "Second token address")
	_ = poolCmd.MarkFlagRequired("dex")
	_ = poolCmd.MarkFlagRequired("token0")
	_ = poolCmd.MarkFlagRequired("token1")
	root.AddCommand(poolCmd)

	lendingCmd := &cobra.Command{
		Use:   "lending",
		Short: "Known lending markets",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				markets := registry.LendingMarkets(s.chain.EVMChainID)
				entries := make([]model.LendingMarketInfo, 0, len(markets))

				client, clientErr := s.l2(ctx)
				var statuses []model.ProviderStatus
				warnings := []string{}
				partial := false

				start := time.Now()
				var probeErr error
				for _, m := range markets {
					entry := model.LendingMarketInfo{Name: m.Name, Pool: m.Pool, Kind: m.Kind}
					if clientErr == nil {
						code, err := client.CodeAt(ctx, common.HexToAddress(m.Pool), nil)
						if err != nil {
							if probeErr == nil {
								probeErr = err
							}
							warnings = append(warnings, "deployment check unavailable for "+m.Name)
							partial = true
						} else {
							entry.Deployed = len(code) > 0
						}
					}
					entries = append(entries, entry)
				}
				if clientErr == nil && len(markets) > 0 {
					// One status entry covers all deployment probes; they
					// share the same RPC provider.
					statuses = rpcStatus(rpcProviderName, start, probeErr)
				}
				if clientErr != nil {
					warnings = append(warnings, "l2 rpc unavailable; deployment checks skipped")
					partial = true
				}
				if len(entries) == 0 {
					warnings = append(warnings, "no known lending markets on "+s.chain.Slug)
				}
				return entries, statuses, warnings, partial, nil
			})
		},
	}
	root.AddCommand(lendingCmd)

	return root
}

func (s *runtimeState) findDEX(name string) (registry.DEXRouter, error) {
	for _, r := range registry.DEXRouters(s.chain.EVMChainID) {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return registry.DEXRouter{}, clierr.New(clierr.CodeUsage, "unknown dex "+name+" on "+s.chain.Slug)
}

func (s *runtimeState) readPool(ctx context.Context, client *ethclient.Client, dex registry.DEXRouter, token0, token1 common.Address) (model.PoolInfo, error) {
	factory := common.HexToAddress(dex.Factory)
	values, _, err := evm.Call(ctx, client, v2FactoryABI, factory, "getPair", []string{token0.Hex(), token1.Hex()})
	if err != nil {
		return model.PoolInfo{}, err
	}
	if len(values) == 0 || common.HexToAddress(values[0]) == (common.Address{}) {
		return model.PoolInfo{}, clierr.New(clierr.CodeUnsupported, "no pair for the token addresses on "+dex.Name)
	}
	pair := common.HexToAddress(values[0])

	token0Data, _ := v2PairABI.Pack("token0")
	token1Data, _ := v2PairABI.Pack("token1")
	reservesData, _ := v2PairABI.Pack("getReserves")
	results, err := evm.Aggregate3(ctx, client, []evm.Call3{
		{Target: pair, CallData: token0Data},
		{Target: pair, CallData: token1Data},
		{Target: pair, CallData: reservesData},
	})
	if err != nil {
		return model.PoolInfo{}, err
	}

	pool := model.PoolInfo{DEX: dex.Name, Pair: strings.ToLower(pair.Hex())}
	if addrs, err := v2PairABI.Unpack("token0", results[0].ReturnData); err == nil && len(addrs) == 1 {
		if a, ok := addrs[0].(common.Address); ok {
			pool.Token0 = strings.ToLower(a.Hex())
		}
	}
	if addrs, err := v2PairABI.Unpack("token1", results[1].ReturnData); err == nil && len(addrs) == 1 {
		if a, ok := addrs[0].(common.Address); ok {
			pool.Token1 = strings.ToLower(a.Hex())
		}
	}
	reserves, err := v2PairABI.Unpack("getReserves", results[2].ReturnData)
	if err != nil || len(reserves) < 3 {
		return model.PoolInfo{}, clierr.New(clierr.CodeUnavailable, "pair reserves could not be decoded")
	}
	formatted := evm.FormatValues(reserves[:2])
	if len(formatted) == 2 {
		pool.Reserve0 = formatted[0]
		pool.Reserve1 = formatted[1]
	}
	pool.UpdatedAt = s.runner.now().Unix()
	return pool, nil
}
