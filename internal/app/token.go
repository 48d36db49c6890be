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
	"github.com/scrollkit/scroll-cli/internal/providers"
)

// maxUint256 threshold above which an allowance counts as unlimited.
var unlimitedAllowance = new(big.Int).Lsh(big.NewInt(1), 255)

func (s *runtimeState) resolveToken(token string) (common.Address, id.Asset, error) {
	asset, err := id.ParseAsset(token, s.chain)
	if err != nil {
		return common.Address{}, id.Asset{}, err
	}
	if asset.IsNative() {
		return common.Address{}, id.Asset{}, clierr.New(clierr.CodeUsage, "token commands need an ERC-20; use the account group for native ETH")
	}
	address, err := parseAddressFlag(asset.Address, "--token")
	if err != nil {
		return common.Address{}, id.Asset{}, err
	}
	return address, asset, nil
}

func (s *runtimeState) newTokenCommand() *cobra.Command {
	root := &cobra.Command{Use: "token", Short: "ERC-20 tokens"}

	var infoToken string
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Token metadata (name, symbol, decimals, total supply)",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _, err := s.resolveToken(infoToken)
			if err != nil {
				return err
			}
			req := map[string]any{"token": token.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				calls := make([]evm.Call3, 0, 4)
				for _, method := range []string{"name", "symbol", "decimals", "totalSupply"} {
					data, err := erc20ABI.Pack(method)
					if err != nil {
						return nil, nil, nil, false, clierr.Wrap(clierr.CodeInternal, "pack "+method, err)
					}
					calls = append(calls, evm.Call3{Target: token, AllowFailure: true, CallData: data})
				}
				results, err := evm.Aggregate3(ctx, client, calls)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.TokenInfo{Address: token.Hex(), ChainID: s.chain.CAIP2}
				if results[0].Success {
					if values, err := erc20ABI.Unpack("name", results[0].ReturnData); err == nil && len(values) == 1 {
						data.Name, _ = values[0].(string)
					}
				}
				if results[1].Success {
					if values, err := erc20ABI.Unpack("symbol", results[1].ReturnData); err == nil && len(values) == 1 {
						data.Symbol, _ = values[0].(string)
					}
				}
				if results[2].Success {
					if values, err := erc20ABI.Unpack("decimals", results[2].ReturnData); err == nil && len(values) == 1 {
						if d, ok := values[0].(uint8); ok {
							data.Decimals = int(d)
						}
					}
				}
				if results[3].Success {
					if values, err := erc20ABI.Unpack("totalSupply", results[3].ReturnData); err == nil && len(values) == 1 {
						if supply, ok := values[0].(*big.Int); ok {
							data.TotalSupply = supply.String()
						}
					}
				}
				if data.Symbol == "" && data.Name == "" {
					return nil, status, nil, false, clierr.New(clierr.CodeUnsupported, "address does not answer ERC-20 metadata calls")
				}
				return data, status, nil, false, nil
			})
		},
	}
	infoCmd.Flags().StringVar(&infoToken, "token", "", "Token symbol or address")
	_ = infoCmd.MarkFlagRequired("token")
	root.AddCommand(infoCmd)

	var balToken, balAddress string
	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "ERC-20 balance of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, asset, err := s.resolveToken(balToken)
			if err != nil {
				return err
			}
			address, err := parseAddressFlag(balAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"token": token.Hex(), "address": address.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
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
	balanceCmd.Flags().StringVar(&balToken, "token", "", "Token symbol or address")
	balanceCmd.Flags().StringVar(&balAddress, "address", "", "Holder address")
	_ = balanceCmd.MarkFlagRequired("token")
	_ = balanceCmd.MarkFlagRequired("address")
	root.AddCommand(balanceCmd)

	var allowToken, allowOwner, allowSpender string
	allowanceCmd := &cobra.Command{
		Use:   "allowance",
		Short: "ERC-20 allowance from owner to spender",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, asset, err := s.resolveToken(allowToken)
			if err != nil {
				return err
			}
			owner, err := parseAddressFlag(allowOwner, "--owner")
			if err != nil {
				return err
			}
			spender, err := parseAddressFlag(allowSpender, "--spender")
			if err != nil {
				return err
			}
			req := map[string]any{"token": token.Hex(), "owner": owner.Hex(), "spender": spender.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				outputs, _, err := evm.Call(ctx, client, erc20ABI, token, "allowance", []string{owner.Hex(), spender.Hex()})
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				allowance, _ := new(big.Int).SetString(outputs[0], 10)
				decimals := asset.Decimals
				if decimals == 0 {
					_, _, decimals = s.erc20Meta(ctx, client, token)
				}
				data := model.TokenAllowance{
					TokenAddress: token.Hex(),
					Owner:        owner.Hex(),
					Spender:      spender.Hex(),
					Allowance:    amountInfo(allowance, decimals),
					Unlimited:    allowance != nil && allowance.Cmp(unlimitedAllowance) >= 0,
				}
				return data, status, nil, false, nil
			})
		},
	}
	allowanceCmd.Flags().StringVar(&allowToken, "token", "", "Token symbol or address")
	allowanceCmd.Flags().StringVar(&allowOwner, "owner", "", "Owner address")
	allowanceCmd.Flags().StringVar(&allowSpender, "spender", "", "Spender address")
	_ = allowanceCmd.MarkFlagRequired("token")
	_ = allowanceCmd.MarkFlagRequired("owner")
	_ = allowanceCmd.MarkFlagRequired("spender")
	root.AddCommand(allowanceCmd)

	var transfersAddress, transfersToken string
	var transfersPage, transfersLimit int
	transfersCmd := &cobra.Command{
		Use:   "transfers",
		Short: "ERC-20 transfer history for an address (Scrollscan)",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(transfersAddress, "--address")
			if err != nil {
				return err
			}
			tokenFilter := ""
			if strings.TrimSpace(transfersToken) != "" {
				token, _, err := s.resolveToken(transfersToken)
				if err != nil {
					return err
				}
				tokenFilter = token.Hex()
			}
			req := map[string]any{"address": address.Hex(), "token": tokenFilter, "page": transfersPage, "limit": transfersLimit, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.explorer.TokenTransfers(ctx, providers.TokenTransferRequest{
					Address:      address.Hex(),
					TokenAddress: tokenFilter,
					Standard:     "erc20",
					Page:         transfersPage,
					Limit:        transfersLimit,
				})
				status := []model.ProviderStatus{{Name: s.explorer.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	transfersCmd.Flags().StringVar(&transfersAddress, "address", "", "Account address")
	transfersCmd.Flags().StringVar(&transfersToken, "token", "", "Restrict to one token (symbol or address)")
	transfersCmd.Flags().IntVar(&transfersPage, "page", 1, "Result page")
	transfersCmd.Flags().IntVar(&transfersLimit, "limit", 25, "Results per page")
	_ = transfersCmd.MarkFlagRequired("address")
	root.AddCommand(transfersCmd)

	var approveToken, approveSpender, approveAmount string
	var approveFlags writeFlags
	approveCmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve an ERC-20 spender",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTokenWrite(cmd, approveToken, approveSpender, approveAmount, "approve", approveFlags)
		},
	}
	approveCmd.Flags().StringVar(&approveToken, "token", "", "Token symbol or address")
	approveCmd.Flags().StringVar(&approveSpender, "spender", "", "Spender address")
	approveCmd.Flags().StringVar(&approveAmount, "amount", "", "Amount in token units (decimal), or 'max'")
	addWriteFlags(approveCmd, &approveFlags)
	_ = approveCmd.MarkFlagRequired("token")
	_ = approveCmd.MarkFlagRequired("spender")
	_ = approveCmd.MarkFlagRequired("amount")
	root.AddCommand(approveCmd)

	var transferToken, transferTo, transferAmount string
	var transferFlags writeFlags
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer ERC-20 tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTokenWrite(cmd, transferToken, transferTo, transferAmount, "transfer", transferFlags)
		},
	}
	transferCmd.Flags().StringVar(&transferToken, "token", "", "Token symbol or address")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "Recipient address")
	transferCmd.Flags().StringVar(&transferAmount, "amount", "", "Amount in token units (decimal)")
	addWriteFlags(transferCmd, &transferFlags)
	_ = transferCmd.MarkFlagRequired("token")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("amount")
	root.AddCommand(transferCmd)

	return root
}

func (s *runtimeState) runTokenWrite(cmd *cobra.Command, tokenArg, counterparty, amount, method string, flags writeFlags) error {
	token, asset, err := s.resolveToken(tokenArg)
	if err != nil {
		return err
	}
	other, err := parseAddressFlag(counterparty, "--to")
	if err != nil {
		return err
	}
	txSigner, err := flags.signer()
	if err != nil {
		return err
	}
	opts, err := flags.options(nil)
	if err != nil {
		return err
	}

	ctx, cancel := s.writeContext(flags)
	defer cancel()
	client, err := s.l2(ctx)
	if err != nil {
		return err
	}

	decimals := asset.Decimals
	if decimals == 0 {
		_, _, decimals = s.erc20Meta(ctx, client, token)
	}
	var value *big.Int
	if method == "approve" && strings.EqualFold(strings.TrimSpace(amount), "max") {
		value = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	} else {
		base, err := id.ParseUnits(amount, decimals)
		if err != nil {
			return err
		}
		value, err = parseBig(base, "--amount")
		if err != nil {
			return err
		}
	}

	data, err := erc20ABI.Pack(method, other, value)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "pack "+method, err)
	}
	result, err := evm.Write(ctx, client, txSigner, token, data, opts)
	if err != nil {
		return err
	}
	out := s.writeResultModel(txSigner.Address(), token, method, result)
	return s.emitSuccess(trimRootPath(cmd.CommandPath()), out, nil, cacheMetaBypass(), nil, false)
}
