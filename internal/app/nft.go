package app

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/providers"
)

func normalizeNFTStandard(input string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "erc721", "721":
		return "erc721", nil
	case "erc1155", "1155":
		return "erc1155", nil
	default:
		return "", clierr.New(clierr.CodeUsage, "standard must be erc721 or erc1155")
	}
}

func (s *runtimeState) newNFTCommand() *cobra.Command {
	root := &cobra.Command{Use: "nft", Short: "ERC-721 and ERC-1155 tokens"}

	var ownerContract, ownerTokenID string
	ownerCmd := &cobra.Command{
		Use:   "owner-of",
		Short: "Owner of an ERC-721 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := parseAddressFlag(ownerContract, "--contract")
			if err != nil {
				return err
			}
			tokenID, err := parseBig(ownerTokenID, "--token-id")
			if err != nil {
				return err
			}
			req := map[string]any{"contract": contract.Hex(), "token_id": tokenID.String(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				outputs, _, err := evm.Call(ctx, client, erc721ABI, contract, "ownerOf", []string{tokenID.String()})
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.NFTOwnership{
					ContractAddress: contract.Hex(),
					TokenID:         tokenID.String(),
					Owner:           outputs[0],
					Standard:        "erc721",
				}
				if uriOut, _, err := evm.Call(ctx, client, erc721ABI, contract, "tokenURI", []string{tokenID.String()}); err == nil && len(uriOut) == 1 {
					data.TokenURI = uriOut[0]
				}
				return data, status, nil, false, nil
			})
		},
	}
	ownerCmd.Flags().StringVar(&ownerContract, "contract", "", "NFT contract address")
	ownerCmd.Flags().StringVar(&ownerTokenID, "token-id", "", "Token id")
	_ = ownerCmd.MarkFlagRequired("contract")
	_ = ownerCmd.MarkFlagRequired("token-id")
	root.AddCommand(ownerCmd)

	var metaContract, metaTokenID, metaStandard string
	metadataCmd := &cobra.Command{
		Use:   "metadata",
		Short: "Token URI for an ERC-721 or ERC-1155 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := parseAddressFlag(metaContract, "--contract")
			if err != nil {
				return err
			}
			tokenID, err := parseBig(metaTokenID, "--token-id")
			if err != nil {
				return err
			}
			standard, err := normalizeNFTStandard(metaStandard)
			if err != nil {
				return err
			}
			req := map[string]any{"contract": contract.Hex(), "token_id": tokenID.String(), "standard": standard, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				var outputs []string
				if standard == "erc1155" {
					outputs, _, err = evm.Call(ctx, client, erc1155ABI, contract, "uri", []string{tokenID.String()})
				} else {
					outputs, _, err = evm.Call(ctx, client, erc721ABI, contract, "tokenURI", []string{tokenID.String()})
				}
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.NFTOwnership{
					ContractAddress: contract.Hex(),
					TokenID:         tokenID.String(),
					Standard:        standard,
					TokenURI:        outputs[0],
				}
				return data, status, nil, false, nil
			})
		},
	}
	metadataCmd.Flags().StringVar(&metaContract, "contract", "", "NFT contract address")
	metadataCmd.Flags().StringVar(&metaTokenID, "token-id", "", "Token id")
	metadataCmd.Flags().StringVar(&metaStandard, "standard", "erc721", "Token standard (erc721|erc1155)")
	_ = metadataCmd.MarkFlagRequired("contract")
	_ = metadataCmd.MarkFlagRequired("token-id")
	root.AddCommand(metadataCmd)

	var balContract, balAddress, balTokenID, balStandard string
	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "NFT balance of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := parseAddressFlag(balContract, "--contract")
			if err != nil {
				return err
			}
			address, err := parseAddressFlag(balAddress, "--address")
			if err != nil {
				return err
			}
			standard, err := normalizeNFTStandard(balStandard)
			if err != nil {
				return err
			}
			if standard == "erc1155" && strings.TrimSpace(balTokenID) == "" {
				return clierr.New(clierr.CodeUsage, "erc1155 balance requires --token-id")
			}
			req := map[string]any{"contract": contract.Hex(), "address": address.Hex(), "token_id": balTokenID, "standard": standard, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				var outputs []string
				if standard == "erc1155" {
					tokenID, err := parseBig(balTokenID, "--token-id")
					if err != nil {
						return nil, nil, nil, false, err
					}
					outputs, _, err = evm.Call(ctx, client, erc1155ABI, contract, "balanceOf", []string{address.Hex(), tokenID.String()})
					status := rpcStatus(rpcProviderName, start, err)
					if err != nil {
						return nil, status, nil, false, err
					}
					balance, _ := new(big.Int).SetString(outputs[0], 10)
					data := model.TokenBalance{
						Address:      address.Hex(),
						ChainID:      s.chain.CAIP2,
						TokenAddress: contract.Hex(),
						Balance:      amountInfo(balance, 0),
						FetchedAt:    s.runner.now().UTC().Format(time.RFC3339),
					}
					return data, status, nil, false, nil
				}
				outputs, _, err = evm.Call(ctx, client, erc721ABI, contract, "balanceOf", []string{address.Hex()})
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				balance, _ := new(big.Int).SetString(outputs[0], 10)
				data := model.TokenBalance{
					Address:      address.Hex(),
					ChainID:      s.chain.CAIP2,
					TokenAddress: contract.Hex(),
					Balance:      amountInfo(balance, 0),
					FetchedAt:    s.runner.now().UTC().Format(time.RFC3339),
				}
				return data, status, nil, false, nil
			})
		},
	}
	balanceCmd.Flags().StringVar(&balContract, "contract", "", "NFT contract address")
	balanceCmd.Flags().StringVar(&balAddress, "address", "", "Holder address")
	balanceCmd.Flags().StringVar(&balTokenID, "token-id", "", "Token id (erc1155)")
	balanceCmd.Flags().StringVar(&balStandard, "standard", "erc721", "Token standard (erc721|erc1155)")
	_ = balanceCmd.MarkFlagRequired("contract")
	_ = balanceCmd.MarkFlagRequired("address")
	root.AddCommand(balanceCmd)

	var transfersAddress, transfersContract, transfersStandard string
	var transfersPage, transfersLimit int
	transfersCmd := &cobra.Command{
		Use:   "transfers",
		Short: "NFT transfer history for an address (Scrollscan)",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(transfersAddress, "--address")
			if err != nil {
				return err
			}
			standard, err := normalizeNFTStandard(transfersStandard)
			if err != nil {
				return err
			}
			contractFilter := ""
			if strings.TrimSpace(transfersContract) != "" {
				contract, err := parseAddressFlag(transfersContract, "--contract")
				if err != nil {
					return err
				}
				contractFilter = contract.Hex()
			}
			req := map[string]any{"address": address.Hex(), "contract": contractFilter, "standard": standard, "page": transfersPage, "limit": transfersLimit, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.explorer.TokenTransfers(ctx, providers.TokenTransferRequest{
					Address:      address.Hex(),
					TokenAddress: contractFilter,
					Standard:     standard,
					Page:         transfersPage,
					Limit:        transfersLimit,
				})
				status := []model.ProviderStatus{{Name: s.explorer.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	transfersCmd.Flags().StringVar(&transfersAddress, "address", "", "Account address")
	transfersCmd.Flags().StringVar(&transfersContract, "contract", "", "Restrict to one collection")
	transfersCmd.Flags().StringVar(&transfersStandard, "standard", "erc721", "Token standard (erc721|erc1155)")
	transfersCmd.Flags().IntVar(&transfersPage, "page", 1, "Result page")
	transfersCmd.Flags().IntVar(&transfersLimit, "limit", 25, "Results per page")
	_ = transfersCmd.MarkFlagRequired("address")
	root.AddCommand(transfersCmd)

	var sendContract, sendFrom, sendTo, sendTokenID, sendAmount, sendStandard string
	var sendFlags writeFlags
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer an NFT",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := parseAddressFlag(sendContract, "--contract")
			if err != nil {
				return err
			}
			to, err := parseAddressFlag(sendTo, "--to")
			if err != nil {
				return err
			}
			tokenID, err := parseBig(sendTokenID, "--token-id")
			if err != nil {
				return err
			}
			standard, err := normalizeNFTStandard(sendStandard)
			if err != nil {
				return err
			}
			txSigner, err := sendFlags.signer()
			if err != nil {
				return err
			}
			from := txSigner.Address()
			if strings.TrimSpace(sendFrom) != "" {
				from, err = parseAddressFlag(sendFrom, "--from")
				if err != nil {
					return err
				}
			}
			opts, err := sendFlags.options(nil)
			if err != nil {
				return err
			}

			ctx, cancel := s.writeContext(sendFlags)
			defer cancel()
			client, err := s.l2(ctx)
			if err != nil {
				return err
			}

			var data []byte
			if standard == "erc1155" {
				amount := big.NewInt(1)
				if strings.TrimSpace(sendAmount) != "" {
					amount, err = parseBig(sendAmount, "--amount")
					if err != nil {
						return err
					}
				}
				data, err = erc1155ABI.Pack("safeTransferFrom", from, to, tokenID, amount, []byte{})
			} else {
				data, err = erc721ABI.Pack("safeTransferFrom", from, to, tokenID)
			}
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "pack safeTransferFrom", err)
			}
			result, err := evm.Write(ctx, client, txSigner, contract, data, opts)
			if err != nil {
				return err
			}
			out := s.writeResultModel(txSigner.Address(), contract, "safeTransferFrom", result)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), out, nil, cacheMetaBypass(), nil, false)
		},
	}
	transferCmd.Flags().StringVar(&sendContract, "contract", "", "NFT contract address")
	transferCmd.Flags().StringVar(&sendFrom, "from", "", "Current owner (defaults to signer)")
	transferCmd.Flags().StringVar(&sendTo, "to", "", "Recipient address")
	transferCmd.Flags().StringVar(&sendTokenID, "token-id", "", "Token id")
	transferCmd.Flags().StringVar(&sendAmount, "amount", "", "Amount for erc1155 transfers (default 1)")
	transferCmd.Flags().StringVar(&sendStandard, "standard", "erc721", "Token standard (erc721|erc1155)")
	addWriteFlags(transferCmd, &sendFlags)
	_ = transferCmd.MarkFlagRequired("contract")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("token-id")
	root.AddCommand(transferCmd)

	return root
}
