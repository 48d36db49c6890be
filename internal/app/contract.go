package app

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/model"
)

// resolveContractABI loads an ABI from --abi, --abi-file, or the explorer
// when neither flag is set.
func (s *runtimeState) resolveContractABI(ctx context.Context, raw, file, address string) (abi.ABI, error) {
	if strings.TrimSpace(raw) != "" {
		return evm.ParseABI(raw)
	}
	if strings.TrimSpace(file) != "" {
		buf, err := os.ReadFile(file)
		if err != nil {
			return abi.ABI{}, clierr.Wrap(clierr.CodeUsage, "read --abi-file", err)
		}
		return evm.ParseABI(string(buf))
	}
	fetched, err := s.explorer.ContractABI(ctx, address)
	if err != nil {
		return abi.ABI{}, err
	}
	return evm.ParseABI(fetched)
}

func (s *runtimeState) newContractCommand() *cobra.Command {
	root := &cobra.Command{Use: "contract", Short: "Arbitrary contract calls"}

	var readAddress, readABI, readABIFile, readMethod string
	var readArgs []string
	readCmd := &cobra.Command{
		Use:   "read",
		Short: "Call a view method",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(readAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": address.Hex(), "method": readMethod, "args": readArgs, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				parsed, err := s.resolveContractABI(ctx, readABI, readABIFile, address.Hex())
				if err != nil {
					return nil, nil, nil, false, err
				}
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				outputs, raw, err := evm.Call(ctx, client, parsed, address, readMethod, readArgs)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := model.ContractCallResult{
					Address:   address.Hex(),
					ChainID:   s.chain.CAIP2,
					Method:    readMethod,
					Outputs:   outputs,
					RawResult: raw,
				}
				return data, status, nil, false, nil
			})
		},
	}
	readCmd.Flags().StringVar(&readAddress, "address", "", "Contract address")
	readCmd.Flags().StringVar(&readABI, "abi", "", "Inline ABI JSON")
	readCmd.Flags().StringVar(&readABIFile, "abi-file", "", "Path to ABI JSON file")
	readCmd.Flags().StringVar(&readMethod, "method", "", "Method name")
	readCmd.Flags().StringArrayVar(&readArgs, "arg", nil, "Method argument (repeatable, in order)")
	_ = readCmd.MarkFlagRequired("address")
	_ = readCmd.MarkFlagRequired("method")
	root.AddCommand(readCmd)

	var writeAddress, writeABI, writeABIFile, writeMethod, writeValue string
	var writeArgs []string
	var wFlags writeFlags
	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Sign and send a state-changing call",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(writeAddress, "--address")
			if err != nil {
				return err
			}
			txSigner, err := wFlags.signer()
			if err != nil {
				return err
			}
			var valueWei *big.Int
			if strings.TrimSpace(writeValue) != "" {
				valueWei, err = parseBig(writeValue, "--value-wei")
				if err != nil {
					return err
				}
			}
			opts, err := wFlags.options(valueWei)
			if err != nil {
				return err
			}

			ctx, cancel := s.writeContext(wFlags)
			defer cancel()
			parsed, err := s.resolveContractABI(ctx, writeABI, writeABIFile, address.Hex())
			if err != nil {
				return err
			}
			data, err := evm.PackCall(parsed, writeMethod, writeArgs)
			if err != nil {
				return err
			}
			client, err := s.l2(ctx)
			if err != nil {
				return err
			}
			result, err := evm.Write(ctx, client, txSigner, address, data, opts)
			if err != nil {
				return err
			}
			out := s.writeResultModel(txSigner.Address(), address, writeMethod, result)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), out, nil, cacheMetaBypass(), nil, false)
		},
	}
	writeCmd.Flags().StringVar(&writeAddress, "address", "", "Contract address")
	writeCmd.Flags().StringVar(&writeABI, "abi", "", "Inline ABI JSON")
	writeCmd.Flags().StringVar(&writeABIFile, "abi-file", "", "Path to ABI JSON file")
	writeCmd.Flags().StringVar(&writeMethod, "method", "", "Method name")
	writeCmd.Flags().StringArrayVar(&writeArgs, "arg", nil, "Method argument (repeatable, in order)")
	writeCmd.Flags().StringVar(&writeValue, "value-wei", "", "ETH value to attach in wei")
	addWriteFlags(writeCmd, &wFlags)
	_ = writeCmd.MarkFlagRequired("address")
	_ = writeCmd.MarkFlagRequired("method")
	root.AddCommand(writeCmd)

	var abiAddress string
	abiCmd := &cobra.Command{
		Use:   "abi",
		Short: "Verified contract ABI (Scrollscan)",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(abiAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": address.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				raw, err := s.explorer.ContractABI(ctx, address.Hex())
				status := []model.ProviderStatus{{Name: s.explorer.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				if err != nil {
					return nil, status, nil, false, err
				}
				var parsed any
				if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
					return nil, status, nil, false, clierr.Wrap(clierr.CodeUnavailable, "explorer returned malformed abi", err)
				}
				data := map[string]any{"address": address.Hex(), "chain_id": s.chain.CAIP2, "abi": parsed}
				return data, status, nil, false, nil
			})
		},
	}
	abiCmd.Flags().StringVar(&abiAddress, "address", "", "Contract address")
	_ = abiCmd.MarkFlagRequired("address")
	root.AddCommand(abiCmd)

	var sourceAddress string
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Verified source metadata (Scrollscan)",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddressFlag(sourceAddress, "--address")
			if err != nil {
				return err
			}
			req := map[string]any{"address": address.Hex(), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.explorer.ContractSource(ctx, address.Hex())
				status := []model.ProviderStatus{{Name: s.explorer.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	sourceCmd.Flags().StringVar(&sourceAddress, "address", "", "Contract address")
	_ = sourceCmd.MarkFlagRequired("address")
	root.AddCommand(sourceCmd)

	return root
}
