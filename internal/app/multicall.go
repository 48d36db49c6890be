package app

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

type multicallSpec struct {
	target string
	method string
	args   []string
}

// parseCallSpec splits one --call value of the form
// address|method or address|method|arg1,arg2.
func parseCallSpec(raw string) (multicallSpec, error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) < 2 {
		return multicallSpec{}, clierr.New(clierr.CodeUsage, "--call expects address|method[|args]")
	}
	spec := multicallSpec{target: strings.TrimSpace(parts[0]), method: strings.TrimSpace(parts[1])}
	if spec.method == "" {
		return multicallSpec{}, clierr.New(clierr.CodeUsage, "--call is missing a method name")
	}
	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		for _, arg := range strings.Split(parts[2], ",") {
			spec.args = append(spec.args, strings.TrimSpace(arg))
		}
	}
	return spec, nil
}

func (s *runtimeState) newMulticallCommand() *cobra.Command {
	root := &cobra.Command{Use: "multicall", Short: "Batched reads through Multicall3"}

	var (
		readCalls   []string
		readABI     string
		readABIFile string
	)
	readCmd := &cobra.Command{
		Use:   "read",
		Short: "Run several view calls in one request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(readCalls) == 0 {
				return clierr.New(clierr.CodeUsage, "provide at least one --call")
			}
			specs := make([]multicallSpec, 0, len(readCalls))
			for _, raw := range readCalls {
				spec, err := parseCallSpec(raw)
				if err != nil {
					return err
				}
				if _, err := parseAddressFlag(spec.target, "--call"); err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			req := map[string]any{"calls": readCalls, "abi": readABI, "abi_file": readABIFile, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				parsed, err := s.resolveContractABI(ctx, readABI, readABIFile, specs[0].target)
				if err != nil {
					return nil, nil, nil, false, err
				}

				calls := make([]evm.Call3, 0, len(specs))
				for _, spec := range specs {
					data, err := evm.PackCall(parsed, spec.method, spec.args)
					if err != nil {
						return nil, nil, nil, false, err
					}
					target, err := parseAddressFlag(spec.target, "--call")
					if err != nil {
						return nil, nil, nil, false, err
					}
					calls = append(calls, evm.Call3{Target: target, AllowFailure: true, CallData: data})
				}

				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				results, err := evm.Aggregate3(ctx, client, calls)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}

				out := make([]model.MulticallResult, 0, len(results))
				warnings := []string{}
				partial := false
				for i, res := range results {
					entry := model.MulticallResult{
						Target:  strings.ToLower(specs[i].target),
						Method:  specs[i].method,
						Success: res.Success,
					}
					if !res.Success {
						warnings = append(warnings, specs[i].method+" on "+entry.Target+" reverted")
						partial = true
					} else {
						values, err := parsed.Unpack(specs[i].method, res.ReturnData)
						if err != nil {
							entry.RawResult = "0x" + common.Bytes2Hex(res.ReturnData)
						} else {
							entry.Outputs = evm.FormatValues(values)
						}
					}
					out = append(out, entry)
				}
				return out, status, warnings, partial, nil
			})
		},
	}
	readCmd.Flags().StringArrayVar(&readCalls, "call", nil, "Call spec address|method[|args], repeatable")
	readCmd.Flags().StringVar(&readABI, "abi", "", "ABI JSON shared by every call")
	readCmd.Flags().StringVar(&readABIFile, "abi-file", "", "Path to the shared ABI JSON")
	readCmd.MarkFlagsMutuallyExclusive("abi", "abi-file")
	root.AddCommand(readCmd)

	blockCmd := &cobra.Command{
		Use:   "block-number",
		Short: "Chain head as seen by the Multicall3 deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				head, err := evm.BlockNumberViaMulticall(ctx, client)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := map[string]any{
					"block_number": head.Uint64(),
					"multicall3":   registry.Multicall3Address,
				}
				return data, status, nil, false, nil
			})
		},
	}
	root.AddCommand(blockCmd)

	return root
}
