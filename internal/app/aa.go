package app

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

func (s *runtimeState) bundlerStatusList(err error, start time.Time) []model.ProviderStatus {
	return []model.ProviderStatus{{Name: s.bundler.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
}

// loadUserOp reads the operation JSON from the inline flag or a file.
func loadUserOp(inline, file string) (map[string]any, error) {
	raw := inline
	if raw == "" && file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "read --userop-file", err)
		}
		raw = string(data)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, clierr.New(clierr.CodeUsage, "provide the operation with --userop or --userop-file")
	}
	var userOp map[string]any
	if err := json.Unmarshal([]byte(raw), &userOp); err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, "parse user operation json", err)
	}
	if _, ok := userOp["sender"]; !ok {
		return nil, clierr.New(clierr.CodeUsage, "user operation is missing the sender field")
	}
	return userOp, nil
}

func resolveEntryPoint(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "v0.7", "v07":
		return registry.EntryPointV07Address, nil
	case "v0.6", "v06":
		return registry.EntryPointV06Address, nil
	}
	if !common.IsHexAddress(value) {
		return "", clierr.New(clierr.CodeUsage, "entry point must be v0.6, v0.7, or an address")
	}
	return common.HexToAddress(value).Hex(), nil
}

func (s *runtimeState) newAACommand() *cobra.Command {
	root := &cobra.Command{Use: "aa", Short: "ERC-4337 account abstraction"}

	entrypointsCmd := &cobra.Command{
		Use:   "entrypoints",
		Short: "Entry points the configured bundler supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cacheKey(trimRootPath(cmd.CommandPath()), map[string]any{"chain": s.chain.CAIP2})
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlStatic, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				entryPoints, err := s.bundler.SupportedEntryPoints(ctx)
				status := s.bundlerStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				data := map[string]any{
					"entry_points": entryPoints,
					"known": map[string]string{
						"v0.6": registry.EntryPointV06Address,
						"v0.7": registry.EntryPointV07Address,
					},
				}
				return data, status, nil, false, nil
			})
		},
	}
	root.AddCommand(entrypointsCmd)

	var (
		estimateUserOp     string
		estimateUserOpFile string
		estimateEntryPoint string
	)
	estimateCmd := &cobra.Command{
		Use:   "estimate-userop",
		Short: "Estimate gas for a user operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			userOp, err := loadUserOp(estimateUserOp, estimateUserOpFile)
			if err != nil {
				return err
			}
			entryPoint, err := resolveEntryPoint(estimateEntryPoint)
			if err != nil {
				return err
			}
			req := map[string]any{"userop": userOp, "entry_point": entryPoint, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				estimate, err := s.bundler.EstimateUserOperationGas(ctx, userOp, entryPoint)
				status := s.bundlerStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				estimate.EntryPoint = entryPoint
				return estimate, status, nil, false, nil
			})
		},
	}
	estimateCmd.Flags().StringVar(&estimateUserOp, "userop", "", "User operation as inline JSON")
	estimateCmd.Flags().StringVar(&estimateUserOpFile, "userop-file", "", "Path to a user operation JSON file")
	estimateCmd.Flags().StringVar(&estimateEntryPoint, "entry-point", "", "Entry point version or address (default v0.7)")
	root.AddCommand(estimateCmd)

	var (
		sendUserOp     string
		sendUserOpFile string
		sendEntryPoint string
	)
	sendCmd := &cobra.Command{
		Use:   "send-userop",
		Short: "Submit a signed user operation to the bundler",
		RunE: func(cmd *cobra.Command, args []string) error {
			userOp, err := loadUserOp(sendUserOp, sendUserOpFile)
			if err != nil {
				return err
			}
			if sig, ok := userOp["signature"].(string); !ok || sig == "" || sig == "0x" {
				return clierr.New(clierr.CodeUsage, "user operation must carry a signature before submission")
			}
			entryPoint, err := resolveEntryPoint(sendEntryPoint)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
			defer cancel()
			start := time.Now()
			hash, err := s.bundler.SendUserOperation(ctx, userOp, entryPoint)
			status := s.bundlerStatusList(err, start)
			if err != nil {
				s.captureCommandDiagnostics(nil, status, false)
				return err
			}
			data := map[string]any{"user_op_hash": hash, "entry_point": entryPoint}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), status, false)
		},
	}
	sendCmd.Flags().StringVar(&sendUserOp, "userop", "", "User operation as inline JSON")
	sendCmd.Flags().StringVar(&sendUserOpFile, "userop-file", "", "Path to a user operation JSON file")
	sendCmd.Flags().StringVar(&sendEntryPoint, "entry-point", "", "Entry point version or address (default v0.7)")
	root.AddCommand(sendCmd)

	var useropHash string
	useropCmd := &cobra.Command{
		Use:   "userop",
		Short: "Look up a user operation by hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"hash": strings.ToLower(useropHash), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				op, err := s.bundler.UserOperationByHash(ctx, useropHash)
				status := s.bundlerStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				warnings := []string{}
				if !op.Found {
					warnings = append(warnings, "user operation not yet known to the bundler")
				}
				return op, status, warnings, false, nil
			})
		},
	}
	useropCmd.Flags().StringVar(&useropHash, "hash", "", "User operation hash")
	_ = useropCmd.MarkFlagRequired("hash")
	root.AddCommand(useropCmd)

	var receiptHash string
	receiptCmd := &cobra.Command{
		Use:   "userop-receipt",
		Short: "Receipt for an included user operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"hash": strings.ToLower(receiptHash), "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				op, err := s.bundler.UserOperationReceipt(ctx, receiptHash)
				status := s.bundlerStatusList(err, start)
				if err != nil {
					return nil, status, nil, false, err
				}
				warnings := []string{}
				if !op.Found {
					warnings = append(warnings, "user operation has no receipt yet")
				}
				return op, status, warnings, false, nil
			})
		},
	}
	receiptCmd.Flags().StringVar(&receiptHash, "hash", "", "User operation hash")
	_ = receiptCmd.MarkFlagRequired("hash")
	root.AddCommand(receiptCmd)

	return root
}
