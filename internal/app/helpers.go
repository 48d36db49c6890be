package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm"
	"github.com/scrollkit/scroll-cli/internal/evm/signer"
	"github.com/scrollkit/scroll-cli/internal/id"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/registry"
	"github.com/scrollkit/scroll-cli/internal/watch"
)

// Cache TTL tiers. Chain state churns every block, listings every few
// blocks, registry-backed data almost never.
const (
	ttlChainState = 10 * time.Second
	ttlListing    = 60 * time.Second
	ttlStatic     = 5 * time.Minute
)

const (
	rpcProviderName   = "scroll-rpc"
	l1RPCProviderName = "ethereum-rpc"
)

var (
	erc20ABI          = mustABI(registry.ERC20ABI)
	erc721ABI         = mustABI(registry.ERC721ABI)
	erc1155ABI        = mustABI(registry.ERC1155ABI)
	scrollChainABI    = mustABI(registry.ScrollChainABI)
	entryPointABI     = mustABI(registry.EntryPointABI)
	canvasRegistryABI = mustABI(registry.CanvasProfileRegistryABI)
	canvasProfileABI  = mustABI(registry.CanvasProfileABI)
	gatewayRouterABI  = mustABI(registry.GatewayRouterABI)
)

func mustABI(raw string) abi.ABI {
	parsed, err := evm.ParseABI(raw)
	if err != nil {
		panic(err)
	}
	return parsed
}

func (s *runtimeState) l2(ctx context.Context) (*ethclient.Client, error) {
	if s.l2Client != nil {
		return s.l2Client, nil
	}
	rpcURL, err := registry.ResolveRPCURL(s.settings.RPCURL, s.chain.EVMChainID)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, "resolve rpc url", err)
	}
	client, err := evm.Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	s.l2Client = client
	return client, nil
}

func (s *runtimeState) l1(ctx context.Context) (*ethclient.Client, error) {
	if s.l1Client != nil {
		return s.l1Client, nil
	}
	rpcURL, err := registry.ResolveRPCURL(s.settings.L1RPCURL, s.chain.L1ChainID)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, "resolve l1 rpc url", err)
	}
	client, err := evm.Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	s.l1Client = client
	return client, nil
}

func (s *runtimeState) store() (*watch.Store, error) {
	if s.watchStore != nil {
		return s.watchStore, nil
	}
	store, err := watch.OpenStore(s.settings.WatchStorePath, s.settings.WatchLockPath)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "open watch store", err)
	}
	s.watchStore = store
	return store, nil
}

func rpcStatus(name string, start time.Time, err error) []model.ProviderStatus {
	return []model.ProviderStatus{{
		Name:      name,
		Status:    statusFromErr(err),
		LatencyMS: time.Since(start).Milliseconds(),
	}}
}

func amountInfo(baseUnits *big.Int, decimals int) model.AmountInfo {
	raw := "0"
	if baseUnits != nil {
		raw = baseUnits.String()
	}
	return model.AmountInfo{
		AmountBaseUnits: raw,
		AmountDecimal:   id.FormatUnits(raw, decimals),
		Decimals:        decimals,
	}
}

func (s *runtimeState) txToSummary(tx *types.Transaction, pending bool, head, txBlock uint64, blockHash string) model.TransactionSummary {
	summary := model.TransactionSummary{
		Hash:           strings.ToLower(tx.Hash().Hex()),
		ChainID:        s.chain.CAIP2,
		Nonce:          tx.Nonce(),
		ValueBaseUnits: tx.Value().String(),
		ValueDecimal:   id.FormatUnits(tx.Value().String(), 18),
		GasLimit:       tx.Gas(),
		InputSizeBytes: len(tx.Data()),
		Type:           tx.Type(),
		Pending:        pending,
	}
	if to := tx.To(); to != nil {
		summary.To = to.Hex()
	}
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		summary.From = from.Hex()
	}
	if len(tx.Data()) >= 4 {
		summary.InputSelector = "0x" + common.Bytes2Hex(tx.Data()[:4])
	}
	switch tx.Type() {
	case types.DynamicFeeTxType:
		summary.MaxFeePerGas = tx.GasFeeCap().String()
		summary.MaxPriorityFee = tx.GasTipCap().String()
	default:
		summary.GasPrice = tx.GasPrice().String()
	}
	if !pending && txBlock > 0 {
		summary.BlockNumber = txBlock
		summary.BlockHash = blockHash
		if head >= txBlock {
			summary.Confirmations = head - txBlock + 1
		}
	}
	return summary
}

func (s *runtimeState) receiptToSummary(rcpt *types.Receipt, includeLogs bool) model.ReceiptSummary {
	summary := model.ReceiptSummary{
		Hash:         strings.ToLower(rcpt.TxHash.Hex()),
		ChainID:      s.chain.CAIP2,
		BlockNumber:  rcpt.BlockNumber.Uint64(),
		Status:       receiptStatus(rcpt),
		GasUsed:      rcpt.GasUsed,
		EffectiveGas: rcpt.EffectiveGasPrice.String(),
		LogCount:     len(rcpt.Logs),
	}
	if rcpt.ContractAddress != (common.Address{}) {
		summary.ContractCreated = rcpt.ContractAddress.Hex()
	}
	if includeLogs {
		logs := make([]model.LogSummary, 0, len(rcpt.Logs))
		for _, lg := range rcpt.Logs {
			logs = append(logs, logSummary(*lg))
		}
		summary.Logs = logs
	}
	return summary
}

func receiptStatus(rcpt *types.Receipt) string {
	if rcpt.Status == types.ReceiptStatusSuccessful {
		return "success"
	}
	return "reverted"
}

func logSummary(lg types.Log) model.LogSummary {
	topics := make([]string, 0, len(lg.Topics))
	for _, topic := range lg.Topics {
		topics = append(topics, topic.Hex())
	}
	return model.LogSummary{
		Address:     lg.Address.Hex(),
		Topics:      topics,
		Data:        "0x" + common.Bytes2Hex(lg.Data),
		BlockNumber: lg.BlockNumber,
		TxHash:      strings.ToLower(lg.TxHash.Hex()),
		LogIndex:    lg.Index,
		Removed:     lg.Removed,
	}
}

// erc20Meta reads symbol/name/decimals in one multicall. Missing metadata
// (non-standard tokens) degrades to empty values rather than failing.
func (s *runtimeState) erc20Meta(ctx context.Context, client *ethclient.Client, token common.Address) (symbol, name string, decimals int) {
	calls := make([]evm.Call3, 0, 3)
	for _, method := range []string{"symbol", "name", "decimals"} {
		data, err := erc20ABI.Pack(method)
		if err != nil {
			return "", "", 0
		}
		calls = append(calls, evm.Call3{Target: token, AllowFailure: true, CallData: data})
	}
	results, err := evm.Aggregate3(ctx, client, calls)
	if err != nil || len(results) != 3 {
		return "", "", 0
	}
	if results[0].Success {
		if values, err := erc20ABI.Unpack("symbol", results[0].ReturnData); err == nil && len(values) == 1 {
			symbol, _ = values[0].(string)
		}
	}
	if results[1].Success {
		if values, err := erc20ABI.Unpack("name", results[1].ReturnData); err == nil && len(values) == 1 {
			name, _ = values[0].(string)
		}
	}
	if results[2].Success {
		if values, err := erc20ABI.Unpack("decimals", results[2].ReturnData); err == nil && len(values) == 1 {
			if d, ok := values[0].(uint8); ok {
				decimals = int(d)
			}
		}
	}
	return symbol, name, decimals
}

// writeFlags mirror the transaction knobs every state-changing command
// exposes.
type writeFlags struct {
	keySource    string
	privateKey   string
	gasLimit     uint64
	maxFeeGwei   string
	priorityGwei string
	noSimulate   bool
	noWait       bool
	pollInterval string
	waitTimeout  string
}

func addWriteFlags(cmd *cobra.Command, f *writeFlags) {
	cmd.Flags().StringVar(&f.keySource, "key-source", signer.KeySourceAuto, "Key source (auto|env|file|keystore)")
	cmd.Flags().StringVar(&f.privateKey, "private-key", "", "Hex private key override (prefer env or keystore)")
	cmd.Flags().Uint64Var(&f.gasLimit, "gas-limit", 0, "Gas limit override (0 = estimate)")
	cmd.Flags().StringVar(&f.maxFeeGwei, "max-fee-gwei", "", "Max fee per gas in gwei")
	cmd.Flags().StringVar(&f.priorityGwei, "priority-fee-gwei", "", "Max priority fee per gas in gwei")
	cmd.Flags().BoolVar(&f.noSimulate, "no-simulate", false, "Skip preflight eth_call simulation")
	cmd.Flags().BoolVar(&f.noWait, "no-wait", false, "Return after broadcast without waiting for receipt")
	cmd.Flags().StringVar(&f.pollInterval, "poll-interval", "2s", "Receipt polling interval")
	cmd.Flags().StringVar(&f.waitTimeout, "wait-timeout", "2m", "Receipt wait timeout")
}

func (f writeFlags) options(valueWei *big.Int) (evm.WriteOptions, error) {
	opts := evm.DefaultWriteOptions()
	if valueWei != nil {
		opts.ValueWei = valueWei
	}
	opts.GasLimit = f.gasLimit
	opts.MaxFeeGwei = f.maxFeeGwei
	opts.MaxPriorityFeeGwei = f.priorityGwei
	opts.Simulate = !f.noSimulate
	opts.Wait = !f.noWait
	if f.pollInterval != "" {
		d, err := time.ParseDuration(f.pollInterval)
		if err != nil {
			return opts, clierr.Wrap(clierr.CodeUsage, "parse --poll-interval", err)
		}
		opts.PollInterval = d
	}
	if f.waitTimeout != "" {
		d, err := time.ParseDuration(f.waitTimeout)
		if err != nil {
			return opts, clierr.Wrap(clierr.CodeUsage, "parse --wait-timeout", err)
		}
		opts.WaitTimeout = d
	}
	return opts, nil
}

func (f writeFlags) signer() (signer.Signer, error) {
	return signer.NewLocalSignerFromInputs(f.keySource, f.privateKey)
}

func (s *runtimeState) writeContext(f writeFlags) (context.Context, context.CancelFunc) {
	budget := s.settings.Timeout
	if !f.noWait {
		if d, err := time.ParseDuration(f.waitTimeout); err == nil && d > budget {
			budget = d + s.settings.Timeout
		}
	}
	return context.WithTimeout(context.Background(), budget)
}

func (s *runtimeState) writeResultModel(from common.Address, to common.Address, method string, result *evm.WriteResult) model.ContractWriteResult {
	out := model.ContractWriteResult{
		Hash:        strings.ToLower(result.Hash.Hex()),
		ChainID:     s.chain.CAIP2,
		From:        from.Hex(),
		To:          to.Hex(),
		Method:      method,
		Nonce:       result.Nonce,
		SubmittedAt: s.runner.now().UTC().Format(time.RFC3339),
	}
	if result.Receipt != nil {
		out.Status = receiptStatus(result.Receipt)
		out.BlockNumber = result.Receipt.BlockNumber.Uint64()
		out.GasUsed = result.Receipt.GasUsed
	}
	return out
}

func parseAddressFlag(value, flag string) (common.Address, error) {
	checked, err := id.ParseAddress(value)
	if err != nil {
		return common.Address{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("%s: invalid address %q", flag, value))
	}
	return common.HexToAddress(checked), nil
}

func parseBig(value, flag string) (*big.Int, error) {
	norm := strings.TrimSpace(value)
	if norm == "" {
		return nil, clierr.New(clierr.CodeUsage, flag+" is required")
	}
	parsed, ok := new(big.Int).SetString(norm, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("%s: expected a non-negative decimal integer, got %q", flag, value))
	}
	return parsed, nil
}

func (s *runtimeState) newNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List supported Scroll networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			type network struct {
				Name      string `json:"name"`
				Slug      string `json:"slug"`
				ChainID   int64  `json:"chain_id"`
				L1ChainID int64  `json:"l1_chain_id"`
				RPCURL    string `json:"rpc_url"`
				Selected  bool   `json:"selected"`
				BlockTime int64  `json:"block_time_secs"`
			}
			data := make([]network, 0, 2)
			for _, slug := range []string{"scroll", "scroll-sepolia"} {
				chain, err := id.ParseChain(slug)
				if err != nil {
					continue
				}
				rpcURL, _ := registry.DefaultRPCURL(chain.EVMChainID)
				data = append(data, network{
					Name:      chain.Name,
					Slug:      chain.Slug,
					ChainID:   chain.EVMChainID,
					L1ChainID: chain.L1ChainID,
					RPCURL:    rpcURL,
					Selected:  chain.EVMChainID == s.chain.EVMChainID,
					BlockTime: chain.BlockTime,
				})
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	return cmd
}
