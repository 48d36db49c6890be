package providers

import (
	"context"

	"github.com/scrollkit/scroll-cli/internal/model"
)

type Provider interface {
	Info() model.ProviderInfo
}

// ExplorerProvider serves indexed account history from an
// Etherscan-compatible API.
type ExplorerProvider interface {
	Provider
	AccountTransactions(ctx context.Context, req AccountHistoryRequest) ([]model.TransactionSummary, error)
	TokenTransfers(ctx context.Context, req TokenTransferRequest) ([]model.TokenTransfer, error)
	ContractABI(ctx context.Context, address string) (string, error)
	ContractSource(ctx context.Context, address string) (ContractSource, error)
}

type AccountHistoryRequest struct {
	Address    string
	StartBlock uint64
	EndBlock   uint64
	Page       int
	Limit      int
	Descending bool
}

type TokenTransferRequest struct {
	Address      string
	TokenAddress string
	Standard     string // erc20, erc721 or erc1155
	StartBlock   uint64
	EndBlock     uint64
	Page         int
	Limit        int
}

type ContractSource struct {
	ContractName     string `json:"contract_name"`
	CompilerVersion  string `json:"compiler_version"`
	OptimizationUsed bool   `json:"optimization_used"`
	SourceCode       string `json:"source_code"`
	ABI              string `json:"abi"`
	Verified         bool   `json:"verified"`
}

// RollupProvider serves batch and chunk metadata from the rollup
// explorer API.
type RollupProvider interface {
	Provider
	Batches(ctx context.Context, page, limit int) ([]model.BatchSummary, error)
	BatchByIndex(ctx context.Context, index uint64) (model.BatchSummary, error)
	LastBatchIndexes(ctx context.Context) (LastBatchIndexes, error)
}

type LastBatchIndexes struct {
	CommittedIndex uint64 `json:"committed_index"`
	FinalizedIndex uint64 `json:"finalized_index"`
}

// BridgeHistoryProvider serves cross-domain message history.
type BridgeHistoryProvider interface {
	Provider
	Transactions(ctx context.Context, address string, page, limit int) ([]model.BridgeMessage, error)
	ClaimableWithdrawals(ctx context.Context, address string, page, limit int) ([]model.BridgeMessage, error)
}

// SubgraphProvider executes GraphQL queries against a configured
// subgraph endpoint.
type SubgraphProvider interface {
	Provider
	Query(ctx context.Context, query string, variables map[string]any) (model.SubgraphResult, error)
}

// BundlerProvider speaks the ERC-4337 bundler RPC namespace.
type BundlerProvider interface {
	Provider
	SupportedEntryPoints(ctx context.Context) ([]string, error)
	EstimateUserOperationGas(ctx context.Context, userOp map[string]any, entryPoint string) (model.UserOpGasEstimate, error)
	SendUserOperation(ctx context.Context, userOp map[string]any, entryPoint string) (string, error)
	UserOperationByHash(ctx context.Context, hash string) (model.UserOpStatus, error)
	UserOperationReceipt(ctx context.Context, hash string) (model.UserOpStatus, error)
}
