package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string           `json:"request_id"`
	Timestamp time.Time        `json:"timestamp"`
	Command   string           `json:"command"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	Cache     CacheStatus      `json:"cache"`
	Partial   bool             `json:"partial"`
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type ProviderInfo struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	RequiresKey   bool     `json:"requires_key"`
	Capabilities  []string `json:"capabilities"`
	KeyEnvVarName string   `json:"key_env_var,omitempty"`
}

// AmountInfo carries one asset amount in both base-unit and decimal form.
// Base units are decimal strings so precision never leaks through float64.
type AmountInfo struct {
	AmountBaseUnits string `json:"amount_base_units"`
	AmountDecimal   string `json:"amount_decimal"`
	Decimals        int    `json:"decimals"`
}

type NativeBalance struct {
	Address     string     `json:"address"`
	ChainID     string     `json:"chain_id"`
	Symbol      string     `json:"symbol"`
	Balance     AmountInfo `json:"balance"`
	BlockNumber uint64     `json:"block_number,omitempty"`
	FetchedAt   string     `json:"fetched_at"`
}

type TokenBalance struct {
	Address      string     `json:"address"`
	ChainID      string     `json:"chain_id"`
	TokenAddress string     `json:"token_address"`
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name,omitempty"`
	Balance      AmountInfo `json:"balance"`
	FetchedAt    string     `json:"fetched_at"`
}

type TokenAllowance struct {
	TokenAddress string     `json:"token_address"`
	Owner        string     `json:"owner"`
	Spender      string     `json:"spender"`
	Allowance    AmountInfo `json:"allowance"`
	Unlimited    bool       `json:"unlimited"`
}

type TokenInfo struct {
	Address     string `json:"address"`
	ChainID     string `json:"chain_id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	TotalSupply string `json:"total_supply"`
}

type NonceInfo struct {
	Address      string `json:"address"`
	ChainID      string `json:"chain_id"`
	Latest       uint64 `json:"latest"`
	Pending      uint64 `json:"pending"`
	PendingDelta uint64 `json:"pending_delta"`
}

type AddressKind struct {
	Address    string `json:"address"`
	ChainID    string `json:"chain_id"`
	IsContract bool   `json:"is_contract"`
	CodeSize   int    `json:"code_size"`
}

type TransactionSummary struct {
	Hash             string `json:"hash"`
	ChainID          string `json:"chain_id"`
	BlockNumber      uint64 `json:"block_number,omitempty"`
	BlockHash        string `json:"block_hash,omitempty"`
	From             string `json:"from"`
	To               string `json:"to,omitempty"`
	ContractCreated  string `json:"contract_created,omitempty"`
	Nonce            uint64 `json:"nonce"`
	ValueBaseUnits   string `json:"value_base_units"`
	ValueDecimal     string `json:"value_decimal"`
	GasLimit         uint64 `json:"gas_limit"`
	GasPrice         string `json:"gas_price,omitempty"`
	MaxFeePerGas     string `json:"max_fee_per_gas,omitempty"`
	MaxPriorityFee   string `json:"max_priority_fee_per_gas,omitempty"`
	InputSizeBytes   int    `json:"input_size_bytes"`
	InputSelector    string `json:"input_selector,omitempty"`
	Type             uint8  `json:"type"`
	Pending          bool   `json:"pending"`
	Status           string `json:"status,omitempty"`
	GasUsed          uint64 `json:"gas_used,omitempty"`
	EffectiveGas     string `json:"effective_gas_price,omitempty"`
	L1FeeBaseUnits   string `json:"l1_fee_base_units,omitempty"`
	TotalFeeDecimal  string `json:"total_fee_decimal,omitempty"`
	Confirmations    uint64 `json:"confirmations"`
	TimestampUNIX    int64  `json:"timestamp_unix,omitempty"`
	FinalityStatus   string `json:"finality_status,omitempty"`
	FinalityBatch    uint64 `json:"finality_batch,omitempty"`
	FinalityEstimate string `json:"finality_estimate,omitempty"`
}

type ReceiptSummary struct {
	Hash            string       `json:"hash"`
	ChainID         string       `json:"chain_id"`
	BlockNumber     uint64       `json:"block_number"`
	Status          string       `json:"status"`
	GasUsed         uint64       `json:"gas_used"`
	EffectiveGas    string       `json:"effective_gas_price"`
	L1FeeBaseUnits  string       `json:"l1_fee_base_units,omitempty"`
	ContractCreated string       `json:"contract_created,omitempty"`
	Logs            []LogSummary `json:"logs,omitempty"`
	LogCount        int          `json:"log_count"`
}

type LogSummary struct {
	Address     string            `json:"address"`
	Topics      []string          `json:"topics"`
	Data        string            `json:"data,omitempty"`
	BlockNumber uint64            `json:"block_number"`
	TxHash      string            `json:"tx_hash"`
	LogIndex    uint              `json:"log_index"`
	Removed     bool              `json:"removed,omitempty"`
	EventName   string            `json:"event_name,omitempty"`
	DecodedArgs map[string]string `json:"decoded_args,omitempty"`
}

type BlockSummary struct {
	Number           uint64   `json:"number"`
	Hash             string   `json:"hash"`
	ParentHash       string   `json:"parent_hash"`
	ChainID          string   `json:"chain_id"`
	TimestampUNIX    int64    `json:"timestamp_unix"`
	Miner            string   `json:"miner"`
	GasUsed          uint64   `json:"gas_used"`
	GasLimit         uint64   `json:"gas_limit"`
	BaseFeePerGas    string   `json:"base_fee_per_gas,omitempty"`
	TransactionCount int      `json:"transaction_count"`
	TransactionList  []string `json:"transactions,omitempty"`
	SizeBytes        uint64   `json:"size_bytes"`
}

type GasPriceInfo struct {
	ChainID         string `json:"chain_id"`
	GasPriceWei     string `json:"gas_price_wei"`
	GasPriceGwei    string `json:"gas_price_gwei"`
	MaxPriorityWei  string `json:"max_priority_fee_wei,omitempty"`
	BaseFeeWei      string `json:"base_fee_wei,omitempty"`
	L1BaseFeeWei    string `json:"l1_base_fee_wei,omitempty"`
	L1OverheadUnits string `json:"l1_overhead,omitempty"`
	L1Scalar        string `json:"l1_scalar,omitempty"`
	FetchedAt       string `json:"fetched_at"`
}

type FeeEstimate struct {
	ChainID           string `json:"chain_id"`
	GasLimit          uint64 `json:"gas_limit"`
	ExecutionFeeWei   string `json:"execution_fee_wei"`
	L1DataFeeWei      string `json:"l1_data_fee_wei"`
	TotalFeeWei       string `json:"total_fee_wei"`
	TotalFeeDecimal   string `json:"total_fee_decimal"`
	L1FeeSource       string `json:"l1_fee_source"`
	CalldataSizeBytes int    `json:"calldata_size_bytes"`
	GasPriceWei       string `json:"gas_price_wei"`
}

type ContractCallResult struct {
	Address   string   `json:"address"`
	ChainID   string   `json:"chain_id"`
	Method    string   `json:"method"`
	Outputs   []string `json:"outputs"`
	RawResult string   `json:"raw_result,omitempty"`
}

type ContractWriteResult struct {
	Hash        string `json:"hash"`
	ChainID     string `json:"chain_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Method      string `json:"method,omitempty"`
	Nonce       uint64 `json:"nonce"`
	Status      string `json:"status,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}

type MulticallResult struct {
	Target    string   `json:"target"`
	Method    string   `json:"method"`
	Success   bool     `json:"success"`
	Outputs   []string `json:"outputs,omitempty"`
	RawResult string   `json:"raw_result,omitempty"`
}

type TokenTransfer struct {
	TxHash        string     `json:"tx_hash"`
	BlockNumber   uint64     `json:"block_number"`
	TimestampUNIX int64      `json:"timestamp_unix"`
	TokenAddress  string     `json:"token_address"`
	TokenSymbol   string     `json:"token_symbol,omitempty"`
	TokenName     string     `json:"token_name,omitempty"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	Amount        AmountInfo `json:"amount"`
	TokenID       string     `json:"token_id,omitempty"`
	Standard      string     `json:"standard"`
}

type NFTOwnership struct {
	ContractAddress string `json:"contract_address"`
	TokenID         string `json:"token_id"`
	Owner           string `json:"owner"`
	Standard        string `json:"standard"`
	TokenURI        string `json:"token_uri,omitempty"`
}

type NFTCollection struct {
	ContractAddress string `json:"contract_address"`
	ChainID         string `json:"chain_id"`
	Name            string `json:"name,omitempty"`
	Symbol          string `json:"symbol,omitempty"`
	Standard        string `json:"standard"`
}

type BatchSummary struct {
	Index             uint64 `json:"index"`
	Hash              string `json:"hash,omitempty"`
	Status            string `json:"status"`
	RollupStatus      string `json:"rollup_status,omitempty"`
	CommitTxHash      string `json:"commit_tx_hash,omitempty"`
	CommittedAtUNIX   int64  `json:"committed_at_unix,omitempty"`
	FinalizeTxHash    string `json:"finalize_tx_hash,omitempty"`
	FinalizedAtUNIX   int64  `json:"finalized_at_unix,omitempty"`
	StartBlock        uint64 `json:"start_block,omitempty"`
	EndBlock          uint64 `json:"end_block,omitempty"`
	TotalTxCount      uint64 `json:"total_tx_count,omitempty"`
	EstimatedFinalize string `json:"estimated_finalize,omitempty"`
}

type RollupStatus struct {
	ChainID                 string `json:"chain_id"`
	L1ChainID               string `json:"l1_chain_id"`
	LastFinalizedBatch      uint64 `json:"last_finalized_batch"`
	LastCommittedBatch      uint64 `json:"last_committed_batch,omitempty"`
	L2BlockNumber           uint64 `json:"l2_block_number"`
	FinalizedL2BlockNumber  uint64 `json:"finalized_l2_block_number,omitempty"`
	AvgFinalizeIntervalSecs int64  `json:"avg_finalize_interval_secs,omitempty"`
	FetchedAt               string `json:"fetched_at"`
}

type BridgeMessage struct {
	MessageHash    string     `json:"message_hash,omitempty"`
	TxHash         string     `json:"tx_hash"`
	Direction      string     `json:"direction"`
	From           string     `json:"from"`
	To             string     `json:"to,omitempty"`
	TokenAddress   string     `json:"token_address,omitempty"`
	TokenSymbol    string     `json:"token_symbol,omitempty"`
	Amount         AmountInfo `json:"amount"`
	Status         string     `json:"status"`
	BlockNumber    uint64     `json:"block_number,omitempty"`
	TimestampUNIX  int64      `json:"timestamp_unix,omitempty"`
	CounterpartTx  string     `json:"counterpart_tx_hash,omitempty"`
	ClaimReady     bool       `json:"claim_ready,omitempty"`
	EstimatedReady string     `json:"estimated_ready,omitempty"`
}

type BridgeTimeEstimate struct {
	Direction        string `json:"direction"`
	EstimatedSeconds int64  `json:"estimated_seconds"`
	Basis            string `json:"basis"`
}

type DEXInfo struct {
	Name    string `json:"name"`
	Router  string `json:"router"`
	Factory string `json:"factory"`
	Kind    string `json:"kind"`
}

type PoolInfo struct {
	DEX       string `json:"dex"`
	Pair      string `json:"pair"`
	Token0    string `json:"token0"`
	Token1    string `json:"token1"`
	Reserve0  string `json:"reserve0"`
	Reserve1  string `json:"reserve1"`
	UpdatedAt int64  `json:"updated_at_unix,omitempty"`
}

type LendingMarketInfo struct {
	Name     string `json:"name"`
	Pool     string `json:"pool"`
	Kind     string `json:"kind"`
	Deployed bool   `json:"deployed"`
}

type BridgeFeeEstimate struct {
	Direction       string `json:"direction"`
	GasLimit        uint64 `json:"gas_limit"`
	GasPriceWei     string `json:"gas_price_wei"`
	ExecutionFeeWei string `json:"execution_fee_wei"`
	L1DataFeeWei    string `json:"l1_data_fee_wei,omitempty"`
	TotalFeeWei     string `json:"total_fee_wei"`
	TotalFeeDecimal string `json:"total_fee_decimal"`
}

type UserOpGasEstimate struct {
	PreVerificationGas   string `json:"pre_verification_gas"`
	VerificationGasLimit string `json:"verification_gas_limit"`
	CallGasLimit         string `json:"call_gas_limit"`
	EntryPoint           string `json:"entry_point"`
}

type UserOpStatus struct {
	UserOpHash    string `json:"user_op_hash"`
	EntryPoint    string `json:"entry_point,omitempty"`
	Sender        string `json:"sender,omitempty"`
	Nonce         string `json:"nonce,omitempty"`
	TxHash        string `json:"tx_hash,omitempty"`
	BlockNumber   uint64 `json:"block_number,omitempty"`
	Success       bool   `json:"success"`
	ActualGasUsed string `json:"actual_gas_used,omitempty"`
	ActualGasCost string `json:"actual_gas_cost,omitempty"`
	Found         bool   `json:"found"`
}

type CanvasProfile struct {
	Account        string   `json:"account"`
	ProfileAddress string   `json:"profile_address"`
	Minted         bool     `json:"minted"`
	Username       string   `json:"username,omitempty"`
	BadgeCount     int      `json:"badge_count"`
	Badges         []string `json:"badges,omitempty"`
}

type AddressActivity struct {
	Address       string `json:"address"`
	ChainID       string `json:"chain_id"`
	TxCount       uint64 `json:"tx_count"`
	FirstSeenUNIX int64  `json:"first_seen_unix,omitempty"`
	LastSeenUNIX  int64  `json:"last_seen_unix,omitempty"`
	WindowBlocks  uint64 `json:"window_blocks,omitempty"`
	WindowTxCount int    `json:"window_tx_count,omitempty"`
}

type ChainAnalytics struct {
	ChainID          string  `json:"chain_id"`
	LatestBlock      uint64  `json:"latest_block"`
	AvgBlockTimeSecs float64 `json:"avg_block_time_secs"`
	AvgGasUsedRatio  float64 `json:"avg_gas_used_ratio"`
	TxPerBlock       float64 `json:"tx_per_block"`
	SampleBlocks     int     `json:"sample_blocks"`
	GasPriceWei      string  `json:"gas_price_wei,omitempty"`
	BatchLag         uint64  `json:"batch_lag,omitempty"`
	FetchedAt        string  `json:"fetched_at"`
}

type SubgraphResult struct {
	Endpoint string `json:"endpoint"`
	Data     any    `json:"data"`
}

type SessionKeyRecord struct {
	Label       string `json:"label"`
	Address     string `json:"address"`
	ChainID     string `json:"chain_id"`
	ExpiresUNIX int64  `json:"expires_unix,omitempty"`
	CreatedUNIX int64  `json:"created_unix"`
	Revoked     bool   `json:"revoked"`
}

type ConversionResult struct {
	Input      string `json:"input"`
	InputUnit  string `json:"input_unit"`
	Output     string `json:"output"`
	OutputUnit string `json:"output_unit"`
}

type SignatureResult struct {
	Address   string `json:"address"`
	Message   string `json:"message,omitempty"`
	Signature string `json:"signature,omitempty"`
	Valid     bool   `json:"valid,omitempty"`
	Recovered string `json:"recovered,omitempty"`
}

// WatchEvent is one emission from the watch loop. Data holds the
// kind-specific payload (a struct from this package).
type WatchEvent struct {
	Kind          string `json:"kind"`
	ChainID       string `json:"chain_id"`
	BlockNumber   uint64 `json:"block_number,omitempty"`
	TxHash        string `json:"tx_hash,omitempty"`
	TimestampUNIX int64  `json:"timestamp_unix"`
	Data          any    `json:"data,omitempty"`
}
