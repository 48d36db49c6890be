package evm

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/evm/signer"
)

// ParseABI parses a JSON ABI fragment.
func ParseABI(raw string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, clierr.Wrap(clierr.CodeUsage, "parse abi json", err)
	}
	return parsed, nil
}

// PackCall packs a method call after coercing string arguments to the
// types the ABI declares.
func PackCall(parsed abi.ABI, method string, args []string) ([]byte, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("method %q not found in abi", method))
	}
	if len(args) != len(m.Inputs) {
		return nil, clierr.New(clierr.CodeUsage,
			fmt.Sprintf("method %q expects %d argument(s), got %d", method, len(m.Inputs), len(args)))
	}
	coerced := make([]any, 0, len(args))
	for i, raw := range args {
		v, err := coerceArg(m.Inputs[i].Type, raw)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage,
				fmt.Sprintf("coerce argument %d for %s", i, method), err)
		}
		coerced = append(coerced, v)
	}
	data, err := parsed.Pack(method, coerced...)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, "pack calldata", err)
	}
	return data, nil
}

// Call executes a read-only method and returns formatted outputs plus
// the raw return data.
func Call(ctx context.Context, client *ethclient.Client, parsed abi.ABI, target common.Address, method string, args []string) ([]string, string, error) {
	data, err := PackCall(parsed, method, args)
	if err != nil {
		return nil, "", err
	}
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, "", clierr.Wrap(clierr.CodeUnavailable, "eth_call", err)
	}
	values, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, "", clierr.Wrap(clierr.CodeInternal, "unpack return data", err)
	}
	return FormatValues(values), "0x" + hex.EncodeToString(raw), nil
}

type WriteOptions struct {
	ValueWei           *big.Int
	GasLimit           uint64
	GasMultiplier      float64
	MaxFeeGwei         string
	MaxPriorityFeeGwei string
	Simulate           bool
	Wait               bool
	PollInterval       time.Duration
	WaitTimeout        time.Duration
}

func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		ValueWei:      new(big.Int),
		GasMultiplier: 1.2,
		Simulate:      true,
		Wait:          true,
		PollInterval:  2 * time.Second,
		WaitTimeout:   2 * time.Minute,
	}
}

type WriteResult struct {
	Hash     common.Hash
	Nonce    uint64
	GasLimit uint64
	Receipt  *types.Receipt
	Reverted bool
}

// Write signs and broadcasts a state-changing call, optionally waiting
// for the receipt.
func Write(ctx context.Context, client *ethclient.Client, txSigner signer.Signer, target common.Address, data []byte, opts WriteOptions) (*WriteResult, error) {
	if txSigner == nil {
		return nil, clierr.New(clierr.CodeSigner, "missing signer")
	}
	if opts.ValueWei == nil {
		opts.ValueWei = new(big.Int)
	}
	if opts.GasMultiplier <= 1 {
		opts.GasMultiplier = 1.2
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 2 * time.Minute
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	msg := ethereum.CallMsg{From: txSigner.Address(), To: &target, Value: opts.ValueWei, Data: data}

	if opts.Simulate {
		if _, err := client.CallContract(ctx, msg, nil); err != nil {
			return nil, clierr.Wrap(clierr.CodeTxReverted, "simulate call (eth_call)", err)
		}
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		estimated, err := client.EstimateGas(ctx, msg)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeTxReverted, "estimate gas", err)
		}
		gasLimit = uint64(float64(estimated) * opts.GasMultiplier)
	}

	tipCap, err := resolveTipCap(ctx, client, opts.MaxPriorityFeeGwei)
	if err != nil {
		return nil, err
	}
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "fetch latest header", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap, err := resolveFeeCap(baseFee, tipCap, opts.MaxFeeGwei)
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, txSigner.Address())
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "fetch nonce", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &target,
		Value:     opts.ValueWei,
		Data:      data,
	})
	signed, err := txSigner.SignTx(chainID, tx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSigner, "sign transaction", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "broadcast transaction", err)
	}

	result := &WriteResult{Hash: signed.Hash(), Nonce: nonce, GasLimit: gasLimit}
	if !opts.Wait {
		return result, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.WaitTimeout)
	defer cancel()
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := client.TransactionReceipt(waitCtx, signed.Hash())
		if err == nil && receipt != nil {
			result.Receipt = receipt
			if receipt.Status != types.ReceiptStatusSuccessful {
				result.Reverted = true
				return result, clierr.New(clierr.CodeTxReverted, "transaction reverted on-chain")
			}
			return result, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			// Transient RPC failures are retried until the timeout.
		}
		select {
		case <-waitCtx.Done():
			return result, clierr.Wrap(clierr.CodeTxTimeout, "timed out waiting for receipt", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func resolveTipCap(ctx context.Context, client *ethclient.Client, overrideGwei string) (*big.Int, error) {
	if strings.TrimSpace(overrideGwei) != "" {
		v, err := ParseGwei(overrideGwei)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "parse --max-priority-fee-gwei", err)
		}
		return v, nil
	}
	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return big.NewInt(10_000_000), nil // scroll sequencer default tip
	}
	return tipCap, nil
}

func resolveFeeCap(baseFee, tipCap *big.Int, overrideGwei string) (*big.Int, error) {
	if strings.TrimSpace(overrideGwei) != "" {
		v, err := ParseGwei(overrideGwei)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "parse --max-fee-gwei", err)
		}
		if v.Cmp(tipCap) < 0 {
			return nil, clierr.New(clierr.CodeUsage, "--max-fee-gwei must be >= --max-priority-fee-gwei")
		}
		return v, nil
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)
	return feeCap, nil
}

// ParseGwei converts a decimal gwei string to an integer wei amount.
func ParseGwei(v string) (*big.Int, error) {
	clean := strings.TrimSpace(v)
	if clean == "" {
		return nil, fmt.Errorf("empty gwei value")
	}
	rat, ok := new(big.Rat).SetString(clean)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", v)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("value must be non-negative")
	}
	rat.Mul(rat, big.NewRat(1_000_000_000, 1))
	if !rat.IsInt() {
		return nil, fmt.Errorf("value must resolve to an integer wei amount")
	}
	return new(big.Int).Set(rat.Num()), nil
}

// DecodeHex parses 0x-prefixed or bare hex into bytes.
func DecodeHex(v string) ([]byte, error) {
	clean := strings.TrimSpace(v)
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return []byte{}, nil
	}
	if len(clean)%2 != 0 {
		clean = "0" + clean
	}
	buf, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return buf, nil
}

// FormatValues renders decoded ABI values as strings, keeping integers
// in decimal form.
func FormatValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, formatValue(v))
	}
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case *big.Int:
		return t.String()
	case common.Address:
		return t.Hex()
	case common.Hash:
		return t.Hex()
	case [32]byte:
		return "0x" + hex.EncodeToString(t[:])
	case []byte:
		return "0x" + hex.EncodeToString(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerceArg(t abi.Type, raw string) (any, error) {
	clean := strings.TrimSpace(raw)
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(clean) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(clean), nil
	case abi.UintTy, abi.IntTy:
		v, ok := new(big.Int).SetString(clean, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		if t.Size <= 64 && t.T == abi.UintTy {
			switch {
			case t.Size <= 8:
				return uint8(v.Uint64()), nil
			case t.Size <= 16:
				return uint16(v.Uint64()), nil
			case t.Size <= 32:
				return uint32(v.Uint64()), nil
			default:
				return v.Uint64(), nil
			}
		}
		if t.Size <= 64 && t.T == abi.IntTy {
			switch {
			case t.Size <= 8:
				return int8(v.Int64()), nil
			case t.Size <= 16:
				return int16(v.Int64()), nil
			case t.Size <= 32:
				return int32(v.Int64()), nil
			default:
				return v.Int64(), nil
			}
		}
		return v, nil
	case abi.BoolTy:
		switch strings.ToLower(clean) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid bool %q", raw)
	case abi.StringTy:
		return raw, nil
	case abi.BytesTy:
		return DecodeHex(clean)
	case abi.FixedBytesTy:
		buf, err := DecodeHex(clean)
		if err != nil {
			return nil, err
		}
		if len(buf) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(buf))
		}
		if t.Size == 32 {
			var out [32]byte
			copy(out[:], buf)
			return out, nil
		}
		return nil, fmt.Errorf("unsupported fixed bytes size %d", t.Size)
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}
