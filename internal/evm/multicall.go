package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

type Call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type Result3 struct {
	Success    bool
	ReturnData []byte
}

// Aggregate3 batches read calls through the Multicall3 deployment.
func Aggregate3(ctx context.Context, client *ethclient.Client, calls []Call3) ([]Result3, error) {
	if len(calls) == 0 {
		return nil, clierr.New(clierr.CodeUsage, "no calls to aggregate")
	}
	parsed, err := ParseABI(registry.Multicall3ABI)
	if err != nil {
		return nil, err
	}

	type abiCall struct {
		Target       common.Address `abi:"target"`
		AllowFailure bool           `abi:"allowFailure"`
		CallData     []byte         `abi:"callData"`
	}
	packed := make([]abiCall, 0, len(calls))
	for _, c := range calls {
		packed = append(packed, abiCall{Target: c.Target, AllowFailure: c.AllowFailure, CallData: c.CallData})
	}
	data, err := parsed.Pack("aggregate3", packed)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack aggregate3", err)
	}

	target := common.HexToAddress(registry.Multicall3Address)
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "multicall aggregate3", err)
	}
	values, err := parsed.Unpack("aggregate3", raw)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "unpack aggregate3", err)
	}
	if len(values) != 1 {
		return nil, clierr.New(clierr.CodeInternal, "unexpected aggregate3 return shape")
	}

	decoded, ok := values[0].([]struct {
		Success    bool   `json:"success"`
		ReturnData []byte `json:"returnData"`
	})
	if !ok {
		return nil, clierr.New(clierr.CodeInternal, "unexpected aggregate3 return type")
	}
	out := make([]Result3, 0, len(decoded))
	for _, d := range decoded {
		out = append(out, Result3{Success: d.Success, ReturnData: d.ReturnData})
	}
	return out, nil
}

// BlockNumberViaMulticall reads the chain head through Multicall3.
func BlockNumberViaMulticall(ctx context.Context, client *ethclient.Client) (*big.Int, error) {
	parsed, err := ParseABI(registry.Multicall3ABI)
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("getBlockNumber")
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack getBlockNumber", err)
	}
	target := common.HexToAddress(registry.Multicall3Address)
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "multicall getBlockNumber", err)
	}
	return new(big.Int).SetBytes(raw), nil
}
