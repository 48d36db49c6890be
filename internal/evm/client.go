package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/scrollkit/scroll-cli/internal/errors"
)

// Dial connects to an EVM JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if strings.TrimSpace(rpcURL) == "" {
		return nil, clierr.New(clierr.CodeUsage, "missing rpc url")
	}
	client, err := ethclient.DialContext(ctx, strings.TrimSpace(rpcURL))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "connect rpc", err)
	}
	return client, nil
}

// VerifyChainID checks that the connected node serves the expected chain.
func VerifyChainID(ctx context.Context, client *ethclient.Client, expected int64) (*big.Int, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	if expected > 0 && chainID.Int64() != expected {
		return nil, clierr.New(clierr.CodeUsage,
			"rpc chain id mismatch: node serves "+chainID.String())
	}
	return chainID, nil
}
