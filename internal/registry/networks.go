package registry

import (
	"fmt"
	"strings"
)

// Canonical default RPC endpoints by chain ID. These values are used
// whenever a command does not pass --rpc-url / --l1-rpc-url.
var defaultRPCByChainID = map[int64]string{
	534352:   "https://rpc.scroll.io",
	534351:   "https://sepolia-rpc.scroll.io",
	1:        "https://eth.llamarpc.com",
	11155111: "https://ethereum-sepolia-rpc.publicnode.com",
}

func DefaultRPCURL(chainID int64) (string, bool) {
	value, ok := defaultRPCByChainID[chainID]
	return value, ok
}

func ResolveRPCURL(override string, chainID int64) (string, error) {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override), nil
	}
	if value, ok := DefaultRPCURL(chainID); ok {
		return value, nil
	}
	return "", fmt.Errorf("no default rpc configured for chain id %d; provide --rpc-url", chainID)
}
