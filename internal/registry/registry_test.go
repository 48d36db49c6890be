package registry

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestBridgeContractsFor(t *testing.T) {
	for _, chainID := range []int64{534352, 534351} {
		contracts, ok := BridgeContractsFor(chainID)
		if !ok {
			t.Fatalf("expected bridge contracts for chain %d", chainID)
		}
		if contracts.L1ScrollChain == "" || contracts.L1GatewayRouter == "" || contracts.L2GatewayRouter == "" {
			t.Fatalf("unexpected empty bridge contract values for chain %d: %+v", chainID, contracts)
		}
	}
	if _, ok := BridgeContractsFor(1); ok {
		t.Fatal("did not expect bridge contracts for the settlement chain itself")
	}
}

func TestABIConstantsParse(t *testing.T) {
	abis := []string{
		ERC20ABI,
		ERC721ABI,
		ERC1155ABI,
		ScrollChainABI,
		L1GasPriceOracleABI,
		GatewayRouterABI,
		Multicall3ABI,
		EntryPointABI,
		CanvasProfileRegistryABI,
		CanvasProfileABI,
	}
	for _, raw := range abis {
		if _, err := abi.JSON(strings.NewReader(raw)); err != nil {
			t.Fatalf("failed to parse abi json: %v", err)
		}
	}
}

func TestDefaultRPCURL(t *testing.T) {
	if rpc, ok := DefaultRPCURL(534352); !ok || rpc == "" {
		t.Fatalf("expected scroll mainnet rpc default, got ok=%v rpc=%q", ok, rpc)
	}
	if rpc, ok := DefaultRPCURL(534351); !ok || rpc == "" {
		t.Fatalf("expected scroll sepolia rpc default, got ok=%v rpc=%q", ok, rpc)
	}
	if _, ok := DefaultRPCURL(99999); ok {
		t.Fatal("did not expect rpc default for unknown chain")
	}
}

func TestResolveRPCURL(t *testing.T) {
	if got, err := ResolveRPCURL("  https://example.org/rpc  ", 534352); err != nil || got != "https://example.org/rpc" {
		t.Fatalf("expected override to win, got %q err=%v", got, err)
	}
	if got, err := ResolveRPCURL("", 534352); err != nil || got != "https://rpc.scroll.io" {
		t.Fatalf("expected default mainnet rpc, got %q err=%v", got, err)
	}
	if _, err := ResolveRPCURL("", 99999); err == nil {
		t.Fatal("expected error for unknown chain without override")
	}
}

func TestResolveEndpoint(t *testing.T) {
	if got, ok := ResolveEndpoint("https://proxy.example/api/", 99999, ScrollscanBaseURL); !ok || got != "https://proxy.example/api" {
		t.Fatalf("expected trimmed override, got ok=%v url=%q", ok, got)
	}
	if got, ok := ResolveEndpoint("", 534351, RollupAPIBaseURL); !ok || got != RollupAPISepoliaBaseURL {
		t.Fatalf("expected sepolia rollup api default, got ok=%v url=%q", ok, got)
	}
	if _, ok := ResolveEndpoint("", 1, BridgeHistoryBaseURL); ok {
		t.Fatal("did not expect bridge history endpoint for non-scroll chain")
	}
}
