package registry

import "strings"

const (
	// Scrollscan explorer API endpoints (Etherscan-compatible).
	ScrollscanMainnetBaseURL = "https://api.scrollscan.com/api"
	ScrollscanSepoliaBaseURL = "https://api-sepolia.scrollscan.com/api"

	// Rollup explorer API exposing batch and chunk metadata.
	RollupAPIMainnetBaseURL = "https://mainnet-api-re.scroll.io/api"
	RollupAPISepoliaBaseURL = "https://sepolia-api-re.scroll.io/api"

	// Bridge history API exposing cross-domain message status.
	BridgeHistoryMainnetBaseURL = "https://mainnet-api-bridge-v2.scroll.io/api"
	BridgeHistorySepoliaBaseURL = "https://sepolia-api-bridge-v2.scroll.io/api"
)

// ScrollscanBaseURL returns the explorer API base for a chain ID.
func ScrollscanBaseURL(chainID int64) (string, bool) {
	switch chainID {
	case 534352:
		return ScrollscanMainnetBaseURL, true
	case 534351:
		return ScrollscanSepoliaBaseURL, true
	default:
		return "", false
	}
}

// RollupAPIBaseURL returns the rollup explorer API base for a chain ID.
func RollupAPIBaseURL(chainID int64) (string, bool) {
	switch chainID {
	case 534352:
		return RollupAPIMainnetBaseURL, true
	case 534351:
		return RollupAPISepoliaBaseURL, true
	default:
		return "", false
	}
}

// BridgeHistoryBaseURL returns the bridge history API base for a chain ID.
func BridgeHistoryBaseURL(chainID int64) (string, bool) {
	switch chainID {
	case 534352:
		return BridgeHistoryMainnetBaseURL, true
	case 534351:
		return BridgeHistorySepoliaBaseURL, true
	default:
		return "", false
	}
}

// ResolveEndpoint prefers an explicit override, falling back to the
// built-in default for the chain.
func ResolveEndpoint(override string, chainID int64, defaultFor func(int64) (string, bool)) (string, bool) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return strings.TrimRight(trimmed, "/"), true
	}
	return defaultFor(chainID)
}
