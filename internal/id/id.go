package id

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/scrollkit/scroll-cli/internal/errors"
)

var (
	eip155ChainPattern = regexp.MustCompile(`^eip155:[0-9]+$`)
	evmAddressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashPattern      = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// Chain describes one of the supported networks. Scroll chains carry the
// chain id of their settlement layer so bridge and rollup commands can pair
// an L2 client with the right L1.
type Chain struct {
	Name       string
	Slug       string
	CAIP2      string
	EVMChainID int64
	L1ChainID  int64
	BlockTime  int64
}

func (c Chain) IsScroll() bool {
	return c.EVMChainID == 534352 || c.EVMChainID == 534351
}

type Asset struct {
	ChainID  string
	AssetID  string
	Address  string
	Symbol   string
	Decimals int
}

type Token struct {
	Symbol   string
	Address  string
	Decimals int
}

var chainBySlug = map[string]Chain{
	"scroll":         {Name: "Scroll", Slug: "scroll", CAIP2: "eip155:534352", EVMChainID: 534352, L1ChainID: 1, BlockTime: 3},
	"scroll-mainnet": {Name: "Scroll", Slug: "scroll", CAIP2: "eip155:534352", EVMChainID: 534352, L1ChainID: 1, BlockTime: 3},
	"scroll-sepolia": {Name: "Scroll Sepolia", Slug: "scroll-sepolia", CAIP2: "eip155:534351", EVMChainID: 534351, L1ChainID: 11155111, BlockTime: 3},
	"ethereum":       {Name: "Ethereum", Slug: "ethereum", CAIP2: "eip155:1", EVMChainID: 1, BlockTime: 12},
	"mainnet":        {Name: "Ethereum", Slug: "ethereum", CAIP2: "eip155:1", EVMChainID: 1, BlockTime: 12},
	"sepolia":        {Name: "Sepolia", Slug: "sepolia", CAIP2: "eip155:11155111", EVMChainID: 11155111, BlockTime: 12},
}

var chainByID = map[int64]Chain{
	534352:   chainBySlug["scroll"],
	534351:   chainBySlug["scroll-sepolia"],
	1:        chainBySlug["ethereum"],
	11155111: chainBySlug["sepolia"],
}

// Bootstrap token registry for deterministic asset parsing on Scroll chains.
var tokenRegistry = map[string][]Token{
	"eip155:534352": {
		{Symbol: "WETH", Address: "0x5300000000000000000000000000000000000004", Decimals: 18},
		{Symbol: "USDC", Address: "0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4", Decimals: 6},
		{Symbol: "USDT", Address: "0xf55BEC9cafDbE8730f096Aa55dad6D22d44099Df", Decimals: 6},
		{Symbol: "DAI", Address: "0xcA77eB3fEFe3725Dc33bccB54eDEFc3D9f764f97", Decimals: 18},
		{Symbol: "SCR", Address: "0xd29687c813D741E2F938F4aC377128810E217b1b", Decimals: 18},
		{Symbol: "WSTETH", Address: "0xf610A9dfB7C89644979b4A0f27063E9e7d7Cda32", Decimals: 18},
		{Symbol: "WBTC", Address: "0x3C1BCa5a656e69edCD0D4E36BEbb3FcDAcA60Cf1", Decimals: 8},
	},
	"eip155:534351": {
		{Symbol: "WETH", Address: "0x5300000000000000000000000000000000000004", Decimals: 18},
		{Symbol: "USDC", Address: "0x2C9678042D52B97D27f2bD2947F7111d93F3dD0D", Decimals: 6},
	},
	"eip155:1": {
		{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
		{Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
		{Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
	},
}

func ParseChain(input string) (Chain, error) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if norm == "" {
		return Chain{}, clierr.New(clierr.CodeUsage, "chain identifier is required")
	}
	if chain, ok := chainBySlug[norm]; ok {
		return chain, nil
	}
	if eip155ChainPattern.MatchString(norm) {
		raw := strings.TrimPrefix(norm, "eip155:")
		chainID, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			if chain, ok := chainByID[chainID]; ok {
				return chain, nil
			}
		}
		return Chain{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("unsupported chain: %s", input))
	}
	if chainID, err := strconv.ParseInt(norm, 10, 64); err == nil {
		if chain, ok := chainByID[chainID]; ok {
			return chain, nil
		}
		return Chain{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("unsupported chain id: %d", chainID))
	}
	return Chain{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("unrecognized chain: %s", input))
}

func L1Chain(chain Chain) (Chain, bool) {
	if chain.L1ChainID == 0 {
		return Chain{}, false
	}
	l1, ok := chainByID[chain.L1ChainID]
	return l1, ok
}

// ParseAsset resolves a symbol or 0x address to a canonical asset on the
// given chain. Unknown addresses still resolve, with zero decimals and no
// symbol; callers that need decimals read them from the token contract.
func ParseAsset(input string, chain Chain) (Asset, error) {
	norm := strings.TrimSpace(input)
	if norm == "" {
		return Asset{}, clierr.New(clierr.CodeUsage, "asset is required")
	}

	if evmAddressPattern.MatchString(norm) {
		checked := common.HexToAddress(norm).Hex()
		asset := Asset{
			ChainID: chain.CAIP2,
			AssetID: fmt.Sprintf("%s/erc20:%s", chain.CAIP2, strings.ToLower(checked)),
			Address: checked,
		}
		for _, token := range tokenRegistry[chain.CAIP2] {
			if strings.EqualFold(token.Address, norm) {
				asset.Symbol = token.Symbol
				asset.Decimals = token.Decimals
				break
			}
		}
		return asset, nil
	}

	symbol := strings.ToUpper(norm)
	if symbol == "ETH" {
		return Asset{
			ChainID:  chain.CAIP2,
			AssetID:  chain.CAIP2 + "/slip44:60",
			Symbol:   "ETH",
			Decimals: 18,
		}, nil
	}
	for _, token := range tokenRegistry[chain.CAIP2] {
		if token.Symbol == symbol {
			checked := common.HexToAddress(token.Address).Hex()
			return Asset{
				ChainID:  chain.CAIP2,
				AssetID:  fmt.Sprintf("%s/erc20:%s", chain.CAIP2, strings.ToLower(checked)),
				Address:  checked,
				Symbol:   token.Symbol,
				Decimals: token.Decimals,
			}, nil
		}
	}
	return Asset{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown asset %q on %s; pass a token address", input, chain.Slug))
}

func (a Asset) IsNative() bool {
	return a.Address == "" && a.Symbol == "ETH"
}

// ParseAddress validates a raw hex address and returns it EIP-55 checksummed.
func ParseAddress(input string) (string, error) {
	norm := strings.TrimSpace(input)
	if !evmAddressPattern.MatchString(norm) {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid address: %s", input))
	}
	return common.HexToAddress(norm).Hex(), nil
}

func IsAddress(input string) bool {
	return evmAddressPattern.MatchString(strings.TrimSpace(input))
}

// IsChecksumAddress reports whether the input carries a valid EIP-55
// checksum. All-lower and all-upper inputs count as unchecksummed but valid.
func IsChecksumAddress(input string) bool {
	norm := strings.TrimSpace(input)
	if !evmAddressPattern.MatchString(norm) {
		return false
	}
	body := norm[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(norm).Hex() == norm
}

func ParseTxHash(input string) (string, error) {
	norm := strings.TrimSpace(input)
	if !txHashPattern.MatchString(norm) {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid transaction hash: %s", input))
	}
	return strings.ToLower(norm), nil
}
