package registry

// L2 predeploys shared by every Scroll network.
const (
	L1GasPriceOracleAddress = "0x5300000000000000000000000000000000000002"
	L2MessengerAddress      = "0x781e90f1c8Fc4611c9b7497C3B47F99Ef6969CbC"
	WETHAddress             = "0x5300000000000000000000000000000000000004"
	Multicall3Address       = "0xcA11bde05977b3631167028862bE2a173976CA11"
)

// ERC-4337 EntryPoint deployments (same address on every chain).
const (
	EntryPointV06Address = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"
	EntryPointV07Address = "0x0000000071727De22E5E9d8BAf0edAc6f37da032"
)

// BridgeContracts holds the canonical bridge contract pair for one Scroll
// network. L1-side addresses live on the settlement chain.
type BridgeContracts struct {
	L1ScrollChain   string
	L1MessageQueue  string
	L1Messenger     string
	L1GatewayRouter string
	L2GatewayRouter string
	L1ETHGateway    string
	L1ERC20Gateway  string
	L2ETHGateway    string
	L2ERC20Gateway  string
}

var bridgeByChainID = map[int64]BridgeContracts{
	534352: {
		L1ScrollChain:   "0xa13BAF47339d63B743e7Da8741db5456DAc1E556",
		L1MessageQueue:  "0x0d7E906BD9cAFa154b048cFa766Cc1E54E39AF9B",
		L1Messenger:     "0x6774Bcbd5ceCeF1336b5300fb5186a12DDD8b367",
		L1GatewayRouter: "0xF8B1378579659D8F7EE5f3C929c2f3E332E41Fd6",
		L2GatewayRouter: "0x4C0926FF5252A435FD19e10ED15e5a249Ba19d79",
		L1ETHGateway:    "0x7F2b8C31F88B6006c382775eea88297Ec1e3E905",
		L1ERC20Gateway:  "0xD8A791fE2bE73eb6E6cF1eb0cb3F36adC9B3F8f9",
		L2ETHGateway:    "0x6EA73e05AdC79974B931123675ea8F78FfdacDF0",
		L2ERC20Gateway:  "0xE2b4795039517653c5Ae8C2A9BFdd783b48f447A",
	},
	534351: {
		L1ScrollChain:   "0x2D567EcE699Eabe5afCd141eDB7A4f2D0D6ce8a0",
		L1MessageQueue:  "0xF0B2293F5D834eAe920c6974D50957A1732de763",
		L1Messenger:     "0x50c7d3e7f7c656493D1D76aaa1a836CedfCBB16A",
		L1GatewayRouter: "0x13FBE0D0e5552b8c9c4AE9e2435F38f37355998a",
		L2GatewayRouter: "0x9aD3c5617eCAa556d6E166787A97081907171230",
		L1ETHGateway:    "0x8A54A2347Da2562917304141ab67324615e9866d",
		L1ERC20Gateway:  "0x65D123d6389b900d954677c26327bfc1C3e88A13",
		L2ETHGateway:    "0x91e8ADDFe1358aCa5314c644312d38237fC1101C",
		L2ERC20Gateway:  "0xaDcA915971A336EA2f5b567e662F5bd74AEf9582",
	},
}

func BridgeContractsFor(chainID int64) (BridgeContracts, bool) {
	contracts, ok := bridgeByChainID[chainID]
	return contracts, ok
}

// Scroll Canvas profile registry (mainnet only).
var canvasProfileRegistryByChainID = map[int64]string{
	534352: "0xB23AF8707c442f59BDfC368612Bd8DbCca8a7a5a",
}

func CanvasProfileRegistry(chainID int64) (string, bool) {
	value, ok := canvasProfileRegistryByChainID[chainID]
	return value, ok
}

// DEXRouter describes a known DEX deployment on a Scroll network.
type DEXRouter struct {
	Name    string
	Router  string
	Factory string
	Kind    string
}

var dexByChainID = map[int64][]DEXRouter{
	534352: {
		{Name: "syncswap", Router: "0x80e38291e06339d10AAB483C65695D004dBD5C69", Factory: "0x37BAc764494c8db4e54BDE72f6965beA9fa0AC2d", Kind: "stable-classic"},
		{Name: "zebra", Router: "0x0122960d6e391478bfE8fB2408Ba412D5600f621", Factory: "0xa63eb44c67813cad20A9aE654641ddc918412eb0", Kind: "uniswap-v2"},
	},
}

func DEXRouters(chainID int64) []DEXRouter {
	return dexByChainID[chainID]
}

// LendingMarket describes a known lending pool deployment.
type LendingMarket struct {
	Name string
	Pool string
	Kind string
}

var lendingByChainID = map[int64][]LendingMarket{
	534352: {
		{Name: "aave-v3", Pool: "0x11fCfe756c05AD438e312a7fd934381537D3cFfe", Kind: "aave-v3"},
		{Name: "layerbank", Pool: "0xEC53c830f4444a8A56455c6836b5D2aA794289Aa", Kind: "compound-like"},
	},
}

func LendingMarkets(chainID int64) []LendingMarket {
	return lendingByChainID[chainID]
}
