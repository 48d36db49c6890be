package registry

// ABI fragments used by contract reads/writes and log decoding.
const (
	ERC20ABI = `[
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
		{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"name":"Transfer","type":"event","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
		{"name":"Approval","type":"event","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
	]`

	ERC721ABI = `[
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"tokenURI","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"safeTransferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
		{"name":"Transfer","type":"event","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}]}
	]`

	ERC1155ABI = `[
		{"name":"uri","type":"function","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"safeTransferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
		{"name":"TransferSingle","type":"event","anonymous":false,"inputs":[{"name":"operator","type":"address","indexed":true},{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"id","type":"uint256","indexed":false},{"name":"value","type":"uint256","indexed":false}]}
	]`

	// ScrollChain lives on L1 and tracks batch commitment/finalization.
	ScrollChainABI = `[
		{"name":"lastFinalizedBatchIndex","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"isBatchFinalized","type":"function","stateMutability":"view","inputs":[{"name":"batchIndex","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
		{"name":"committedBatches","type":"function","stateMutability":"view","inputs":[{"name":"batchIndex","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"finalizedStateRoots","type":"function","stateMutability":"view","inputs":[{"name":"batchIndex","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"withdrawRoots","type":"function","stateMutability":"view","inputs":[{"name":"batchIndex","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"CommitBatch","type":"event","anonymous":false,"inputs":[{"name":"batchIndex","type":"uint256","indexed":true},{"name":"batchHash","type":"bytes32","indexed":true}]},
		{"name":"FinalizeBatch","type":"event","anonymous":false,"inputs":[{"name":"batchIndex","type":"uint256","indexed":true},{"name":"batchHash","type":"bytes32","indexed":true},{"name":"stateRoot","type":"bytes32","indexed":false},{"name":"withdrawRoot","type":"bytes32","indexed":false}]},
		{"name":"RevertBatch","type":"event","anonymous":false,"inputs":[{"name":"batchIndex","type":"uint256","indexed":true},{"name":"batchHash","type":"bytes32","indexed":true}]}
	]`

	// L1GasPriceOracle predeploy exposes the rollup data-fee parameters.
	L1GasPriceOracleABI = `[
		{"name":"l1BaseFee","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"overhead","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"scalar","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"getL1Fee","type":"function","stateMutability":"view","inputs":[{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"getL1GasUsed","type":"function","stateMutability":"view","inputs":[{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"uint256"}]}
	]`

	GatewayRouterABI = `[
		{"name":"depositETH","type":"function","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"gasLimit","type":"uint256"}],"outputs":[]},
		{"name":"depositERC20","type":"function","stateMutability":"payable","inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"gasLimit","type":"uint256"}],"outputs":[]},
		{"name":"withdrawETH","type":"function","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"gasLimit","type":"uint256"}],"outputs":[]},
		{"name":"withdrawERC20","type":"function","stateMutability":"payable","inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"gasLimit","type":"uint256"}],"outputs":[]},
		{"name":"getL2ERC20Address","type":"function","stateMutability":"view","inputs":[{"name":"l1Token","type":"address"}],"outputs":[{"name":"","type":"address"}]}
	]`

	Multicall3ABI = `[
		{"name":"aggregate3","type":"function","stateMutability":"payable","inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}]}],"outputs":[{"name":"returnData","type":"tuple[]","components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}]}]},
		{"name":"getBlockNumber","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"blockNumber","type":"uint256"}]}
	]`

	EntryPointABI = `[
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"getNonce","type":"function","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]},
		{"name":"depositTo","type":"function","stateMutability":"payable","inputs":[{"name":"account","type":"address"}],"outputs":[]}
	]`

	CanvasProfileRegistryABI = `[
		{"name":"getProfile","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"isProfileMinted","type":"function","stateMutability":"view","inputs":[{"name":"profile","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
	]`

	CanvasProfileABI = `[
		{"name":"username","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"getAttachedBadges","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32[]"}]}
	]`

	UniswapV2FactoryABI = `[
		{"name":"getPair","type":"function","stateMutability":"view","inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"outputs":[{"name":"","type":"address"}]}
	]`

	UniswapV2PairABI = `[
		{"name":"token0","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"token1","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"getReserves","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]}
	]`
)
