package app

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/cobra"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
)

func (s *runtimeState) blockSummary(block *types.Block, includeTxs bool) model.BlockSummary {
	summary := model.BlockSummary{
		Number:           block.NumberU64(),
		Hash:             block.Hash().Hex(),
		ParentHash:       block.ParentHash().Hex(),
		ChainID:          s.chain.CAIP2,
		TimestampUNIX:    int64(block.Time()),
		Miner:            block.Coinbase().Hex(),
		GasUsed:          block.GasUsed(),
		GasLimit:         block.GasLimit(),
		TransactionCount: len(block.Transactions()),
		SizeBytes:        block.Size(),
	}
	if baseFee := block.BaseFee(); baseFee != nil {
		summary.BaseFeePerGas = baseFee.String()
	}
	if includeTxs {
		hashes := make([]string, 0, len(block.Transactions()))
		for _, tx := range block.Transactions() {
			hashes = append(hashes, strings.ToLower(tx.Hash().Hex()))
		}
		summary.TransactionList = hashes
	}
	return summary
}

func (s *runtimeState) newBlockCommand() *cobra.Command {
	root := &cobra.Command{Use: "block", Short: "Blocks"}

	var getNumber int64
	var getHash string
	var getFinalized, getFull bool
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Block by number, hash, finalized tag, or latest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if getHash != "" && getNumber >= 0 {
				return clierr.New(clierr.CodeUsage, "pass either --number or --hash, not both")
			}
			req := map[string]any{"number": getNumber, "hash": getHash, "finalized": getFinalized, "full": getFull, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlChainState, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				var block *types.Block
				switch {
				case getHash != "":
					block, err = client.BlockByHash(ctx, common.HexToHash(getHash))
				case getFinalized:
					block, err = client.BlockByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
				case getNumber >= 0:
					block, err = client.BlockByNumber(ctx, big.NewInt(getNumber))
				default:
					block, err = client.BlockByNumber(ctx, nil)
				}
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, wrapNotFound(err, "block")
				}
				return s.blockSummary(block, getFull), status, nil, false, nil
			})
		},
	}
	getCmd.Flags().Int64Var(&getNumber, "number", -1, "Block number (-1 = latest)")
	getCmd.Flags().StringVar(&getHash, "hash", "", "Block hash")
	getCmd.Flags().BoolVar(&getFinalized, "finalized", false, "Fetch the finalized head")
	getCmd.Flags().BoolVar(&getFull, "full", false, "Include transaction hashes")
	root.AddCommand(getCmd)

	var txsNumber int64
	var txsLimit int
	txsCmd := &cobra.Command{
		Use:   "txs",
		Short: "Transactions in a block",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"number": txsNumber, "limit": txsLimit, "chain": s.chain.CAIP2}
			key := cacheKey(trimRootPath(cmd.CommandPath()), req)
			return s.runCachedCommand(trimRootPath(cmd.CommandPath()), key, ttlListing, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				client, err := s.l2(ctx)
				if err != nil {
					return nil, nil, nil, false, err
				}
				start := time.Now()
				var number *big.Int
				if txsNumber >= 0 {
					number = big.NewInt(txsNumber)
				}
				block, err := client.BlockByNumber(ctx, number)
				status := rpcStatus(rpcProviderName, start, err)
				if err != nil {
					return nil, status, nil, false, wrapNotFound(err, "block")
				}
				head, _ := client.BlockNumber(ctx)
				txs := block.Transactions()
				if txsLimit > 0 && len(txs) > txsLimit {
					txs = txs[:txsLimit]
				}
				summaries := make([]model.TransactionSummary, 0, len(txs))
				for _, tx := range txs {
					summary := s.txToSummary(tx, false, head, block.NumberU64(), block.Hash().Hex())
					summary.TimestampUNIX = int64(block.Time())
					summaries = append(summaries, summary)
				}
				return summaries, status, nil, false, nil
			})
		},
	}
	txsCmd.Flags().Int64Var(&txsNumber, "number", -1, "Block number (-1 = latest)")
	txsCmd.Flags().IntVar(&txsLimit, "limit", 0, "Maximum transactions to return (0 = all)")
	root.AddCommand(txsCmd)

	return root
}
