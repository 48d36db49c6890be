package watch

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/registry"
)

// ChainClient is the slice of the ethclient surface the poller needs.
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Event topics matched by the bridge and transfer watches.
var (
	transferTopic             = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	transferSingleTopic       = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
	finalizeDepositETHTopic   = crypto.Keccak256Hash([]byte("FinalizeDepositETH(address,address,uint256,bytes)"))
	finalizeDepositERC20Topic = crypto.Keccak256Hash([]byte("FinalizeDepositERC20(address,address,address,address,uint256,bytes)"))
	withdrawETHTopic          = crypto.Keccak256Hash([]byte("WithdrawETH(address,address,uint256,bytes)"))
	withdrawERC20Topic        = crypto.Keccak256Hash([]byte("WithdrawERC20(address,address,address,address,uint256,bytes)"))
)

const defaultWindow = 1000

// Poller drives one watch: it reads the cursor, scans the new block
// range, and advances the cursor. The first poll only seeds the cursor.
type Poller struct {
	spec   Spec
	store  *Store
	client ChainClient
	now    func() time.Time
}

func NewPoller(spec Spec, store *Store, client ChainClient) *Poller {
	if spec.Window == 0 {
		spec.Window = defaultWindow
	}
	if spec.Confirmations == 0 {
		spec.Confirmations = 1
	}
	return &Poller{spec: spec, store: store, client: client, now: time.Now}
}

func (p *Poller) Spec() Spec { return p.spec }

// PollOnce runs a single poll cycle and returns the events it emitted.
func (p *Poller) PollOnce(ctx context.Context) ([]model.WatchEvent, error) {
	if err := p.spec.Validate(); err != nil {
		return nil, err
	}
	switch p.spec.Kind {
	case KindTxConfirmed:
		return p.pollTxConfirmed(ctx)
	case KindFinalizedBlock:
		return p.pollFinalizedBlock(ctx)
	default:
		return p.pollRange(ctx)
	}
}

func (p *Poller) chainID() string {
	return "eip155:" + big.NewInt(p.spec.ChainID).String()
}

func (p *Poller) event(kind string, block uint64, txHash string, data any) model.WatchEvent {
	return model.WatchEvent{
		Kind:          kind,
		ChainID:       p.chainID(),
		BlockNumber:   block,
		TxHash:        txHash,
		TimestampUNIX: p.now().UTC().Unix(),
		Data:          data,
	}
}

func (p *Poller) pollRange(ctx context.Context) ([]model.WatchEvent, error) {
	head, err := p.client.BlockNumber(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read chain head", err)
	}
	cursor, seeded, err := p.store.Cursor(p.spec.ID())
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "read watch cursor", err)
	}
	if !seeded {
		if err := p.store.SaveCursor(p.spec.ID(), p.chainID(), p.spec.Kind, head); err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "seed watch cursor", err)
		}
		return nil, nil
	}
	if head <= cursor {
		return nil, nil
	}
	from := cursor + 1
	to := head
	if to-from+1 > p.spec.Window {
		to = from + p.spec.Window - 1
	}

	var events []model.WatchEvent
	switch p.spec.Kind {
	case KindNewBlock:
		events, err = p.scanNewBlocks(ctx, from, to)
	case KindTokenTransfer:
		events, err = p.scanTransfers(ctx, from, to, false)
	case KindNFTTransfer:
		events, err = p.scanTransfers(ctx, from, to, true)
	case KindContractEvent:
		events, err = p.scanContractEvents(ctx, from, to)
	case KindBridgeDeposit:
		events, err = p.scanBridgeLogs(ctx, from, to, true)
	case KindBridgeWithdraw:
		events, err = p.scanBridgeLogs(ctx, from, to, false)
	case KindBadgeMint:
		events, err = p.scanBadgeMints(ctx, from, to)
	case KindAddressActivity:
		events, err = p.scanBlocksForTxs(ctx, from, to, true)
	case KindLargeTx:
		events, err = p.scanBlocksForTxs(ctx, from, to, false)
	default:
		return nil, clierr.New(clierr.CodeInternal, "unhandled watch kind "+p.spec.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveCursor(p.spec.ID(), p.chainID(), p.spec.Kind, to); err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "advance watch cursor", err)
	}
	return events, nil
}

func (p *Poller) scanNewBlocks(ctx context.Context, from, to uint64) ([]model.WatchEvent, error) {
	events := make([]model.WatchEvent, 0, to-from+1)
	for n := from; n <= to; n++ {
		header, err := p.client.HeaderByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUnavailable, "fetch block header", err)
		}
		events = append(events, p.event(KindNewBlock, n, "", model.BlockSummary{
			Number:        n,
			Hash:          header.Hash().Hex(),
			ParentHash:    header.ParentHash.Hex(),
			ChainID:       p.chainID(),
			TimestampUNIX: int64(header.Time),
			Miner:         header.Coinbase.Hex(),
			GasUsed:       header.GasUsed,
			GasLimit:      header.GasLimit,
			BaseFeePerGas: bigString(header.BaseFee),
		}))
	}
	return events, nil
}

func (p *Poller) pollFinalizedBlock(ctx context.Context) ([]model.WatchEvent, error) {
	header, err := p.client.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read finalized head", err)
	}
	finalized := header.Number.Uint64()
	cursor, seeded, err := p.store.Cursor(p.spec.ID())
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "read watch cursor", err)
	}
	if !seeded {
		if err := p.store.SaveCursor(p.spec.ID(), p.chainID(), p.spec.Kind, finalized); err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "seed watch cursor", err)
		}
		return nil, nil
	}
	if finalized <= cursor {
		return nil, nil
	}
	event := p.event(KindFinalizedBlock, finalized, "", model.BlockSummary{
		Number:        finalized,
		Hash:          header.Hash().Hex(),
		ParentHash:    header.ParentHash.Hex(),
		ChainID:       p.chainID(),
		TimestampUNIX: int64(header.Time),
	})
	if err := p.store.SaveCursor(p.spec.ID(), p.chainID(), p.spec.Kind, finalized); err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "advance watch cursor", err)
	}
	return []model.WatchEvent{event}, nil
}

func (p *Poller) pollTxConfirmed(ctx context.Context) ([]model.WatchEvent, error) {
	cursor, _, err := p.store.Cursor(p.spec.ID())
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "read watch cursor", err)
	}
	if cursor > 0 {
		// Already emitted for this transaction.
		return nil, nil
	}
	receipt, err := p.client.TransactionReceipt(ctx, common.HexToHash(p.spec.TxHash))
	if err != nil || receipt == nil {
		return nil, nil
	}
	head, err := p.client.BlockNumber(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read chain head", err)
	}
	txBlock := receipt.BlockNumber.Uint64()
	if head < txBlock || head-txBlock+1 < p.spec.Confirmations {
		return nil, nil
	}
	status := "success"
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = "reverted"
	}
	event := p.event(KindTxConfirmed, txBlock, strings.ToLower(p.spec.TxHash), model.ReceiptSummary{
		Hash:        strings.ToLower(p.spec.TxHash),
		ChainID:     p.chainID(),
		BlockNumber: txBlock,
		Status:      status,
		GasUsed:     receipt.GasUsed,
		LogCount:    len(receipt.Logs),
	})
	if err := p.store.SaveCursor(p.spec.ID(), p.chainID(), p.spec.Kind, txBlock); err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "record emitted confirmation", err)
	}
	return []model.WatchEvent{event}, nil
}

func (p *Poller) scanTransfers(ctx context.Context, from, to uint64, nft bool) ([]model.WatchEvent, error) {
	topics := [][]common.Hash{{transferTopic}}
	if nft {
		topics = [][]common.Hash{{transferTopic, transferSingleTopic}}
	}
	logs, err := p.filterLogs(ctx, from, to, []common.Address{common.HexToAddress(p.spec.Contract)}, topics)
	if err != nil {
		return nil, err
	}
	watched := strings.ToLower(strings.TrimSpace(p.spec.Address))
	events := make([]model.WatchEvent, 0, len(logs))
	for _, lg := range logs {
		isNFTLog := lg.Topics[0] == transferSingleTopic ||
			(lg.Topics[0] == transferTopic && len(lg.Topics) == 4)
		if nft != isNFTLog {
			continue
		}
		transfer, ok := decodeTransferLog(lg)
		if !ok {
			continue
		}
		if watched != "" &&
			!strings.EqualFold(transfer.From, watched) &&
			!strings.EqualFold(transfer.To, watched) {
			continue
		}
		kind := KindTokenTransfer
		if nft {
			kind = KindNFTTransfer
		}
		events = append(events, p.event(kind, lg.BlockNumber, transfer.TxHash, transfer))
	}
	return events, nil
}

func decodeTransferLog(lg types.Log) (model.TokenTransfer, bool) {
	transfer := model.TokenTransfer{
		TxHash:       strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:  lg.BlockNumber,
		TokenAddress: lg.Address.Hex(),
	}
	switch {
	case lg.Topics[0] == transferTopic && len(lg.Topics) == 3:
		// ERC-20: value in data
		transfer.Standard = "erc20"
		transfer.From = common.HexToAddress(lg.Topics[1].Hex()).Hex()
		transfer.To = common.HexToAddress(lg.Topics[2].Hex()).Hex()
		transfer.Amount = model.AmountInfo{AmountBaseUnits: new(big.Int).SetBytes(lg.Data).String()}
	case lg.Topics[0] == transferTopic && len(lg.Topics) == 4:
		// ERC-721: tokenId indexed
		transfer.Standard = "erc721"
		transfer.From = common.HexToAddress(lg.Topics[1].Hex()).Hex()
		transfer.To = common.HexToAddress(lg.Topics[2].Hex()).Hex()
		transfer.TokenID = new(big.Int).SetBytes(lg.Topics[3].Bytes()).String()
		transfer.Amount = model.AmountInfo{AmountBaseUnits: "1"}
	case lg.Topics[0] == transferSingleTopic && len(lg.Topics) == 4 && len(lg.Data) >= 64:
		transfer.Standard = "erc1155"
		transfer.From = common.HexToAddress(lg.Topics[2].Hex()).Hex()
		transfer.To = common.HexToAddress(lg.Topics[3].Hex()).Hex()
		transfer.TokenID = new(big.Int).SetBytes(lg.Data[:32]).String()
		transfer.Amount = model.AmountInfo{AmountBaseUnits: new(big.Int).SetBytes(lg.Data[32:64]).String()}
	default:
		return model.TokenTransfer{}, false
	}
	return transfer, true
}

func (p *Poller) scanContractEvents(ctx context.Context, from, to uint64) ([]model.WatchEvent, error) {
	var topics [][]common.Hash
	if strings.TrimSpace(p.spec.Topic) != "" {
		topics = [][]common.Hash{{common.HexToHash(p.spec.Topic)}}
	}
	logs, err := p.filterLogs(ctx, from, to, []common.Address{common.HexToAddress(p.spec.Contract)}, topics)
	if err != nil {
		return nil, err
	}
	events := make([]model.WatchEvent, 0, len(logs))
	for _, lg := range logs {
		events = append(events, p.event(KindContractEvent, lg.BlockNumber, strings.ToLower(lg.TxHash.Hex()), logToSummary(lg)))
	}
	return events, nil
}

func logToSummary(lg types.Log) model.LogSummary {
	topics := make([]string, 0, len(lg.Topics))
	for _, t := range lg.Topics {
		topics = append(topics, t.Hex())
	}
	return model.LogSummary{
		Address:     lg.Address.Hex(),
		Topics:      topics,
		Data:        "0x" + common.Bytes2Hex(lg.Data),
		BlockNumber: lg.BlockNumber,
		TxHash:      strings.ToLower(lg.TxHash.Hex()),
		LogIndex:    lg.Index,
		Removed:     lg.Removed,
	}
}

func (p *Poller) scanBridgeLogs(ctx context.Context, from, to uint64, deposit bool) ([]model.WatchEvent, error) {
	contracts, ok := registry.BridgeContractsFor(p.spec.ChainID)
	if !ok {
		return nil, clierr.New(clierr.CodeUsage, "bridge watches require a scroll network")
	}
	addresses := []common.Address{
		common.HexToAddress(contracts.L2ETHGateway),
		common.HexToAddress(contracts.L2ERC20Gateway),
	}
	topics := [][]common.Hash{{withdrawETHTopic, withdrawERC20Topic}}
	kind := KindBridgeWithdraw
	direction := "withdraw"
	if deposit {
		topics = [][]common.Hash{{finalizeDepositETHTopic, finalizeDepositERC20Topic}}
		kind = KindBridgeDeposit
		direction = "deposit"
	}
	logs, err := p.filterLogs(ctx, from, to, addresses, topics)
	if err != nil {
		return nil, err
	}
	watched := strings.ToLower(strings.TrimSpace(p.spec.Address))
	events := make([]model.WatchEvent, 0, len(logs))
	for _, lg := range logs {
		msg, ok := decodeBridgeLog(lg, direction)
		if !ok {
			continue
		}
		if watched != "" &&
			!strings.EqualFold(msg.From, watched) &&
			!strings.EqualFold(msg.To, watched) {
			continue
		}
		events = append(events, p.event(kind, lg.BlockNumber, msg.TxHash, msg))
	}
	return events, nil
}

func decodeBridgeLog(lg types.Log, direction string) (model.BridgeMessage, bool) {
	msg := model.BridgeMessage{
		TxHash:      strings.ToLower(lg.TxHash.Hex()),
		Direction:   direction,
		BlockNumber: lg.BlockNumber,
		Status:      "pending",
	}
	if direction == "deposit" {
		msg.Status = "relayed"
	}
	switch lg.Topics[0] {
	case finalizeDepositETHTopic, withdrawETHTopic:
		if len(lg.Topics) < 3 || len(lg.Data) < 32 {
			return model.BridgeMessage{}, false
		}
		msg.From = common.HexToAddress(lg.Topics[1].Hex()).Hex()
		msg.To = common.HexToAddress(lg.Topics[2].Hex()).Hex()
		msg.TokenSymbol = "ETH"
		msg.Amount = model.AmountInfo{
			AmountBaseUnits: new(big.Int).SetBytes(lg.Data[:32]).String(),
			Decimals:        18,
		}
	case finalizeDepositERC20Topic, withdrawERC20Topic:
		if len(lg.Topics) < 4 || len(lg.Data) < 64 {
			return model.BridgeMessage{}, false
		}
		msg.TokenAddress = common.HexToAddress(lg.Topics[2].Hex()).Hex()
		msg.From = common.HexToAddress(lg.Topics[3].Hex()).Hex()
		msg.To = common.BytesToAddress(lg.Data[12:32]).Hex()
		msg.Amount = model.AmountInfo{
			AmountBaseUnits: new(big.Int).SetBytes(lg.Data[32:64]).String(),
		}
	default:
		return model.BridgeMessage{}, false
	}
	return msg, true
}

func (p *Poller) scanBadgeMints(ctx context.Context, from, to uint64) ([]model.WatchEvent, error) {
	contract := strings.TrimSpace(p.spec.Contract)
	if contract == "" {
		var ok bool
		contract, ok = registry.CanvasProfileRegistry(p.spec.ChainID)
		if !ok {
			return nil, clierr.New(clierr.CodeUsage, "badge-mint watch requires --contract on this network")
		}
	}
	logs, err := p.filterLogs(ctx, from, to,
		[]common.Address{common.HexToAddress(contract)},
		[][]common.Hash{{transferTopic}, {common.Hash{}}}) // mint = transfer from zero
	if err != nil {
		return nil, err
	}
	watched := strings.ToLower(strings.TrimSpace(p.spec.Address))
	events := make([]model.WatchEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) != 4 {
			continue
		}
		transfer, ok := decodeTransferLog(lg)
		if !ok {
			continue
		}
		if watched != "" && !strings.EqualFold(transfer.To, watched) {
			continue
		}
		events = append(events, p.event(KindBadgeMint, lg.BlockNumber, transfer.TxHash, transfer))
	}
	return events, nil
}

func (p *Poller) scanBlocksForTxs(ctx context.Context, from, to uint64, activity bool) ([]model.WatchEvent, error) {
	var threshold *big.Int
	if !activity {
		var ok bool
		threshold, ok = new(big.Int).SetString(strings.TrimSpace(p.spec.ThresholdWei), 10)
		if !ok || threshold.Sign() < 0 {
			return nil, clierr.New(clierr.CodeUsage, "invalid --threshold-wei value")
		}
	}
	watched := strings.ToLower(strings.TrimSpace(p.spec.Address))
	chainSigner := types.LatestSignerForChainID(big.NewInt(p.spec.ChainID))

	var events []model.WatchEvent
	for n := from; n <= to; n++ {
		block, err := p.client.BlockByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUnavailable, "fetch block", err)
		}
		for _, tx := range block.Transactions() {
			sender := ""
			if addr, err := types.Sender(chainSigner, tx); err == nil {
				sender = addr.Hex()
			}
			toAddr := ""
			if tx.To() != nil {
				toAddr = tx.To().Hex()
			}
			if activity {
				if !strings.EqualFold(sender, watched) && !strings.EqualFold(toAddr, watched) {
					continue
				}
			} else if tx.Value().Cmp(threshold) < 0 {
				continue
			}
			kind := KindLargeTx
			if activity {
				kind = KindAddressActivity
			}
			events = append(events, p.event(kind, n, strings.ToLower(tx.Hash().Hex()), model.TransactionSummary{
				Hash:           strings.ToLower(tx.Hash().Hex()),
				ChainID:        p.chainID(),
				BlockNumber:    n,
				From:           sender,
				To:             toAddr,
				Nonce:          tx.Nonce(),
				ValueBaseUnits: tx.Value().String(),
				GasLimit:       tx.Gas(),
				Type:           tx.Type(),
				TimestampUNIX:  int64(block.Time()),
			}))
		}
	}
	return events, nil
}

func (p *Poller) filterLogs(ctx context.Context, from, to uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error) {
	logs, err := p.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
		Topics:    topics,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "filter logs", err)
	}
	out := logs[:0]
	for _, lg := range logs {
		if len(lg.Topics) == 0 || lg.Removed {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
