package watch

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/scrollkit/scroll-cli/internal/model"
)

type fakeClient struct {
	head      uint64
	finalized uint64
	logs      []types.Log
	receipts  map[common.Hash]*types.Receipt
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	n := number
	if n != nil && n.Sign() < 0 {
		n = new(big.Int).SetUint64(f.finalized)
	}
	return &types.Header{Number: new(big.Int).Set(n), Time: 1717000000}, nil
}

func (f *fakeClient) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	header := &types.Header{Number: new(big.Int).Set(number), Time: 1717000000}
	return types.NewBlockWithHeader(header), nil
}

func (f *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	out := make([]types.Log, 0)
	for _, lg := range f.logs {
		if lg.BlockNumber < q.FromBlock.Uint64() || lg.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func testPoller(t *testing.T, spec Spec, client ChainClient) *Poller {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "watch.db"), filepath.Join(dir, "watch.lock"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewPoller(spec, store, client)
}

func TestFirstPollSeedsAndEmitsNothing(t *testing.T) {
	client := &fakeClient{head: 100}
	p := testPoller(t, Spec{Kind: KindNewBlock, ChainID: 534352}, client)

	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events on seed poll, got %d", len(events))
	}

	client.head = 103
	events, err = p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("second PollOnce failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 new-block events, got %d", len(events))
	}
	if events[0].BlockNumber != 101 || events[2].BlockNumber != 103 {
		t.Fatalf("unexpected block range: %+v", events)
	}
}

func TestPollRangeClampsToWindow(t *testing.T) {
	client := &fakeClient{head: 100}
	p := testPoller(t, Spec{Kind: KindNewBlock, ChainID: 534352, Window: 5}, client)

	if _, err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("seed poll failed: %v", err)
	}
	client.head = 200
	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events (window clamp), got %d", len(events))
	}
	// Next poll continues from the clamped cursor.
	events, err = p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("third PollOnce failed: %v", err)
	}
	if len(events) != 5 || events[0].BlockNumber != 106 {
		t.Fatalf("expected continuation from block 106, got %+v", events)
	}
}

func TestTokenTransferWatch(t *testing.T) {
	token := common.HexToAddress("0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4")
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	client := &fakeClient{
		head: 100,
		logs: []types.Log{{
			Address:     token,
			BlockNumber: 101,
			TxHash:      common.HexToHash("0xaa"),
			Topics: []common.Hash{
				transferTopic,
				common.BytesToHash(from.Bytes()),
				common.BytesToHash(to.Bytes()),
			},
			Data: common.LeftPadBytes(big.NewInt(123456).Bytes(), 32),
		}},
	}
	p := testPoller(t, Spec{
		Kind:     KindTokenTransfer,
		ChainID:  534352,
		Contract: token.Hex(),
		Address:  from.Hex(),
	}, client)

	if _, err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("seed poll failed: %v", err)
	}
	client.head = 105
	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 transfer event, got %d", len(events))
	}
	transfer, ok := events[0].Data.(model.TokenTransfer)
	if !ok {
		t.Fatalf("unexpected event data: %+v", events[0])
	}
	if transfer.Amount.AmountBaseUnits != "123456" || transfer.Standard != "erc20" {
		t.Fatalf("unexpected transfer: %+v", transfer)
	}
}

func TestNFTTransferWatchSkipsERC20Logs(t *testing.T) {
	contract := common.HexToAddress("0x3333333333333333333333333333333333333333")
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	client := &fakeClient{
		head: 100,
		logs: []types.Log{
			{
				// ERC-20 shape: 3 topics, value in data
				Address:     contract,
				BlockNumber: 101,
				TxHash:      common.HexToHash("0xaa"),
				Topics: []common.Hash{
					transferTopic,
					common.BytesToHash(from.Bytes()),
					common.BytesToHash(to.Bytes()),
				},
				Data: common.LeftPadBytes(big.NewInt(5).Bytes(), 32),
			},
			{
				// ERC-721 shape: tokenId as 4th topic
				Address:     contract,
				BlockNumber: 102,
				TxHash:      common.HexToHash("0xbb"),
				Topics: []common.Hash{
					transferTopic,
					common.BytesToHash(from.Bytes()),
					common.BytesToHash(to.Bytes()),
					common.BigToHash(big.NewInt(42)),
				},
			},
		},
	}
	p := testPoller(t, Spec{Kind: KindNFTTransfer, ChainID: 534352, Contract: contract.Hex()}, client)

	if _, err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("seed poll failed: %v", err)
	}
	client.head = 110
	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 1 || events[0].BlockNumber != 102 {
		t.Fatalf("expected only the erc721 log, got %+v", events)
	}
}

func TestTxConfirmedEmitsOnce(t *testing.T) {
	txHash := common.HexToHash("0xcc")
	client := &fakeClient{
		head: 110,
		receipts: map[common.Hash]*types.Receipt{
			txHash: {
				Status:      types.ReceiptStatusSuccessful,
				BlockNumber: big.NewInt(105),
			},
		},
	}
	p := testPoller(t, Spec{
		Kind:          KindTxConfirmed,
		ChainID:       534352,
		TxHash:        txHash.Hex(),
		Confirmations: 3,
	}, client)

	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 confirmation event, got %d", len(events))
	}
	if events[0].BlockNumber != 105 {
		t.Fatalf("unexpected event: %+v", events[0])
	}

	// Second poll must not re-emit.
	events, err = p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("second PollOnce failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no repeat emission, got %d", len(events))
	}
}

func TestTxConfirmedWaitsForDepth(t *testing.T) {
	txHash := common.HexToHash("0xcc")
	client := &fakeClient{
		head: 105,
		receipts: map[common.Hash]*types.Receipt{
			txHash: {
				Status:      types.ReceiptStatusSuccessful,
				BlockNumber: big.NewInt(105),
			},
		},
	}
	p := testPoller(t, Spec{
		Kind:          KindTxConfirmed,
		ChainID:       534352,
		TxHash:        txHash.Hex(),
		Confirmations: 5,
	}, client)

	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("expected no event before confirmation depth")
	}

	client.head = 109
	events, err = p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("second PollOnce failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected event at depth 5, got %d", len(events))
	}
}

func TestFinalizedBlockWatch(t *testing.T) {
	client := &fakeClient{head: 200, finalized: 150}
	p := testPoller(t, Spec{Kind: KindFinalizedBlock, ChainID: 534352}, client)

	if events, err := p.PollOnce(context.Background()); err != nil || len(events) != 0 {
		t.Fatalf("expected silent seed poll, got events=%d err=%v", len(events), err)
	}
	client.finalized = 160
	events, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if len(events) != 1 || events[0].BlockNumber != 160 {
		t.Fatalf("unexpected finalized event: %+v", events)
	}
}

func TestSpecValidate(t *testing.T) {
	if err := (Spec{Kind: "bogus"}).Validate(); err == nil {
		t.Fatal("expected unknown kind error")
	}
	if err := (Spec{Kind: KindTxConfirmed}).Validate(); err == nil {
		t.Fatal("expected missing tx error")
	}
	if err := (Spec{Kind: KindTokenTransfer}).Validate(); err == nil {
		t.Fatal("expected missing contract error")
	}
	if err := (Spec{Kind: KindLargeTx}).Validate(); err == nil {
		t.Fatal("expected missing threshold error")
	}
	if err := (Spec{Kind: KindNewBlock}).Validate(); err != nil {
		t.Fatalf("expected new-block spec to validate: %v", err)
	}
}

func TestSpecIDStableAndDistinct(t *testing.T) {
	a := Spec{Kind: KindTokenTransfer, ChainID: 534352, Contract: "0xAAA"}
	b := Spec{Kind: KindTokenTransfer, ChainID: 534352, Contract: "0xaaa"}
	if a.ID() != b.ID() {
		t.Fatal("expected case-insensitive id match")
	}
	c := Spec{Kind: KindTokenTransfer, ChainID: 534351, Contract: "0xaaa"}
	if a.ID() == c.ID() {
		t.Fatal("expected distinct ids per chain")
	}
}

func TestDecodeBridgeLog(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	lg := types.Log{
		TxHash:      common.HexToHash("0xdd"),
		BlockNumber: 55,
		Topics: []common.Hash{
			withdrawETHTopic,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: common.LeftPadBytes(big.NewInt(7).Bytes(), 32),
	}
	msg, ok := decodeBridgeLog(lg, "withdraw")
	if !ok {
		t.Fatal("expected decodable withdraw log")
	}
	if msg.Amount.AmountBaseUnits != "7" || msg.TokenSymbol != "ETH" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Direction != "withdraw" || msg.Status != "pending" {
		t.Fatalf("unexpected direction/status: %+v", msg)
	}
}
