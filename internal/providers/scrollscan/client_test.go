package scrollscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/httpx"
	"github.com/scrollkit/scroll-cli/internal/providers"
)

func TestAccountTransactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "txlist" {
			t.Fatalf("unexpected action %q", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Fatalf("expected api key on request, got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"status":"1",
			"message":"OK",
			"result":[{
				"hash":"0xABCDEF",
				"blockNumber":"1200300",
				"timeStamp":"1717000000",
				"from":"0x1111111111111111111111111111111111111111",
				"to":"0x2222222222222222222222222222222222222222",
				"value":"1000000000000000000",
				"nonce":"7",
				"gas":"21000",
				"gasPrice":"150000000",
				"gasUsed":"21000",
				"isError":"0",
				"txreceipt_status":"1",
				"input":"0xa9059cbb00000000"
			}]
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "test-key", 534352)
	items, err := c.AccountTransactions(context.Background(), providers.AccountHistoryRequest{
		Address:    "0x1111111111111111111111111111111111111111",
		Limit:      10,
		Descending: true,
	})
	if err != nil {
		t.Fatalf("AccountTransactions failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Hash != "0xabcdef" {
		t.Fatalf("expected lowercased hash, got %q", got.Hash)
	}
	if got.ChainID != "eip155:534352" {
		t.Fatalf("unexpected chain id %q", got.ChainID)
	}
	if got.BlockNumber != 1200300 || got.Status != "success" {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.InputSelector != "0xa9059cbb" {
		t.Fatalf("unexpected input selector %q", got.InputSelector)
	}
	if got.ValueBaseUnits != "1000000000000000000" {
		t.Fatalf("expected value kept as decimal string, got %q", got.ValueBaseUnits)
	}
}

func TestAccountTransactionsEmptyResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "", 534352)
	items, err := c.AccountTransactions(context.Background(), providers.AccountHistoryRequest{
		Address: "0x1111111111111111111111111111111111111111",
	})
	if err != nil {
		t.Fatalf("expected empty result to succeed, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestTokenTransfersUsesStandardAction(t *testing.T) {
	var gotAction string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("action")
		_, _ = w.Write([]byte(`{
			"status":"1","message":"OK",
			"result":[{
				"hash":"0xaa","blockNumber":"5","timeStamp":"1717000000",
				"from":"0x1111111111111111111111111111111111111111",
				"to":"0x2222222222222222222222222222222222222222",
				"contractAddress":"0x3333333333333333333333333333333333333333",
				"tokenName":"Nifty","tokenSymbol":"NFT","tokenID":"42"
			}]
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "", 534352)
	items, err := c.TokenTransfers(context.Background(), providers.TokenTransferRequest{
		Address:  "0x1111111111111111111111111111111111111111",
		Standard: "erc721",
	})
	if err != nil {
		t.Fatalf("TokenTransfers failed: %v", err)
	}
	if gotAction != "tokennfttx" {
		t.Fatalf("expected tokennfttx action, got %q", gotAction)
	}
	if len(items) != 1 || items[0].TokenID != "42" || items[0].Standard != "erc721" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Amount.AmountBaseUnits != "0" {
		t.Fatalf("expected zero amount for nft transfer, got %q", items[0].Amount.AmountBaseUnits)
	}
}

func TestContractABINotVerified(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Contract source code not verified"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "", 534352)
	if _, err := c.ContractABI(context.Background(), "0x1111111111111111111111111111111111111111"); err == nil {
		t.Fatal("expected error for unverified contract")
	}
}

func TestQueryRateLimitMapsToTypedError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "", 534352)
	_, err := c.AccountTransactions(context.Background(), providers.AccountHistoryRequest{
		Address: "0x1111111111111111111111111111111111111111",
	})
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	typed, ok := clierr.As(err)
	if !ok || typed.Code != clierr.CodeRateLimited {
		t.Fatalf("expected rate-limited error code, got %v", err)
	}
}
