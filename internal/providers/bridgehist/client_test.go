package bridgehist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scrollkit/scroll-cli/internal/httpx"
)

const historyPayload = `{
	"errcode":0,
	"errmsg":"",
	"data":{
		"results":[
			{
				"hash":"0xDD01",
				"message_hash":"0xm1",
				"amount":"5000000000000000000",
				"to":"0x2222222222222222222222222222222222222222",
				"is_l1":true,
				"l1_token":"0x0000000000000000000000000000000000000000",
				"block_number":19000000,
				"block_timestamp":1717000000,
				"tx_status":2,
				"counterpart_chain_tx":{"hash":"0xEE02","block_number":120}
			},
			{
				"hash":"0xdd03",
				"message_hash":"0xm2",
				"amount":"1",
				"is_l1":false,
				"l2_token":"0x5300000000000000000000000000000000000004",
				"block_number":130,
				"block_timestamp":1717003600,
				"tx_status":0,
				"claim_info":{"from":"0x1111111111111111111111111111111111111111","claimable":true}
			}
		],
		"total":2
	}
}`

func TestTransactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/txsbyaddress", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got == "" {
			t.Fatal("expected address query parameter")
		}
		_, _ = w.Write([]byte(historyPayload))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	messages, err := c.Transactions(context.Background(), "0x1111111111111111111111111111111111111111", 1, 10)
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	deposit := messages[0]
	if deposit.Direction != "deposit" || deposit.Status != "relayed" {
		t.Fatalf("unexpected deposit: %+v", deposit)
	}
	if deposit.TxHash != "0xdd01" || deposit.CounterpartTx != "0xee02" {
		t.Fatalf("expected lowercased hashes, got %+v", deposit)
	}
	withdrawal := messages[1]
	if withdrawal.Direction != "withdraw" || withdrawal.Status != "pending" {
		t.Fatalf("unexpected withdrawal: %+v", withdrawal)
	}
	if !withdrawal.ClaimReady {
		t.Fatal("expected claimable withdrawal")
	}
}

func TestTransactionsErrorCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/txsbyaddress", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":40001,"errmsg":"invalid address","data":{}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	if _, err := c.Transactions(context.Background(), "bad", 1, 10); err == nil {
		t.Fatal("expected error from errcode")
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[int]string{
		0:  "pending",
		2:  "relayed",
		3:  "relay-failed",
		5:  "skipped",
		6:  "dropped",
		42: "unknown",
	}
	for in, want := range cases {
		if got := statusLabel(in); got != want {
			t.Fatalf("statusLabel(%d) = %q, want %q", in, got, want)
		}
	}
}
