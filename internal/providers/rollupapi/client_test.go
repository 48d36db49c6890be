package rollupapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scrollkit/scroll-cli/internal/httpx"
)

func TestBatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/batches", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Fatalf("unexpected per_page %q", got)
		}
		_, _ = w.Write([]byte(`{
			"batches":[
				{"index":100,"hash":"0xaa","rollup_status":"finalized","commit_tx_hash":"0xc1","committed_at":1717000000,"finalize_tx_hash":"0xf1","finalized_at":1717003600,"start_block_number":500,"end_block_number":600,"total_tx_num":1200},
				{"index":101,"hash":"0xbb","rollup_status":"committed","commit_tx_hash":"0xc2","committed_at":1717007200,"start_block_number":601,"end_block_number":700,"total_tx_num":900}
			],
			"total":102
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	batches, err := c.Batches(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Batches failed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].Status != "finalized" || batches[0].FinalizedAtUNIX != 1717003600 {
		t.Fatalf("unexpected first batch: %+v", batches[0])
	}
	if batches[1].Status != "committed" || batches[1].FinalizeTxHash != "" {
		t.Fatalf("unexpected second batch: %+v", batches[1])
	}
}

func TestBatchByIndexNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/batch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"batch":null}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	if _, err := c.BatchByIndex(context.Background(), 999999); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestLastBatchIndexes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/last_batch_indexes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"committed_index":2048,"finalized_index":2040}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	got, err := c.LastBatchIndexes(context.Background())
	if err != nil {
		t.Fatalf("LastBatchIndexes failed: %v", err)
	}
	if got.CommittedIndex != 2048 || got.FinalizedIndex != 2040 {
		t.Fatalf("unexpected indexes: %+v", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"finalized":    "finalized",
		"committed":    "committed",
		"skipped":      "skipped",
		"precommitted": "pending",
		"":             "pending",
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Fatalf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
