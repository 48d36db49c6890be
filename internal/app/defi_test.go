package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDefiLendingReportsOneRPCStatus(t *testing.T) {
	var probes int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		if req.Method != "eth_getCode" {
			t.Errorf("unexpected rpc method %s", req.Method)
		}
		atomic.AddInt32(&probes, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x6080604052",
		})
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run([]string{"defi", "lending", "--rpc-url", srv.URL, "--no-cache"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var env map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v output=%s", err, stdout.String())
	}

	meta, ok := env["meta"].(map[string]any)
	if !ok {
		t.Fatalf("missing meta: %s", stdout.String())
	}
	providers, ok := meta["providers"].([]any)
	if !ok || len(providers) != 1 {
		t.Fatalf("expected a single rpc provider status, got %v", meta["providers"])
	}
	status, ok := providers[0].(map[string]any)
	if !ok || status["name"] != "scroll-rpc" || status["status"] != "ok" {
		t.Fatalf("unexpected provider status: %v", providers[0])
	}

	markets, ok := env["data"].([]any)
	if !ok || len(markets) == 0 {
		t.Fatalf("expected lending markets, got %v", env["data"])
	}
	if got := int(atomic.LoadInt32(&probes)); got != len(markets) {
		t.Fatalf("expected one deployment probe per market, got %d probes for %d markets", got, len(markets))
	}
	for _, item := range markets {
		m, ok := item.(map[string]any)
		if !ok || m["deployed"] != true {
			t.Fatalf("expected deployed market, got %v", item)
		}
	}
}
