package bundler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scrollkit/scroll-cli/internal/httpx"
)

func rpcServer(t *testing.T, handler func(method string, params []json.RawMessage) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(buf, &req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}
		_, _ = w.Write([]byte(handler(req.Method, req.Params)))
	}))
}

func TestSupportedEntryPoints(t *testing.T) {
	srv := rpcServer(t, func(method string, _ []json.RawMessage) string {
		if method != "eth_supportedEntryPoints" {
			t.Fatalf("unexpected method %q", method)
		}
		return `{"jsonrpc":"2.0","id":1,"result":["0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"]}`
	})
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	eps, err := c.SupportedEntryPoints(context.Background())
	if err != nil {
		t.Fatalf("SupportedEntryPoints failed: %v", err)
	}
	if len(eps) != 1 {
		t.Fatalf("expected 1 entrypoint, got %d", len(eps))
	}
}

func TestEstimateUserOperationGas(t *testing.T) {
	srv := rpcServer(t, func(method string, params []json.RawMessage) string {
		if method != "eth_estimateUserOperationGas" || len(params) != 2 {
			t.Fatalf("unexpected call %q with %d params", method, len(params))
		}
		return `{"jsonrpc":"2.0","id":1,"result":{"preVerificationGas":"0xb000","verificationGasLimit":"0x186a0","callGasLimit":"0x5208"}}`
	})
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	got, err := c.EstimateUserOperationGas(context.Background(),
		map[string]any{"sender": "0x1111111111111111111111111111111111111111"},
		"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	if err != nil {
		t.Fatalf("EstimateUserOperationGas failed: %v", err)
	}
	if got.CallGasLimit != "0x5208" || got.EntryPoint == "" {
		t.Fatalf("unexpected estimate: %+v", got)
	}
}

func TestUserOperationByHashNotFound(t *testing.T) {
	srv := rpcServer(t, func(_ string, _ []json.RawMessage) string {
		return `{"jsonrpc":"2.0","id":1,"result":null}`
	})
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	got, err := c.UserOperationByHash(context.Background(), "0xAB")
	if err != nil {
		t.Fatalf("UserOperationByHash failed: %v", err)
	}
	if got.Found {
		t.Fatal("expected not-found status")
	}
	if got.UserOpHash != "0xab" {
		t.Fatalf("expected lowercased hash, got %q", got.UserOpHash)
	}
}

func TestUserOperationReceipt(t *testing.T) {
	srv := rpcServer(t, func(_ string, _ []json.RawMessage) string {
		return `{"jsonrpc":"2.0","id":1,"result":{
			"sender":"0x1111111111111111111111111111111111111111",
			"nonce":"0x1",
			"entryPoint":"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
			"success":true,
			"actualGasUsed":"0x5208",
			"actualGasCost":"0x2540be400",
			"receipt":{"transactionHash":"0xCC","blockNumber":"0x12c"}
		}}`
	})
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	got, err := c.UserOperationReceipt(context.Background(), "0xab")
	if err != nil {
		t.Fatalf("UserOperationReceipt failed: %v", err)
	}
	if !got.Found || !got.Success {
		t.Fatalf("unexpected status: %+v", got)
	}
	if got.TxHash != "0xcc" || got.BlockNumber != 300 {
		t.Fatalf("unexpected receipt mapping: %+v", got)
	}
}

func TestRPCErrorMapped(t *testing.T) {
	srv := rpcServer(t, func(_ string, _ []json.RawMessage) string {
		return `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid user operation"}}`
	})
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	if _, err := c.SendUserOperation(context.Background(), map[string]any{}, "0x"); err == nil {
		t.Fatal("expected rpc error")
	}
}

func TestMissingEndpoint(t *testing.T) {
	c := New(httpx.New(2*time.Second, 0), "")
	if _, err := c.SupportedEntryPoints(context.Background()); err == nil {
		t.Fatal("expected usage error for missing endpoint")
	}
}
