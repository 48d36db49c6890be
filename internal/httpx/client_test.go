package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
)

func TestDoJSONRetriesServerError(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&count, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"backend restarting"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"1"}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 1)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	var out map[string]any
	if _, err := client.DoJSON(context.Background(), req, &out); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if out["status"] != "1" {
		t.Fatalf("unexpected response: %#v", out)
	}
	if atomic.LoadInt32(&count) != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", count)
	}
}

func TestDoJSONDoesNotRetryAuthFailure(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(2*time.Second, 3)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	_, err = client.DoJSON(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected auth error")
	}
	if cliErr, ok := clierr.As(err); !ok || cliErr.Code != clierr.CodeAuth {
		t.Fatalf("expected auth code, got %v", err)
	}
	if atomic.LoadInt32(&count) != 1 {
		t.Fatalf("auth failure must not retry, got %d attempts", count)
	}
}

func TestDoBodyJSONReplaysBodyAcrossRetries(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&count, 1)
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		if string(body) != `{"query":"{ badges { id } }"}` {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 2)
	var out map[string]any
	_, err := DoBodyJSON(context.Background(), client, http.MethodPost, srv.URL, []byte(`{"query":"{ badges { id } }"}`), nil, &out)
	if err != nil {
		t.Fatalf("DoBodyJSON failed: %v", err)
	}
	if _, ok := out["data"]; !ok {
		t.Fatalf("unexpected response: %#v", out)
	}
}
