package subgraph

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

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(buf, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["query"] == "" {
			t.Fatal("expected query in request body")
		}
		_, _ = w.Write([]byte(`{"data":{"pairs":[{"id":"0xabc"}]}}`))
	}))
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	got, err := c.Query(context.Background(), `{ pairs { id } }`, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	data, ok := got.Data.(map[string]any)
	if !ok || data["pairs"] == nil {
		t.Fatalf("unexpected data: %+v", got.Data)
	}
}

func TestQueryGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"field missing"}]}`))
	}))
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL)
	if _, err := c.Query(context.Background(), `{ broken }`, nil); err == nil {
		t.Fatal("expected graphql error")
	}
}

func TestQueryMissingEndpoint(t *testing.T) {
	c := New(httpx.New(2*time.Second, 0), "")
	if _, err := c.Query(context.Background(), `{ pairs { id } }`, nil); err == nil {
		t.Fatal("expected usage error for missing endpoint")
	}
}
