package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/httpx"
	"github.com/scrollkit/scroll-cli/internal/model"
)

// Client executes GraphQL queries against a configured subgraph.
type Client struct {
	http     *httpx.Client
	endpoint string
}

func New(httpClient *httpx.Client, endpoint string) *Client {
	return &Client{http: httpClient, endpoint: strings.TrimSpace(endpoint)}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:         "subgraph",
		Type:         "graphql",
		RequiresKey:  false,
		Capabilities: []string{"subgraph.query"},
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (model.SubgraphResult, error) {
	if c.endpoint == "" {
		return model.SubgraphResult{}, clierr.New(clierr.CodeUsage, "no subgraph endpoint configured; set subgraph_url or SCROLL_SUBGRAPH_URL")
	}
	if strings.TrimSpace(query) == "" {
		return model.SubgraphResult{}, clierr.New(clierr.CodeUsage, "empty graphql query")
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return model.SubgraphResult{}, clierr.Wrap(clierr.CodeInternal, "encode graphql request", err)
	}
	var resp graphQLResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.endpoint, body, nil, &resp); err != nil {
		return model.SubgraphResult{}, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return model.SubgraphResult{}, clierr.New(clierr.CodeUnavailable, "graphql errors: "+strings.Join(msgs, "; "))
	}
	var data any
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return model.SubgraphResult{}, clierr.Wrap(clierr.CodeUnavailable, "decode graphql data", err)
		}
	}
	return model.SubgraphResult{Endpoint: c.endpoint, Data: data}, nil
}
