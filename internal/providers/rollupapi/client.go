package rollupapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/httpx"
	"github.com/scrollkit/scroll-cli/internal/model"
	"github.com/scrollkit/scroll-cli/internal/providers"
)

// Client talks to the Scroll rollup explorer API.
type Client struct {
	http *httpx.Client
	base string
}

func New(httpClient *httpx.Client, base string) *Client {
	return &Client{http: httpClient, base: strings.TrimRight(base, "/")}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "rollup-api",
		Type:        "rollup-explorer",
		RequiresKey: false,
		Capabilities: []string{
			"batch.list",
			"batch.get",
			"batch.indexes",
		},
	}
}

type batchEntry struct {
	Index          uint64  `json:"index"`
	Hash           string  `json:"hash"`
	RollupStatus   string  `json:"rollup_status"`
	CommitTxHash   string  `json:"commit_tx_hash"`
	CommittedAt    float64 `json:"committed_at"`
	FinalizeTxHash string  `json:"finalize_tx_hash"`
	FinalizedAt    float64 `json:"finalized_at"`
	StartBlock     uint64  `json:"start_block_number"`
	EndBlock       uint64  `json:"end_block_number"`
	TotalTxNum     uint64  `json:"total_tx_num"`
}

func (e batchEntry) toModel() model.BatchSummary {
	return model.BatchSummary{
		Index:           e.Index,
		Hash:            e.Hash,
		Status:          normalizeStatus(e.RollupStatus),
		RollupStatus:    e.RollupStatus,
		CommitTxHash:    e.CommitTxHash,
		CommittedAtUNIX: int64(e.CommittedAt),
		FinalizeTxHash:  e.FinalizeTxHash,
		FinalizedAtUNIX: int64(e.FinalizedAt),
		StartBlock:      e.StartBlock,
		EndBlock:        e.EndBlock,
		TotalTxCount:    e.TotalTxNum,
	}
}

// normalizeStatus folds the API's rollup states into the four statuses
// surfaced by the CLI.
func normalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "finalized":
		return "finalized"
	case "committed", "commit_failed":
		return "committed"
	case "skipped", "reverted":
		return "skipped"
	default:
		return "pending"
	}
}

func (c *Client) Batches(ctx context.Context, page, limit int) ([]model.BatchSummary, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(limit))
	endpoint := c.base + "/batches?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build batches request", err)
	}
	var resp struct {
		Batches []batchEntry `json:"batches"`
		Total   uint64       `json:"total"`
	}
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	out := make([]model.BatchSummary, 0, len(resp.Batches))
	for _, b := range resp.Batches {
		out = append(out, b.toModel())
	}
	return out, nil
}

func (c *Client) BatchByIndex(ctx context.Context, index uint64) (model.BatchSummary, error) {
	endpoint := c.base + "/batch?index=" + strconv.FormatUint(index, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.BatchSummary{}, clierr.Wrap(clierr.CodeInternal, "build batch request", err)
	}
	var resp struct {
		Batch *batchEntry `json:"batch"`
	}
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return model.BatchSummary{}, err
	}
	if resp.Batch == nil {
		return model.BatchSummary{}, clierr.New(clierr.CodeUnavailable, fmt.Sprintf("batch %d not found", index))
	}
	return resp.Batch.toModel(), nil
}

func (c *Client) LastBatchIndexes(ctx context.Context) (providers.LastBatchIndexes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/last_batch_indexes", nil)
	if err != nil {
		return providers.LastBatchIndexes{}, clierr.Wrap(clierr.CodeInternal, "build indexes request", err)
	}
	var resp struct {
		CommittedIndex uint64 `json:"committed_index"`
		FinalizedIndex uint64 `json:"finalized_index"`
	}
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return providers.LastBatchIndexes{}, err
	}
	return providers.LastBatchIndexes{
		CommittedIndex: resp.CommittedIndex,
		FinalizedIndex: resp.FinalizedIndex,
	}, nil
}
