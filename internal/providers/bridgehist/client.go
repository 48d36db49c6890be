package bridgehist

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/httpx"
	"github.com/scrollkit/scroll-cli/internal/model"
)

// Client talks to the Scroll bridge history API.
type Client struct {
	http *httpx.Client
	base string
}

func New(httpClient *httpx.Client, base string) *Client {
	return &Client{http: httpClient, base: strings.TrimRight(base, "/")}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "bridge-history",
		Type:        "bridge",
		RequiresKey: false,
		Capabilities: []string{
			"bridge.history",
			"bridge.claimable",
		},
	}
}

// Message tx_status values used by the bridge history service.
const (
	txStatusSent          = 0
	txStatusSentFailed    = 1
	txStatusRelayed       = 2
	txStatusFailedRelayed = 3
	txStatusSkipped       = 5
	txStatusDropped       = 6
)

type counterpartTx struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"block_number"`
}

type claimInfo struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Value   string `json:"value"`
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
	Proof   struct {
		BatchIndex  string `json:"batch_index"`
		MerkleProof string `json:"merkle_proof"`
	} `json:"proof"`
	Claimable bool `json:"claimable"`
}

type historyEntry struct {
	Hash           string        `json:"hash"`
	MessageHash    string        `json:"message_hash"`
	Amount         string        `json:"amount"`
	To             string        `json:"to"`
	IsL1           bool          `json:"is_l1"`
	L1Token        string        `json:"l1_token"`
	L2Token        string        `json:"l2_token"`
	TokenType      int           `json:"token_type"`
	BlockNumber    uint64        `json:"block_number"`
	BlockTimestamp int64         `json:"block_timestamp"`
	TxStatus       int           `json:"tx_status"`
	Counterpart    counterpartTx `json:"counterpart_chain_tx"`
	ClaimInfo      *claimInfo    `json:"claim_info"`
}

func (e historyEntry) toModel() model.BridgeMessage {
	direction := "withdraw"
	tokenAddr := e.L2Token
	if e.IsL1 {
		direction = "deposit"
		tokenAddr = e.L1Token
	}
	msg := model.BridgeMessage{
		MessageHash:   e.MessageHash,
		TxHash:        strings.ToLower(e.Hash),
		Direction:     direction,
		To:            e.To,
		TokenAddress:  tokenAddr,
		Amount:        model.AmountInfo{AmountBaseUnits: orZero(e.Amount)},
		Status:        statusLabel(e.TxStatus),
		BlockNumber:   e.BlockNumber,
		TimestampUNIX: e.BlockTimestamp,
	}
	if e.Counterpart.Hash != "" {
		msg.CounterpartTx = strings.ToLower(e.Counterpart.Hash)
	}
	if e.ClaimInfo != nil {
		msg.ClaimReady = e.ClaimInfo.Claimable
		if e.ClaimInfo.From != "" {
			msg.From = e.ClaimInfo.From
		}
	}
	return msg
}

func statusLabel(status int) string {
	switch status {
	case txStatusSent:
		return "pending"
	case txStatusSentFailed:
		return "failed"
	case txStatusRelayed:
		return "relayed"
	case txStatusFailedRelayed:
		return "relay-failed"
	case txStatusSkipped:
		return "skipped"
	case txStatusDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

type historyResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	Data    struct {
		Results []historyEntry `json:"results"`
		Total   uint64         `json:"total"`
	} `json:"data"`
}

func (c *Client) fetch(ctx context.Context, path, address string, page, limit int) ([]model.BridgeMessage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("address", address)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(limit))
	endpoint := c.base + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build bridge history request", err)
	}
	var resp historyResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.ErrCode != 0 {
		return nil, clierr.New(clierr.CodeUnavailable, "bridge history error: "+resp.ErrMsg)
	}
	out := make([]model.BridgeMessage, 0, len(resp.Data.Results))
	for _, e := range resp.Data.Results {
		out = append(out, e.toModel())
	}
	return out, nil
}

func (c *Client) Transactions(ctx context.Context, address string, page, limit int) ([]model.BridgeMessage, error) {
	return c.fetch(ctx, "/txsbyaddress", address, page, limit)
}

func (c *Client) ClaimableWithdrawals(ctx context.Context, address string, page, limit int) ([]model.BridgeMessage, error) {
	messages, err := c.fetch(ctx, "/l2/unclaimed/withdrawals", address, page, limit)
	if err != nil {
		return nil, err
	}
	out := messages[:0]
	for _, m := range messages {
		if m.Direction == "withdraw" {
			out = append(out, m)
		}
	}
	return out, nil
}

func orZero(v string) string {
	if strings.TrimSpace(v) == "" {
		return "0"
	}
	return v
}
