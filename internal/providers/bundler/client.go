package bundler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	clierr "github.com/scrollkit/scroll-cli/internal/errors"
	"github.com/scrollkit/scroll-cli/internal/httpx"
	"github.com/scrollkit/scroll-cli/internal/model"
)

// Client speaks the ERC-4337 bundler JSON-RPC namespace.
type Client struct {
	http     *httpx.Client
	endpoint string
	nextID   atomic.Int64
}

func New(httpClient *httpx.Client, endpoint string) *Client {
	return &Client{http: httpClient, endpoint: strings.TrimSpace(endpoint)}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "bundler",
		Type:        "erc4337",
		RequiresKey: false,
		Capabilities: []string{
			"aa.entrypoints",
			"aa.estimate",
			"aa.send",
			"aa.userop",
			"aa.receipt",
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if c.endpoint == "" {
		return clierr.New(clierr.CodeUsage, "no bundler endpoint configured; set bundler_url or SCROLL_BUNDLER_URL")
	}
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "encode bundler request", err)
	}
	var resp rpcResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.endpoint, body, nil, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return clierr.New(clierr.CodeUnavailable, "bundler error: "+resp.Error.Message)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "decode bundler result", err)
	}
	return nil
}

func (c *Client) SupportedEntryPoints(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "eth_supportedEntryPoints", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type gasEstimateResult struct {
	PreVerificationGas   string `json:"preVerificationGas"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	CallGasLimit         string `json:"callGasLimit"`
}

func (c *Client) EstimateUserOperationGas(ctx context.Context, userOp map[string]any, entryPoint string) (model.UserOpGasEstimate, error) {
	var out gasEstimateResult
	if err := c.call(ctx, "eth_estimateUserOperationGas", []any{userOp, entryPoint}, &out); err != nil {
		return model.UserOpGasEstimate{}, err
	}
	return model.UserOpGasEstimate{
		PreVerificationGas:   out.PreVerificationGas,
		VerificationGasLimit: out.VerificationGasLimit,
		CallGasLimit:         out.CallGasLimit,
		EntryPoint:           entryPoint,
	}, nil
}

func (c *Client) SendUserOperation(ctx context.Context, userOp map[string]any, entryPoint string) (string, error) {
	var hash string
	if err := c.call(ctx, "eth_sendUserOperation", []any{userOp, entryPoint}, &hash); err != nil {
		return "", err
	}
	return strings.ToLower(hash), nil
}

type userOpByHashResult struct {
	UserOperation struct {
		Sender string `json:"sender"`
		Nonce  string `json:"nonce"`
	} `json:"userOperation"`
	EntryPoint  string `json:"entryPoint"`
	TxHash      string `json:"transactionHash"`
	BlockNumber string `json:"blockNumber"`
}

func (c *Client) UserOperationByHash(ctx context.Context, hash string) (model.UserOpStatus, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "eth_getUserOperationByHash", []any{hash}, &raw); err != nil {
		return model.UserOpStatus{}, err
	}
	status := model.UserOpStatus{UserOpHash: strings.ToLower(hash)}
	if len(raw) == 0 || string(raw) == "null" {
		return status, nil
	}
	var out userOpByHashResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.UserOpStatus{}, clierr.Wrap(clierr.CodeUnavailable, "decode userop lookup", err)
	}
	status.Found = true
	status.EntryPoint = out.EntryPoint
	status.Sender = out.UserOperation.Sender
	status.Nonce = out.UserOperation.Nonce
	status.TxHash = strings.ToLower(out.TxHash)
	status.BlockNumber = parseHexUint(out.BlockNumber)
	return status, nil
}

type userOpReceiptResult struct {
	Sender        string `json:"sender"`
	Nonce         string `json:"nonce"`
	EntryPoint    string `json:"entryPoint"`
	Success       bool   `json:"success"`
	ActualGasUsed string `json:"actualGasUsed"`
	ActualGasCost string `json:"actualGasCost"`
	Receipt       struct {
		TxHash      string `json:"transactionHash"`
		BlockNumber string `json:"blockNumber"`
	} `json:"receipt"`
}

func (c *Client) UserOperationReceipt(ctx context.Context, hash string) (model.UserOpStatus, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "eth_getUserOperationReceipt", []any{hash}, &raw); err != nil {
		return model.UserOpStatus{}, err
	}
	status := model.UserOpStatus{UserOpHash: strings.ToLower(hash)}
	if len(raw) == 0 || string(raw) == "null" {
		return status, nil
	}
	var out userOpReceiptResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.UserOpStatus{}, clierr.Wrap(clierr.CodeUnavailable, "decode userop receipt", err)
	}
	status.Found = true
	status.Sender = out.Sender
	status.Nonce = out.Nonce
	status.EntryPoint = out.EntryPoint
	status.Success = out.Success
	status.ActualGasUsed = out.ActualGasUsed
	status.ActualGasCost = out.ActualGasCost
	status.TxHash = strings.ToLower(out.Receipt.TxHash)
	status.BlockNumber = parseHexUint(out.Receipt.BlockNumber)
	return status, nil
}

func parseHexUint(v string) uint64 {
	clean := strings.TrimPrefix(strings.TrimSpace(v), "0x")
	if clean == "" {
		return 0
	}
	out, err := strconv.ParseUint(clean, 16, 64)
	if err != nil {
		return 0
	}
	return out
}
