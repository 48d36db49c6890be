package scrollscan

import (
	"context"
	"encoding/json"
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

// Client talks to the Scrollscan explorer API (Etherscan-compatible).
type Client struct {
	http    *httpx.Client
	base    string
	apiKey  string
	chainID int64
}

func New(httpClient *httpx.Client, base, apiKey string, chainID int64) *Client {
	return &Client{
		http:    httpClient,
		base:    strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		chainID: chainID,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "scrollscan",
		Type:        "explorer",
		RequiresKey: true,
		Capabilities: []string{
			"account.history",
			"token.transfers",
			"contract.abi",
			"contract.source",
		},
		KeyEnvVarName: "SCROLLSCAN_API_KEY",
	}
}

// envelope is the Etherscan response wrapper. Result is raw because the
// API returns either an array, an object, or an error string in it.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) query(ctx context.Context, params url.Values, out any) error {
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	endpoint := c.base + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "build explorer request", err)
	}
	var env envelope
	if _, err := c.http.DoJSON(ctx, req, &env); err != nil {
		return err
	}
	if env.Status != "1" {
		// "No transactions found" comes back as status 0 with an empty
		// result array.
		if strings.EqualFold(env.Message, "No transactions found") ||
			strings.EqualFold(env.Message, "No records found") {
			return unmarshalResult(env.Result, out)
		}
		msg := env.Message
		var errText string
		if json.Unmarshal(env.Result, &errText) == nil && errText != "" {
			msg = msg + ": " + errText
		}
		if strings.Contains(strings.ToLower(msg), "rate limit") {
			return clierr.New(clierr.CodeRateLimited, "explorer rate limited request")
		}
		if strings.Contains(strings.ToLower(msg), "invalid api key") {
			return clierr.New(clierr.CodeAuth, "explorer rejected api key")
		}
		return clierr.New(clierr.CodeUnavailable, "explorer error: "+msg)
	}
	return unmarshalResult(env.Result, out)
}

func unmarshalResult(raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "decode explorer result", err)
	}
	return nil
}

type txEntry struct {
	Hash            string `json:"hash"`
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Nonce           string `json:"nonce"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	GasUsed         string `json:"gasUsed"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	Input           string `json:"input"`
	ContractAddress string `json:"contractAddress"`
}

func (c *Client) AccountTransactions(ctx context.Context, req providers.AccountHistoryRequest) ([]model.TransactionSummary, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", req.Address)
	params.Set("startblock", strconv.FormatUint(req.StartBlock, 10))
	if req.EndBlock > 0 {
		params.Set("endblock", strconv.FormatUint(req.EndBlock, 10))
	} else {
		params.Set("endblock", "99999999")
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		params.Set("offset", strconv.Itoa(req.Limit))
	}
	if req.Descending {
		params.Set("sort", "desc")
	} else {
		params.Set("sort", "asc")
	}

	var entries []txEntry
	if err := c.query(ctx, params, &entries); err != nil {
		return nil, err
	}
	out := make([]model.TransactionSummary, 0, len(entries))
	for _, e := range entries {
		summary := model.TransactionSummary{
			Hash:           strings.ToLower(e.Hash),
			ChainID:        fmt.Sprintf("eip155:%d", c.chainID),
			BlockNumber:    parseUint(e.BlockNumber),
			From:           e.From,
			To:             e.To,
			Nonce:          parseUint(e.Nonce),
			ValueBaseUnits: e.Value,
			GasLimit:       parseUint(e.Gas),
			GasPrice:       e.GasPrice,
			GasUsed:        parseUint(e.GasUsed),
			TimestampUNIX:  int64(parseUint(e.TimeStamp)),
		}
		if len(e.Input) >= 10 {
			summary.InputSelector = e.Input[:10]
		}
		summary.InputSizeBytes = hexPayloadSize(e.Input)
		if e.ContractAddress != "" {
			summary.ContractCreated = e.ContractAddress
		}
		switch {
		case e.TxReceiptStatus == "1":
			summary.Status = "success"
		case e.TxReceiptStatus == "0" || e.IsError == "1":
			summary.Status = "reverted"
		}
		out = append(out, summary)
	}
	return out, nil
}

type transferEntry struct {
	Hash            string `json:"hash"`
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	TokenID         string `json:"tokenID"`
}

func (c *Client) TokenTransfers(ctx context.Context, req providers.TokenTransferRequest) ([]model.TokenTransfer, error) {
	action := "tokentx"
	standard := strings.ToLower(strings.TrimSpace(req.Standard))
	switch standard {
	case "", "erc20":
		standard = "erc20"
		action = "tokentx"
	case "erc721":
		action = "tokennfttx"
	case "erc1155":
		action = "token1155tx"
	default:
		return nil, clierr.New(clierr.CodeUsage, "unsupported token standard "+req.Standard)
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	if req.Address != "" {
		params.Set("address", req.Address)
	}
	if req.TokenAddress != "" {
		params.Set("contractaddress", req.TokenAddress)
	}
	params.Set("startblock", strconv.FormatUint(req.StartBlock, 10))
	if req.EndBlock > 0 {
		params.Set("endblock", strconv.FormatUint(req.EndBlock, 10))
	} else {
		params.Set("endblock", "99999999")
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		params.Set("offset", strconv.Itoa(req.Limit))
	}
	params.Set("sort", "desc")

	var entries []transferEntry
	if err := c.query(ctx, params, &entries); err != nil {
		return nil, err
	}
	out := make([]model.TokenTransfer, 0, len(entries))
	for _, e := range entries {
		decimals := int(parseUint(e.TokenDecimal))
		out = append(out, model.TokenTransfer{
			TxHash:        strings.ToLower(e.Hash),
			BlockNumber:   parseUint(e.BlockNumber),
			TimestampUNIX: int64(parseUint(e.TimeStamp)),
			TokenAddress:  e.ContractAddress,
			TokenSymbol:   e.TokenSymbol,
			TokenName:     e.TokenName,
			From:          e.From,
			To:            e.To,
			Amount: model.AmountInfo{
				AmountBaseUnits: orZero(e.Value),
				Decimals:        decimals,
			},
			TokenID:  e.TokenID,
			Standard: standard,
		})
	}
	return out, nil
}

func (c *Client) ContractABI(ctx context.Context, address string) (string, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", address)

	var raw string
	if err := c.query(ctx, params, &raw); err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" || strings.Contains(raw, "not verified") {
		return "", clierr.New(clierr.CodeUnsupported, "contract source is not verified")
	}
	return raw, nil
}

type sourceEntry struct {
	SourceCode       string `json:"SourceCode"`
	ABI              string `json:"ABI"`
	ContractName     string `json:"ContractName"`
	CompilerVersion  string `json:"CompilerVersion"`
	OptimizationUsed string `json:"OptimizationUsed"`
}

func (c *Client) ContractSource(ctx context.Context, address string) (providers.ContractSource, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)

	var entries []sourceEntry
	if err := c.query(ctx, params, &entries); err != nil {
		return providers.ContractSource{}, err
	}
	if len(entries) == 0 {
		return providers.ContractSource{}, clierr.New(clierr.CodeUnavailable, "explorer returned no source entry")
	}
	entry := entries[0]
	verified := strings.TrimSpace(entry.ABI) != "" && !strings.Contains(entry.ABI, "not verified")
	return providers.ContractSource{
		ContractName:     entry.ContractName,
		CompilerVersion:  entry.CompilerVersion,
		OptimizationUsed: entry.OptimizationUsed == "1",
		SourceCode:       entry.SourceCode,
		ABI:              entry.ABI,
		Verified:         verified,
	}, nil
}

func parseUint(v string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func orZero(v string) string {
	if strings.TrimSpace(v) == "" {
		return "0"
	}
	return v
}

func hexPayloadSize(input string) int {
	clean := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return len(clean) / 2
}
