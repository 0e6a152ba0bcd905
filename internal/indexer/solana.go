package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/loanzzz/loanzzz/pkg/clients"
)

// SolanaClient reads SPL token balances over JSON-RPC. Used to observe the
// stablecoin escrow account.
type SolanaClient struct {
	client clients.HTTPClientI
	rpcURL string
}

func NewSolanaClient(client clients.HTTPClientI, rpcURL string) *SolanaClient {
	return &SolanaClient{
		client: client,
		rpcURL: rpcURL,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type tokenBalanceResponse struct {
	Result struct {
		Value struct {
			UIAmountString string `json:"uiAmountString"`
		} `json:"value"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *SolanaClient) TokenBalance(ctx context.Context, tokenAccount string) (decimal.Decimal, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTokenAccountBalance",
		Params:  []any{tokenAccount},
	})
	if err != nil {
		return decimal.Zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("solana rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("solana rpc returned status %d", resp.StatusCode)
	}

	var parsed tokenBalanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("can't parse solana rpc response: %w", err)
	}
	if parsed.Error != nil {
		return decimal.Zero, fmt.Errorf("solana rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	balance, err := decimal.NewFromString(parsed.Result.Value.UIAmountString)
	if err != nil {
		return decimal.Zero, fmt.Errorf("can't parse token balance %q: %w", parsed.Result.Value.UIAmountString, err)
	}
	return balance, nil
}
