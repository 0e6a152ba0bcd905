package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/loanzzz/loanzzz/pkg/clients"
)

// XEC amounts on chain are integer satoshis; 1 XEC = 100 satoshis.
var satsPerXEC = decimal.NewFromInt(100)

// ChronikClient reads confirmed balances from a chronik block-explorer
// endpoint. The core never broadcasts; it only observes.
type ChronikClient struct {
	client  clients.HTTPClientI
	baseURL string
}

func NewChronikClient(client clients.HTTPClientI, baseURL string) *ChronikClient {
	return &ChronikClient{
		client:  client,
		baseURL: baseURL,
	}
}

type chronikBalance struct {
	Satoshis json.Number `json:"satoshis"`
}

func (c *ChronikClient) AddressBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	url := c.baseURL + "/address/" + address + "/balance"
	statusCode, body, _, err := c.client.Get(url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("chronik request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("chronik returned status %d", statusCode)
	}

	var payload chronikBalance
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("can't parse chronik response: %w", err)
	}

	sats, err := decimal.NewFromString(payload.Satoshis.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("can't parse satoshi balance %q: %w", payload.Satoshis, err)
	}
	return sats.Div(satsPerXEC), nil
}
