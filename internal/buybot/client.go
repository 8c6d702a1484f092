// Package buybot re-broadcasts token purchases: it polls the purchase-history
// endpoint, filters and dedupes buys, and posts a video announcement with an
// HTML caption to every configured Telegram chat.
package buybot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Purchase is one completed buy as reported by the purchase-history feed.
type Purchase struct {
	ID            string  `json:"_id"`
	PurchaseTotal float64 `json:"purchaseTotal"`
	CoinAmount    float64 `json:"coinAmount"`
	TokenAmount   float64 `json:"tokenAmount"`
	PricePerCoin  float64 `json:"pricePerCoin"`
	WalletAddress string  `json:"walletAddress"`
	NativeTxHash  string  `json:"nativeTransactionHash"`
}

// Key returns the purchase's dedupe identity: the feed id when present,
// otherwise the native transaction hash. Empty when the feed provided
// neither.
func (p Purchase) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.NativeTxHash
}

// purchaseEnvelope matches the feed's response shape. data is either a list
// of purchases or a single purchase object.
type purchaseEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// Client fetches recent purchases from the purchase-history endpoint.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient creates a purchase feed client.
func NewClient(url string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
	}
}

// Recent returns the purchases the feed currently reports. Both response
// shapes are accepted: a list under data, or a single object.
func (c *Client) Recent(ctx context.Context) ([]Purchase, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch purchase history: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("purchase feed returned %d", resp.StatusCode)
	}

	var envelope purchaseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decodePurchases(envelope.Data)
}

func decodePurchases(data json.RawMessage) ([]Purchase, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("purchase feed response has no data field")
	}

	var list []Purchase
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var single Purchase
	if err := json.Unmarshal(data, &single); err == nil {
		return []Purchase{single}, nil
	}
	return nil, fmt.Errorf("unexpected purchase feed data shape")
}
