// Package oracle fetches the conversion rate used to compute the swap's
// minimum-output floor. Only the response status and the price field of the
// body are consumed; headers and any other responder-variable metadata are
// ignored so the result is deterministic across redundant fetches.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hpungsan/notegate/internal/errors"
)

// maxResponseBytes bounds the ticker response body.
const maxResponseBytes = 2048

// Client quotes a trading pair.
type Client interface {
	// Quote returns the current price for pair, source asset priced in the
	// quote asset.
	Quote(ctx context.Context, pair string) (float64, error)
}

// HTTPClient fetches quotes from a coinbase-style ticker endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates an oracle client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type tickerResponse struct {
	Price string `json:"price"`
}

// Quote implements Client.
func (c *HTTPClient) Quote(ctx context.Context, pair string) (float64, error) {
	url := fmt.Sprintf("%s/products/%s/ticker", c.baseURL, pair)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.NewInternal(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("User-Agent", "price-feed")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, errors.NewOracleUnavailable(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return 0, errors.NewOracleUnavailable(err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return 0, errors.NewOracleUnavailable(fmt.Errorf("ticker returned %d: %s", httpResp.StatusCode, string(body)))
	}

	var resp tickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, errors.NewOracleUnavailable(fmt.Errorf("decode ticker: %w", err))
	}
	if resp.Price == "" {
		return 0, errors.NewOracleUnavailable(fmt.Errorf("price not found in ticker response for %s", pair))
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, errors.NewOracleUnavailable(fmt.Errorf("parse price %q: %w", resp.Price, err))
	}
	return price, nil
}
