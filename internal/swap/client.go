// Package swap is the client for the external swap venue that converts the
// charged source asset into the bridge asset. Like the ledger client, it
// never retries: by the time a swap is submitted the caller has already been
// charged, and a duplicate submission would double-spend held funds.
package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hpungsan/notegate/internal/errors"
)

// Client submits swaps to the venue.
type Client interface {
	// Swap converts amountIn of the source asset, failing if the executed
	// output would be below minOut. Returns the output amount credited to
	// recipient.
	Swap(ctx context.Context, amountIn, minOut uint64, recipient string) (uint64, error)
}

// HTTPClient talks JSON to a swap venue.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a swap client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type swapRequest struct {
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
	Recipient    string `json:"recipient"`
}

type swapResponse struct {
	AmountOut json.Number `json:"amount_out"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Swap implements Client.
func (c *HTTPClient) Swap(ctx context.Context, amountIn, minOut uint64, recipient string) (uint64, error) {
	body, err := json.Marshal(swapRequest{AmountIn: amountIn, MinAmountOut: minOut, Recipient: recipient})
	if err != nil {
		return 0, errors.NewInternal(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/swap", bytes.NewReader(body))
	if err != nil {
		return 0, errors.NewInternal(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, errors.NewSwapFailed(fmt.Sprintf("swap venue unreachable: %v", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, errors.NewSwapFailed(fmt.Sprintf("read swap response: %v", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return 0, mapSwapError(httpResp.StatusCode, respBody)
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	var resp swapResponse
	if err := dec.Decode(&resp); err != nil {
		return 0, errors.NewSwapFailed(fmt.Sprintf("decode swap response: %v", err))
	}

	out, err := strconv.ParseUint(resp.AmountOut.String(), 10, 64)
	if err != nil {
		return 0, errors.NewAmountOverflow(resp.AmountOut.String())
	}
	return out, nil
}

// mapSwapError keeps the venue's native code in the error details so a
// stage-tagged failure still says what the venue reported.
func mapSwapError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		return errors.NewSwapFailed(fmt.Sprintf("swap venue returned %d: %s", status, string(body)))
	}

	msg := env.Error.Message
	if msg == "" {
		msg = env.Error.Code
	}

	gErr := errors.NewSwapFailed(fmt.Sprintf("%s: %s", env.Error.Code, msg))
	gErr.Details = map[string]any{"venue_code": env.Error.Code}
	return gErr
}
