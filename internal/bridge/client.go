// Package bridge is the client for the withdrawal service that moves the
// bridge asset to a destination on the external chain. The returned ticket is
// opaque: cross-chain finality is the bridge's problem, not ours.
package bridge

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hpungsan/notegate/internal/errors"
)

// AddressLen is the external-chain address length in bytes.
const AddressLen = 20

// Address is a 20-byte external-chain destination.
type Address [AddressLen]byte

// String formats the address as 0x-prefixed hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ParseAddress decodes a 0x-prefixed (or bare) hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, errors.NewInvalidRequest(fmt.Sprintf("bad destination address hex: %v", err))
	}
	if len(b) != AddressLen {
		return a, errors.NewInvalidRequest(fmt.Sprintf("destination address must be %d bytes, got %d", AddressLen, len(b)))
	}
	copy(a[:], b)
	return a, nil
}

// Client submits withdrawals to the bridge.
type Client interface {
	// Withdraw redeems amount of the bridge asset to the destination address
	// and returns the bridge's tracking ticket.
	Withdraw(ctx context.Context, to Address, amount uint64) (string, error)
}

// HTTPClient talks JSON to a bridge service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a bridge client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type withdrawRequest struct {
	ToAddress string `json:"to_address"`
	Amount    uint64 `json:"amount"`
}

type withdrawResponse struct {
	Ticket string `json:"ticket"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Withdraw implements Client.
func (c *HTTPClient) Withdraw(ctx context.Context, to Address, amount uint64) (string, error) {
	body, err := json.Marshal(withdrawRequest{ToAddress: to.String(), Amount: amount})
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/withdraw", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", errors.NewBridgeFailed(fmt.Sprintf("bridge unreachable: %v", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", errors.NewBridgeFailed(fmt.Sprintf("read bridge response: %v", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		var env errorEnvelope
		if err := json.Unmarshal(respBody, &env); err == nil && env.Error.Code != "" {
			return "", errors.NewBridgeFailed(fmt.Sprintf("%s: %s", env.Error.Code, env.Error.Message))
		}
		return "", errors.NewBridgeFailed(fmt.Sprintf("bridge returned %d: %s", httpResp.StatusCode, string(respBody)))
	}

	var resp withdrawResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", errors.NewBridgeFailed(fmt.Sprintf("decode bridge response: %v", err))
	}
	if resp.Ticket == "" {
		return "", errors.NewBridgeFailed("bridge returned an empty ticket")
	}
	return resp.Ticket, nil
}
