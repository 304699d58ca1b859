// Package ledger is the client for the external token ledger, the service of
// record for balances and pull-transfers. Calls are never retried here: a
// transfer_from is not idempotent at the ledger, so retry decisions belong to
// whoever can reason about the economic state.
package ledger

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

// Client is the Balance Gateway's view of the ledger.
type Client interface {
	// BalanceOf returns the spendable balance of owner's default subaccount.
	BalanceOf(ctx context.Context, owner string) (uint64, error)

	// TransferFrom executes a pre-authorized pull-transfer of amount plus the
	// ledger's network fee from `from` to `to`. The memo deduplicates
	// submissions on the ledger side. Returns the ledger transaction id.
	TransferFrom(ctx context.Context, from, to string, amount, fee uint64, memo string) (uint64, error)
}

// HTTPClient talks JSON to a ledger service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a ledger client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type balanceRequest struct {
	Owner      string  `json:"owner"`
	Subaccount *string `json:"subaccount"` // always null; the default subaccount
}

type balanceResponse struct {
	Balance json.Number `json:"balance"`
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`
	Memo   string `json:"memo,omitempty"`
}

type transferResponse struct {
	TxID json.Number `json:"tx_id"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// BalanceOf implements Client.
func (c *HTTPClient) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	var resp balanceResponse
	if err := c.post(ctx, "/v1/balance_of", balanceRequest{Owner: owner}, &resp); err != nil {
		return 0, err
	}

	balance, err := strconv.ParseUint(resp.Balance.String(), 10, 64)
	if err != nil {
		return 0, errors.NewAmountOverflow(resp.Balance.String())
	}
	return balance, nil
}

// TransferFrom implements Client.
func (c *HTTPClient) TransferFrom(ctx context.Context, from, to string, amount, fee uint64, memo string) (uint64, error) {
	req := transferRequest{From: from, To: to, Amount: amount, Fee: fee, Memo: memo}

	var resp transferResponse
	if err := c.post(ctx, "/v1/transfer_from", req, &resp); err != nil {
		return 0, err
	}

	txID, err := strconv.ParseUint(resp.TxID.String(), 10, 64)
	if err != nil {
		return 0, errors.NewAmountOverflow(resp.TxID.String())
	}
	return txID, nil
}

// post issues one JSON round trip and maps failure responses onto the
// GateError taxonomy. Exactly one request is sent per call.
func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.NewInternal(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return errors.NewLedgerUnavailable(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.NewLedgerUnavailable(err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return mapLedgerError(httpResp.StatusCode, respBody)
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.NewLedgerUnavailable(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// mapLedgerError translates the ledger's native error variants.
func mapLedgerError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		return errors.NewLedgerUnavailable(fmt.Errorf("ledger returned %d: %s", status, string(body)))
	}

	msg := env.Error.Message
	if msg == "" {
		msg = env.Error.Code
	}

	switch env.Error.Code {
	case "insufficient_funds":
		return &errors.GateError{Code: errors.ErrInsufficientFunds, Status: 402, Message: msg}
	case "bad_fee":
		return errors.NewBadFee(msg)
	case "too_old", "allowance_expired":
		return errors.NewAllowanceExpired(msg)
	case "duplicate":
		return errors.NewDuplicateTransfer(msg)
	default:
		// "unavailable" and any generic variant
		return errors.NewLedgerUnavailable(fmt.Errorf("%s: %s", env.Error.Code, msg))
	}
}
