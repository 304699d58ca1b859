package errors

import "fmt"

// ErrorCode represents a Notegate error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrDuplicateKey      ErrorCode = "DUPLICATE_KEY"      // 409
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS" // 402
	ErrAmountOverflow    ErrorCode = "AMOUNT_OVERFLOW"    // 502
	ErrLedgerUnavailable ErrorCode = "LEDGER_UNAVAILABLE" // 502
	ErrAllowanceExpired  ErrorCode = "ALLOWANCE_EXPIRED"  // 402
	ErrDuplicateTransfer ErrorCode = "DUPLICATE_TRANSFER" // 409
	ErrBadFee            ErrorCode = "BAD_FEE"            // 402
	ErrOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE" // 502
	ErrOraclePriceZero   ErrorCode = "ORACLE_PRICE_ZERO"  // 502
	ErrSwapFailed        ErrorCode = "SWAP_FAILED"        // 502
	ErrBridgeFailed      ErrorCode = "BRIDGE_FAILED"      // 502
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// GateError represents a structured error with code, status, and details.
type GateError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GateError {
	return &GateError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a note that cannot be found.
func NewNotFound(id uint64) *GateError {
	return &GateError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("note %d not found", id),
		Details: map[string]any{"id": id},
	}
}

// NewDuplicateKey creates a 409 error for an id already taken by the caller.
func NewDuplicateKey(id uint64) *GateError {
	return &GateError{
		Code:    ErrDuplicateKey,
		Status:  409,
		Message: fmt.Sprintf("note %d already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewInsufficientFunds creates a 402 error for a balance below the required amount.
func NewInsufficientFunds(balance, required uint64) *GateError {
	return &GateError{
		Code:    ErrInsufficientFunds,
		Status:  402,
		Message: fmt.Sprintf("insufficient token balance: have %d, need %d", balance, required),
		Details: map[string]any{"balance": balance, "required": required},
	}
}

// NewAmountOverflow creates a 502 error for a ledger quantity that does not fit in uint64.
func NewAmountOverflow(value string) *GateError {
	return &GateError{
		Code:    ErrAmountOverflow,
		Status:  502,
		Message: fmt.Sprintf("ledger amount overflows uint64: %s", value),
		Details: map[string]any{"value": value},
	}
}

// NewLedgerUnavailable creates a 502 error for a failed ledger round trip.
func NewLedgerUnavailable(err error) *GateError {
	return &GateError{
		Code:    ErrLedgerUnavailable,
		Status:  502,
		Message: fmt.Sprintf("ledger call failed: %v", err),
	}
}

// NewAllowanceExpired creates a 402 error for an expired or missing spender allowance.
func NewAllowanceExpired(msg string) *GateError {
	return &GateError{
		Code:    ErrAllowanceExpired,
		Status:  402,
		Message: msg,
	}
}

// NewDuplicateTransfer creates a 409 error for a transfer the ledger has already seen.
func NewDuplicateTransfer(msg string) *GateError {
	return &GateError{
		Code:    ErrDuplicateTransfer,
		Status:  409,
		Message: msg,
	}
}

// NewBadFee creates a 402 error for a rejected transfer fee.
func NewBadFee(msg string) *GateError {
	return &GateError{
		Code:    ErrBadFee,
		Status:  402,
		Message: msg,
	}
}

// NewOracleUnavailable creates a 502 error for a failed price fetch.
func NewOracleUnavailable(err error) *GateError {
	return &GateError{
		Code:    ErrOracleUnavailable,
		Status:  502,
		Message: fmt.Sprintf("price oracle call failed: %v", err),
	}
}

// NewOraclePriceZero creates a 502 error for a zero-valued oracle quote.
func NewOraclePriceZero(pair string) *GateError {
	return &GateError{
		Code:    ErrOraclePriceZero,
		Status:  502,
		Message: fmt.Sprintf("oracle returned zero price for %s", pair),
		Details: map[string]any{"pair": pair},
	}
}

// NewSwapFailed creates a 502 error for a swap venue failure.
func NewSwapFailed(msg string) *GateError {
	return &GateError{
		Code:    ErrSwapFailed,
		Status:  502,
		Message: msg,
	}
}

// NewBridgeFailed creates a 502 error for a bridge withdrawal failure.
func NewBridgeFailed(msg string) *GateError {
	return &GateError{
		Code:    ErrBridgeFailed,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GateError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GateError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a GateError with the given code.
// It unwraps wrapped errors so stage-tagged settlement failures match too.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if gErr, ok := err.(*GateError); ok {
			return gErr.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
