package service

import "errors"

// Business outcomes. They roll the unit of work back and are reported to
// the caller as-is; only ErrOperationFailed carries a store fault.
var (
	ErrDuplicateIdentity    = errors.New("seller already exists")
	ErrInvalidCredentials   = errors.New("invalid seller id or password")
	ErrSessionLimitReached  = errors.New("session limit reached")
	ErrDowngradeUnavailable = errors.New("downgrade unavailable")
	ErrNotFound             = errors.New("not found")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrStockUnavailable     = errors.New("stock unavailable")
	ErrWeightLimitExceeded  = errors.New("weight limit exceeded")
	ErrNoOpenCart           = errors.New("no open cart")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidOrderState    = errors.New("order is not in a shippable state")
	ErrOperationFailed      = errors.New("operation failed")
)

// Code is the result code reported for every operation.
type Code string

const (
	CodeSuccess              Code = "CMD_EXECUTION_SUCCESS"
	CodeDuplicateIdentity    Code = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeSessionLimitReached  Code = "SESSION_LIMIT_REACHED"
	CodeDowngradeUnavailable Code = "DOWNGRADE_UNAVAILABLE"
	CodeNotFound             Code = "NOT_FOUND"
	CodeInvalidQuantity      Code = "INVALID_QUANTITY"
	CodeStockUnavailable     Code = "STOCK_UNAVAILABLE"
	CodeWeightLimitExceeded  Code = "WEIGHT_LIMIT_EXCEEDED"
	CodeNoOpenCart           Code = "NO_OPEN_CART"
	CodeEmptyCart            Code = "EMPTY_CART"
	CodeInvalidOrderState    Code = "INVALID_ORDER_STATE"
	CodeOperationFailed      Code = "OPERATION_FAILED"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrDuplicateIdentity, CodeDuplicateIdentity},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrSessionLimitReached, CodeSessionLimitReached},
	{ErrDowngradeUnavailable, CodeDowngradeUnavailable},
	{ErrNotFound, CodeNotFound},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrStockUnavailable, CodeStockUnavailable},
	{ErrWeightLimitExceeded, CodeWeightLimitExceeded},
	{ErrNoOpenCart, CodeNoOpenCart},
	{ErrEmptyCart, CodeEmptyCart},
	{ErrInvalidOrderState, CodeInvalidOrderState},
}

// Outcome maps an operation's error to the (success, code) pair shown to
// users. Anything unrecognised is an operation failure.
func Outcome(err error) (bool, Code) {
	if err == nil {
		return true, CodeSuccess
	}
	if errors.Is(err, ErrOperationFailed) {
		return false, CodeOperationFailed
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return false, c.code
		}
	}
	return false, CodeOperationFailed
}
