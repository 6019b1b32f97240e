// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Asset errors
	ErrAssetNotFound = &Error{Code: "ASSET_NOT_FOUND", Message: "asset not found"}
	ErrAssetNoSymbol = &Error{Code: "ASSET_NO_SYMBOL", Message: "asset has no symbol"}

	// Provider errors
	ErrProviderDisabled = &Error{Code: "PROVIDER_DISABLED", Message: "provider disabled by configuration"}
	ErrNoPriceData      = &Error{Code: "NO_PRICE_DATA", Message: "provider returned no usable quote"}
	ErrProviderFailed   = &Error{Code: "PROVIDER_FAILED", Message: "provider request failed"}

	// Resolution errors
	ErrResolutionExhausted = &Error{Code: "RESOLUTION_EXHAUSTED", Message: "no provider returned a price"}
	ErrNoChain             = &Error{Code: "NO_CHAIN", Message: "asset type has no provider chain"}

	// History errors
	ErrNoHistory = &Error{Code: "NO_HISTORY", Message: "no price history in window"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
)
