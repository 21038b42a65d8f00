package p256k

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a p256k error
type ErrorCategory string

const (
	ErrorCategoryKey           ErrorCategory = "key"
	ErrorCategoryParameter     ErrorCategory = "parameter"
	ErrorCategoryCryptographic ErrorCategory = "cryptographic"
	ErrorCategoryParse         ErrorCategory = "parse"
	ErrorCategoryContext       ErrorCategory = "context"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryProtocol      ErrorCategory = "protocol"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityMedium   ErrorSeverity = "medium"   // Caller supplied bad input
	ErrorSeverityHigh     ErrorSeverity = "high"     // Operation rejected by the curve primitives
	ErrorSeverityCritical ErrorSeverity = "critical" // No operation is possible
)

// Error represents a structured error in the p256k library
type Error struct {
	Category ErrorCategory          `json:"category"`
	Severity ErrorSeverity          `json:"severity"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Cause    error                  `json:"-"` // Original error, not serialized
	Context  map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so that errors.Is matches
// copies made by WithCause, WithDetails and WithContext.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) clone() *Error {
	newError := &Error{
		Category: e.Category,
		Severity: e.Severity,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    e.Cause,
		Context:  make(map[string]interface{}, len(e.Context)),
	}
	for k, v := range e.Context {
		newError.Context[k] = v
	}
	return newError
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	newError := e.clone()
	newError.Context[key] = value
	return newError
}

// WithCause sets the underlying cause of the error
func (e *Error) WithCause(cause error) *Error {
	newError := e.clone()
	newError.Cause = cause
	return newError
}

// WithDetails attaches a formatted detail message to the error
func (e *Error) WithDetails(format string, args ...interface{}) *Error {
	newError := e.clone()
	newError.Details = fmt.Sprintf(format, args...)
	return newError
}

// NewError creates a new p256k error
func NewError(category ErrorCategory, severity ErrorSeverity, code, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Code:     code,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

var (
	// ErrIncorrectKeySize is returned when key bytes do not have the length
	// required by the key type or format.
	ErrIncorrectKeySize = NewError(
		ErrorCategoryKey, ErrorSeverityMedium, "INCORRECT_KEY_SIZE",
		"key has an incorrect byte length")

	// ErrIncorrectParameterSize is returned when signature, digest, tweak or
	// secret bytes do not have the required length.
	ErrIncorrectParameterSize = NewError(
		ErrorCategoryParameter, ErrorSeverityMedium, "INCORRECT_PARAMETER_SIZE",
		"parameter has an incorrect byte length")

	// ErrUnderlyingCrypto is returned when the curve primitives reject
	// otherwise well-formed input.
	ErrUnderlyingCrypto = NewError(
		ErrorCategoryCryptographic, ErrorSeverityHigh, "UNDERLYING_CRYPTO_ERROR",
		"cryptographic operation failed")

	// ErrParse is returned for any ASN.1 structural violation.
	ErrParse = NewError(
		ErrorCategoryParse, ErrorSeverityMedium, "PARSE_ERROR",
		"malformed ASN.1 structure")

	ErrContextInitialization = NewError(
		ErrorCategoryContext, ErrorSeverityCritical, "CONTEXT_INITIALIZATION_FAILED",
		"failed to create randomized curve context")

	ErrInvalidConfiguration = NewError(
		ErrorCategoryConfiguration, ErrorSeverityMedium, "INVALID_CONFIGURATION",
		"configuration is invalid")

	// ErrNonceReuse is returned when a MuSig2 secret nonce is presented a
	// second time.
	ErrNonceReuse = NewError(
		ErrorCategoryProtocol, ErrorSeverityCritical, "NONCE_REUSE",
		"secret nonce has already been used")

	// ErrSessionState is returned when a MuSig2 session receives a message
	// out of order or from an unexpected signer.
	ErrSessionState = NewError(
		ErrorCategoryProtocol, ErrorSeverityMedium, "SESSION_STATE",
		"signing session rejected the message")
)

// WrapError wraps an existing error with p256k error context
func WrapError(err error, category ErrorCategory, severity ErrorSeverity, code, message string) *Error {
	return NewError(category, severity, code, message).WithCause(err)
}

// IsErrorCategory checks if an error belongs to a specific category
func IsErrorCategory(err error, category ErrorCategory) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == category
	}
	return false
}

// IsErrorSeverity checks if an error has a specific severity
func IsErrorSeverity(err error, severity ErrorSeverity) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity == severity
	}
	return false
}

// GetErrorContext extracts context from a p256k error
func GetErrorContext(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Context
	}
	return nil
}
