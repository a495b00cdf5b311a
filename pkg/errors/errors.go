package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures inside the triage pipeline.
type ErrorType string

const (
	// ErrorTypeProviderTimeout indicates a model provider exceeded its time budget
	ErrorTypeProviderTimeout ErrorType = "PROVIDER_TIMEOUT"

	// ErrorTypeProviderError indicates a network or status failure from a provider
	ErrorTypeProviderError ErrorType = "PROVIDER_ERROR"

	// ErrorTypeMalformedFragment indicates an unparseable streamed fragment
	ErrorTypeMalformedFragment ErrorType = "MALFORMED_FRAGMENT"

	// ErrorTypeRetrievalFailure indicates a literature search or fetch failure
	ErrorTypeRetrievalFailure ErrorType = "RETRIEVAL_FAILURE"

	// ErrorTypeEmbeddingFailure indicates the embedding provider failed for a text
	ErrorTypeEmbeddingFailure ErrorType = "EMBEDDING_FAILURE"

	// ErrorTypeBothTiersFailed indicates neither model tier produced text
	ErrorTypeBothTiersFailed ErrorType = "BOTH_TIERS_FAILED"

	// ErrorTypeInvalidResponse indicates a provider body missing required fields
	ErrorTypeInvalidResponse ErrorType = "INVALID_RESPONSE"

	// ErrorTypeValidation indicates invalid input or configuration
	ErrorTypeValidation ErrorType = "VALIDATION"
)

// AppError represents a classified pipeline error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError of the given type
func New(t ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: message,
		Err:     err,
	}
}

func NewProviderTimeout(provider string, err error) *AppError {
	return New(ErrorTypeProviderTimeout, provider+" timed out", err)
}

func NewProviderError(provider string, err error) *AppError {
	return New(ErrorTypeProviderError, provider+" request failed", err)
}

func NewInvalidResponse(provider, message string) *AppError {
	return New(ErrorTypeInvalidResponse, provider+": "+message, nil)
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, nil)
}

// IsType reports whether any error in err's chain is an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == t {
			return true
		}
		err = appErr.Err
	}
	return false
}
