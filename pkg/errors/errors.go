package errors

import (
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeInternal   ErrorType = "INTERNAL"

	// ErrorTypeParse reports a lexer/parser grammar violation (§7 ParseError).
	ErrorTypeParse ErrorType = "PARSE"
	// ErrorTypeSemantic reports a static rule violation caught by the validator.
	ErrorTypeSemantic ErrorType = "SEMANTIC"
	// ErrorTypeResolution reports an under-constrained variable or missing type label.
	ErrorTypeResolution ErrorType = "RESOLUTION"
	// ErrorTypeLimitExceeded reports a SET/DELETE batch or hop cap violation.
	ErrorTypeLimitExceeded ErrorType = "LIMIT_EXCEEDED"
	// ErrorTypeConfirmRequired signals a DELETE executed without confirm=true.
	// Per §7 this is not a failure: callers receive a preview, not an error.
	ErrorTypeConfirmRequired ErrorType = "CONFIRM_REQUIRED"
	// ErrorTypeAmbiguous reports a MERGE that matched more than one node.
	ErrorTypeAmbiguous ErrorType = "AMBIGUOUS"
	// ErrorTypeService reports a graph-service call failure.
	ErrorTypeService ErrorType = "SERVICE"
)

// Position locates a parse error within the original query text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// Position and Expected are populated for ErrorTypeParse.
	Position *Position
	Expected []string

	// PartiallyApplied distinguishes a ServiceError that occurred after some
	// mutations were already sent from one that failed before any mutation
	// (§5 Cancellation, §7 ServiceError policy).
	PartiallyApplied bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Type == ErrorTypeParse && e.Position != nil {
		if len(e.Expected) > 0 {
			return fmt.Sprintf("%s: %s at %d:%d (expected %v)", e.Type, e.Message, e.Position.Line, e.Position.Column, e.Expected)
		}
		return fmt.Sprintf("%s: %s at %d:%d", e.Type, e.Message, e.Position.Line, e.Position.Column)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewParse creates a ParseError with a reporting position and the tokens the
// parser would have accepted.
func NewParse(message string, pos Position, expected []string) error {
	return &AppError{
		Type:     ErrorTypeParse,
		Message:  message,
		Position: &pos,
		Expected: expected,
	}
}

// NewSemantic creates a SemanticError for a static rule violation.
func NewSemantic(message string) error {
	return &AppError{
		Type:    ErrorTypeSemantic,
		Message: message,
	}
}

// NewResolution creates a ResolutionError for an under-constrained variable
// or an unresolved type label.
func NewResolution(message string) error {
	return &AppError{
		Type:    ErrorTypeResolution,
		Message: message,
	}
}

// NewLimitExceeded creates a LimitExceeded error reporting the cap and the
// observed count.
func NewLimitExceeded(message string) error {
	return &AppError{
		Type:    ErrorTypeLimitExceeded,
		Message: message,
	}
}

// NewConfirmRequired creates the ConfirmRequired signal for an unconfirmed
// DELETE. Callers should check IsConfirmRequired and return a preview rather
// than treating this as a failure.
func NewConfirmRequired(message string) error {
	return &AppError{
		Type:    ErrorTypeConfirmRequired,
		Message: message,
	}
}

// NewAmbiguous creates an Ambiguous warning for a MERGE that matched more
// than one node.
func NewAmbiguous(message string) error {
	return &AppError{
		Type:    ErrorTypeAmbiguous,
		Message: message,
	}
}

// NewService wraps a graph-service failure, recording whether mutations were
// already sent before the failure occurred.
func NewService(message string, err error, partiallyApplied bool) error {
	return &AppError{
		Type:             ErrorTypeService,
		Message:          message,
		Err:              err,
		PartiallyApplied: partiallyApplied,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:             appErr.Type,
			Message:          fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:              appErr.Err,
			Position:         appErr.Position,
			Expected:         appErr.Expected,
			PartiallyApplied: appErr.PartiallyApplied,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Type checking functions

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeValidation
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeNotFound
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeInternal
}

// IsParse checks if an error is a ParseError.
func IsParse(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeParse
}

// IsSemantic checks if an error is a SemanticError.
func IsSemantic(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeSemantic
}

// IsResolution checks if an error is a ResolutionError.
func IsResolution(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeResolution
}

// IsLimitExceeded checks if an error is a LimitExceeded error.
func IsLimitExceeded(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeLimitExceeded
}

// IsConfirmRequired checks if an error is the ConfirmRequired signal.
func IsConfirmRequired(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeConfirmRequired
}

// IsAmbiguous checks if an error is an Ambiguous warning.
func IsAmbiguous(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeAmbiguous
}

// IsService checks if an error is a ServiceError.
func IsService(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeService
}
