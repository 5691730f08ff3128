package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnavailable      = "PROVIDER_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidVideoURL      = NewDomainError(ErrCodeValidation, "not a recognizable YouTube URL")
	ErrInvalidRole          = NewDomainError(ErrCodeValidation, "chat message role must be user or assistant")
	ErrMissingVideoID       = NewDomainError(ErrCodeValidation, "video id is required")
	ErrMissingQuery         = NewDomainError(ErrCodeValidation, "query is required")
	ErrInvalidVideoJobState = NewDomainError(ErrCodeValidation, "invalid video job status")
)

// Not found errors
var (
	ErrVideoNotFound              = NewDomainError(ErrCodeNotFound, "video not found")
	ErrTranscriptNotFound         = NewDomainError(ErrCodeNotFound, "transcript not found")
	ErrArchivedTranscriptNotFound = NewDomainError(ErrCodeNotFound, "archived transcript not found")
	ErrSessionNotFound            = NewDomainError(ErrCodeNotFound, "chat session not found")
	ErrHistoryNotFound            = NewDomainError(ErrCodeNotFound, "chat session or history not found")
)

// Provider errors
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeUnavailable, "embedding provider unavailable")
	ErrChatModelUnavailable = NewDomainError(ErrCodeUnavailable, "chat model unavailable")
	ErrVectorSearchFailed   = NewDomainError(ErrCodeUnavailable, "vector index query failed")
)

// Operation errors
var (
	ErrSessionBusy = NewDomainError(ErrCodeInvalidOperation, "another turn for this session is in flight")
)
