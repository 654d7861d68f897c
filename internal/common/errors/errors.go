// Package errors provides standardized error handling for the complaint workers
// and their BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogLoadFailed  ErrorCode = "CATALOG_LOAD_FAILED"

	ErrCodeSearchFailed          ErrorCode = "SEARCH_FAILED"
	ErrCodeMorphologyUnavailable ErrorCode = "MORPHOLOGY_UNAVAILABLE"
	ErrCodeSimilarityUnavailable ErrorCode = "SIMILARITY_UNAVAILABLE"

	ErrCodeTicketValidationFailed ErrorCode = "TICKET_VALIDATION_FAILED"
	ErrCodeDictionaryLoadFailed   ErrorCode = "DICTIONARY_LOAD_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the collaborator error the StandardError was built from.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// HasCode reports whether err is (or wraps) a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewCatalogUnavailableError is returned when no catalog snapshot exists and the source cannot be read.
func NewCatalogUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Service catalog is unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCatalogLoadFailedError is returned when a reload fails; the previous snapshot stays active.
func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Service catalog reload failed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSearchFailedError means the pipeline could not produce any candidate at all.
func NewSearchFailedError(details string, err error) *StandardError {
	stdErr := &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Complaint search failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		stdErr.Details = fmt.Sprintf("%s: %s", details, err.Error())
	}
	return stdErr
}

func NewMorphologyUnavailableError(token string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMorphologyUnavailable,
		Message:   "Morphological analyzer unavailable",
		Details:   fmt.Sprintf("token: %s, error: %s", token, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSimilarityUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSimilarityUnavailable,
		Message:   "Similarity engine unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTicketValidationError is returned for structurally impossible tickets.
func NewTicketValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTicketValidationFailed,
		Message:   "Ticket validation failed",
		Details:   fmt.Sprintf("field: %s, %s", field, details),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

func NewDictionaryLoadFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDictionaryLoadFailed,
		Message:   "Noise filter dictionary could not be loaded",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry / BPMN mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCatalogUnavailable:     "CATALOG_UNAVAILABLE",
	ErrCodeCatalogLoadFailed:      "CATALOG_LOAD_FAILED",
	ErrCodeSearchFailed:           "SEARCH_FAILED",
	ErrCodeMorphologyUnavailable:  "MORPHOLOGY_UNAVAILABLE",
	ErrCodeSimilarityUnavailable:  "SIMILARITY_UNAVAILABLE",
	ErrCodeTicketValidationFailed: "TICKET_VALIDATION_FAILED",
	ErrCodeDictionaryLoadFailed:   "DICTIONARY_LOAD_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidInput:           "INVALID_INPUT",
}

// KnownCodes returns the set of BPMN error codes jobs may throw.
func KnownCodes() map[string]bool {
	codes := make(map[string]bool, len(BPMNErrorMapping))
	for _, bpmn := range BPMNErrorMapping {
		codes[bpmn] = true
	}
	return codes
}

// GetRetryCount returns how many job retries an error code earns.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogUnavailable,
		ErrCodeCatalogLoadFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeMorphologyUnavailable,
		ErrCodeSimilarityUnavailable:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "SEARCH"), strings.Contains(codeStr, "MORPHOLOGY"), strings.Contains(codeStr, "SIMILARITY"):
		return "MATCHING"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "VALIDATION"), strings.Contains(codeStr, "DICTIONARY"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
