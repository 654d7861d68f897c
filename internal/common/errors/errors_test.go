// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_SeesWrappedErrors(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("search: %w", NewSearchFailedError("all similarity calls failed", cause))

	assert.True(t, HasCode(err, ErrCodeSearchFailed))
	assert.False(t, HasCode(err, ErrCodeCatalogUnavailable))
	assert.False(t, HasCode(cause, ErrCodeSearchFailed))
	assert.ErrorIs(t, err, cause)
}

func TestTicketValidationError_CarriesField(t *testing.T) {
	err := NewTicketValidationError("confidence", "must be a finite number")

	assert.Equal(t, ErrCodeTicketValidationFailed, err.Code)
	assert.Equal(t, "confidence", err.Metadata["field"])
	assert.False(t, err.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name    string
		err     *StandardError
		code    string
		retries int
	}{
		{"catalog unavailable retries", NewCatalogUnavailableError(stderrors.New("down")), "CATALOG_UNAVAILABLE", 3},
		{"similarity retries twice", NewSimilarityUnavailableError(stderrors.New("timeout")), "SIMILARITY_UNAVAILABLE", 2},
		{"search failed is terminal", NewSearchFailedError("no candidates", nil), "SEARCH_FAILED", 0},
		{"validation is terminal", NewTicketValidationError("catalogId", "must be positive"), "TICKET_VALIDATION_FAILED", 0},
		{"notification retries", NewNotificationSendFailedError("email", stderrors.New("throttled")), "NOTIFICATION_SEND_FAILED", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.code, bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverridesCode(t *testing.T) {
	err := NewCatalogLoadFailedError("file", stderrors.New("bad yaml"))
	err.Retryable = false

	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestNormalize(t *testing.T) {
	std := NewInvalidInputError("bad json")
	assert.Same(t, std, Normalize(fmt.Errorf("wrap: %w", std)))

	plain := Normalize(stderrors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogLoadFailed))
	assert.Equal(t, "MATCHING", GetErrorCategory(ErrCodeMorphologyUnavailable))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeDictionaryLoadFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	bpmn := ConvertToBPMNError(NewInvalidInputError("missing complaintText"))
	vars := bpmn.ToErrorVariables()

	assert.Equal(t, "INVALID_INPUT", vars["errorCode"])
	assert.Equal(t, "missing complaintText", vars["errorDetails"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars, "timestamp")
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCatalogUnavailable))
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeSearchFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeTicketValidationFailed))
	assert.False(t, IsRetryableErrorCode("INTERNAL_ERROR"))
}

func TestShouldRetry(t *testing.T) {
	nonRetryable := NewCatalogLoadFailedError("file", stderrors.New("bad yaml"))
	nonRetryable.Retryable = false

	tests := []struct {
		name       string
		err        *StandardError
		jobRetries int32
		want       bool
	}{
		{"retryable code with retries left", NewCatalogUnavailableError(stderrors.New("down")), 3, true},
		{"retryable code on last attempt", NewCatalogUnavailableError(stderrors.New("down")), 0, false},
		{"terminal code", NewSearchFailedError("no candidates", nil), 3, false},
		{"retryable flag cleared", nonRetryable, 3, false},
		{"unknown error", Normalize(stderrors.New("boom")), 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(tt.err, tt.jobRetries))
		})
	}
}
