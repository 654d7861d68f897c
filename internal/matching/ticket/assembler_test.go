package ticket

import (
	"math"
	"testing"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler(t *testing.T) *Assembler {
	t.Helper()
	return NewAssembler(logger.NewTestLogger(t))
}

func int64Ptr(v int64) *int64 { return &v }

// ==========================
// Build
// ==========================

func TestAssembler_Build_ClampsAndDefaults(t *testing.T) {
	ticket, err := newAssembler(t).Build(Request{
		CatalogID:     1,
		Confidence:    1.7,
		ComplaintText: "  течет труба в квартире  ",
		Scope:         "unknown",
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, ticket.Confidence)
	assert.Equal(t, models.ScopeCommon, ticket.Scope)
	assert.Equal(t, "течет труба в квартире", ticket.ComplaintText)
	assert.Nil(t, ticket.UnitReference)
}

func TestAssembler_Build(t *testing.T) {
	tests := []struct {
		name           string
		req            Request
		wantConfidence float64
		wantScope      models.Scope
	}{
		{"rounds to three decimals", Request{CatalogID: 3, Confidence: 0.45678}, 0.457, models.ScopeCommon},
		{"negative clamps to zero", Request{CatalogID: 3, Confidence: -0.2}, 0, models.ScopeCommon},
		{"unit scope", Request{CatalogID: 3, Confidence: 0.5, Scope: "UNIT"}, 0.5, models.ScopeUnit},
		{"lowercase unit scope", Request{CatalogID: 3, Confidence: 0.5, Scope: " unit "}, 0.5, models.ScopeUnit},
		{"common scope", Request{CatalogID: 3, Confidence: 0.5, Scope: "COMMON"}, 0.5, models.ScopeCommon},
		{"empty scope", Request{CatalogID: 3, Confidence: 0.5}, 0.5, models.ScopeCommon},
	}

	a := newAssembler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := a.Build(tt.req)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantConfidence, ticket.Confidence, 1e-12)
			assert.Equal(t, tt.wantScope, ticket.Scope)
		})
	}
}

func TestAssembler_Build_CopiesUnitReference(t *testing.T) {
	unit := int64Ptr(42)
	ticket, err := newAssembler(t).Build(Request{CatalogID: 1, Confidence: 0.5, UnitReference: unit, Scope: "UNIT"})
	require.NoError(t, err)

	*unit = 7
	require.NotNil(t, ticket.UnitReference)
	assert.Equal(t, int64(42), *ticket.UnitReference)
}

func TestAssembler_Build_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"zero id", Request{CatalogID: 0, Confidence: 0.5}, "catalogId"},
		{"negative id", Request{CatalogID: -4, Confidence: 0.5}, "catalogId"},
		{"NaN confidence", Request{CatalogID: 1, Confidence: math.NaN()}, "confidence"},
		{"infinite confidence", Request{CatalogID: 1, Confidence: math.Inf(1)}, "confidence"},
	}

	a := newAssembler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := a.Build(tt.req)
			assert.Nil(t, ticket)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTicketValidationFailed))

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.field, stdErr.Metadata["field"])
		})
	}
}

func TestFromCandidate(t *testing.T) {
	req := FromCandidate(models.Candidate{EntryID: 9, Confidence: 0.81}, "засор")
	assert.Equal(t, int64(9), req.CatalogID)
	assert.Equal(t, 0.81, req.Confidence)
	assert.Equal(t, "засор", req.ComplaintText)
}

// ==========================
// BuildFromMap
// ==========================

func TestAssembler_BuildFromMap(t *testing.T) {
	ticket, err := newAssembler(t).BuildFromMap(map[string]interface{}{
		"catalogId":     float64(5),
		"confidence":    0.3333,
		"complaintText": "нет горячей воды",
		"unitReference": float64(12),
		"scope":         "UNIT",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), ticket.CatalogID)
	assert.Equal(t, 0.333, ticket.Confidence)
	require.NotNil(t, ticket.UnitReference)
	assert.Equal(t, int64(12), *ticket.UnitReference)
	assert.Equal(t, models.ScopeUnit, ticket.Scope)
}

func TestAssembler_BuildFromMap_NullOptionals(t *testing.T) {
	ticket, err := newAssembler(t).BuildFromMap(map[string]interface{}{
		"catalogId":     float64(5),
		"confidence":    float64(2),
		"complaintText": nil,
		"unitReference": nil,
		"scope":         nil,
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, ticket.Confidence)
	assert.Equal(t, "", ticket.ComplaintText)
	assert.Nil(t, ticket.UnitReference)
	assert.Equal(t, models.ScopeCommon, ticket.Scope)
}

func TestAssembler_BuildFromMap_TypeViolations(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
	}{
		{"confidence as string", map[string]interface{}{"catalogId": float64(1), "confidence": "high"}},
		{"fractional id", map[string]interface{}{"catalogId": 1.5, "confidence": 0.5}},
		{"id as string", map[string]interface{}{"catalogId": "1", "confidence": 0.5}},
		{"missing confidence", map[string]interface{}{"catalogId": float64(1)}},
		{"scope as number", map[string]interface{}{"catalogId": float64(1), "confidence": 0.5, "scope": float64(1)}},
	}

	a := newAssembler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := a.BuildFromMap(tt.input)
			assert.Nil(t, ticket)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTicketValidationFailed))
		})
	}
}

func TestAssembler_BuildFromMap_NonPositiveID(t *testing.T) {
	_, err := newAssembler(t).BuildFromMap(map[string]interface{}{"catalogId": float64(0), "confidence": 0.5})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTicketValidationFailed))
}

// ==========================
// Complaint text
// ==========================

func TestBuildComplaintText(t *testing.T) {
	tests := []struct {
		name  string
		turns []string
		want  string
	}{
		{"skips acknowledgements", []string{"течет труба", "да", "в ванной", "ок"}, "течет труба в ванной"},
		{"acknowledgement with punctuation", []string{"Да!", "  Нет.  ", "кран сломан"}, "кран сломан"},
		{"multi word acknowledgement", []string{"да, спасибо", "лифт стоит"}, "лифт стоит"},
		{"keeps numbers", []string{"квартира", "12"}, "квартира 12"},
		{"blank turns", []string{"", "   "}, ""},
		{"no turns", nil, ""},
		{"english acknowledgements", []string{"yes", "OK", "no power"}, "no power"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildComplaintText(tt.turns))
		})
	}
}
