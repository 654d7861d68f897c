// Package ticket assembles validated complaint tickets.
package ticket

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/validation"
	"complaint-workers/internal/models"
)

// Schema is the JSON schema for untyped ticket requests. Only types are
// enforced here; ranges are clamped or defaulted by Build.
const Schema = `{
  "type": "object",
  "required": ["catalogId", "confidence"],
  "properties": {
    "catalogId":     {"type": "integer"},
    "confidence":    {"type": "number"},
    "complaintText": {"type": ["string", "null"]},
    "unitReference": {"type": ["integer", "null"]},
    "scope":         {"type": ["string", "null"]}
  }
}`

var requestSchema = validation.MustCompile(Schema)

// Request holds the fields a ticket is built from.
type Request struct {
	CatalogID     int64   `json:"catalogId"`
	Confidence    float64 `json:"confidence"`
	ComplaintText string  `json:"complaintText"`
	UnitReference *int64  `json:"unitReference,omitempty"`
	Scope         string  `json:"scope,omitempty"`
}

// FromCandidate starts a request from a confirmed search candidate.
func FromCandidate(c models.Candidate, complaintText string) Request {
	return Request{
		CatalogID:     c.EntryID,
		Confidence:    c.Confidence,
		ComplaintText: complaintText,
	}
}

type Assembler struct {
	logger logger.Logger
}

func NewAssembler(log logger.Logger) *Assembler {
	return &Assembler{logger: logger.Component(log, "ticket-assembler")}
}

// Build validates req and returns a ticket. Confidence is clamped to [0,1]
// and rounded to three decimals; an unknown scope becomes COMMON. A
// non-finite confidence or a non-positive catalog id is a
// TICKET_VALIDATION_FAILED error and no ticket is returned.
func (a *Assembler) Build(req Request) (*models.Ticket, error) {
	if req.CatalogID <= 0 {
		return nil, a.reject("catalogId", fmt.Sprintf("must be a positive integer, got %d", req.CatalogID))
	}
	if math.IsNaN(req.Confidence) || math.IsInf(req.Confidence, 0) {
		return nil, a.reject("confidence", "must be a finite number")
	}

	t := &models.Ticket{
		CatalogID:     req.CatalogID,
		Confidence:    NormalizeConfidence(req.Confidence),
		ComplaintText: strings.TrimSpace(req.ComplaintText),
		Scope:         NormalizeScope(req.Scope),
	}
	if req.UnitReference != nil {
		unit := *req.UnitReference
		t.UnitReference = &unit
	}

	if t.Confidence != req.Confidence {
		a.logger.Debug("confidence normalized", map[string]interface{}{
			"input":  req.Confidence,
			"output": t.Confidence,
		})
	}
	return t, nil
}

// BuildFromMap checks an untyped request (for example job variables) against
// Schema before building it. Type violations are validation errors.
func (a *Assembler) BuildFromMap(input map[string]interface{}) (*models.Ticket, error) {
	result := requestSchema.Validate(input)
	if !result.Valid {
		first := result.FirstError()
		return nil, a.reject(first.Field, strings.Join(result.GetErrorMessages(), "; "))
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, a.reject("(root)", err.Error())
	}
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, a.reject("(root)", err.Error())
	}
	return a.Build(req)
}

func (a *Assembler) reject(field, details string) error {
	a.logger.Warn("ticket rejected", map[string]interface{}{
		"field":   field,
		"details": details,
	})
	return apperrors.NewTicketValidationError(field, details)
}

// NormalizeConfidence clamps v to [0,1] and rounds it to three decimals.
func NormalizeConfidence(v float64) float64 {
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*1000) / 1000
}

// NormalizeScope maps s to UNIT or COMMON, case-insensitively.
func NormalizeScope(s string) models.Scope {
	if strings.EqualFold(strings.TrimSpace(s), string(models.ScopeUnit)) {
		return models.ScopeUnit
	}
	return models.ScopeCommon
}
