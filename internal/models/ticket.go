// internal/models/ticket.go
package models

type Scope string

const (
	ScopeUnit   Scope = "UNIT"
	ScopeCommon Scope = "COMMON"
)

// Ticket is a validated complaint ticket. Only the ticket assembler builds it.
type Ticket struct {
	CatalogID     int64   `json:"catalogId"`
	Confidence    float64 `json:"confidence"`
	ComplaintText string  `json:"complaintText"`
	UnitReference *int64  `json:"unitReference,omitempty"`
	Scope         Scope   `json:"scope"`
}
