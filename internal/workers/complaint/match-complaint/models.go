// internal/workers/complaint/match-complaint/models.go
package matchcomplaint

import "complaint-workers/internal/models"

type Input struct {
	ComplaintText string   `json:"complaintText"`
	Turns         []string `json:"turns,omitempty"`
	ContextLabel  string   `json:"contextLabel,omitempty"`
}

const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
)

type Output struct {
	Outcome        string             `json:"outcome"`
	SearchID       string             `json:"searchId"`
	ComplaintText  string             `json:"complaintText"`
	Tokens         []string           `json:"tokens"`
	Candidates     []models.Candidate `json:"candidates"`
	TopCandidate   *models.Candidate  `json:"topCandidate,omitempty"`
	CatalogVersion uint64             `json:"catalogVersion"`
	Degraded       []string           `json:"degraded,omitempty"`
}
