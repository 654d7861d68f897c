// internal/models/candidate.go
package models

type CandidateSource string

const (
	SourceTag     CandidateSource = "tag"
	SourceTrigram CandidateSource = "trigram"
)

// Candidate is a scored hypothesis linking a complaint to one catalog entry.
type Candidate struct {
	EntryID           int64           `json:"entryId"`
	Name              string          `json:"name"`
	Confidence        float64         `json:"confidence"`
	Source            CandidateSource `json:"source"`
	MorphologyMatches int             `json:"morphologyMatches"`
	MorphologyRatio   float64         `json:"morphologyRatio"`
}
