// internal/workers/complaint/build-ticket/models.go
package buildticket

import "complaint-workers/internal/models"

// ticketFields are the job variables copied into the ticket request.
var ticketFields = []string{"catalogId", "confidence", "complaintText", "unitReference", "scope"}

type Output struct {
	Ticket models.Ticket `json:"ticket"`
}
