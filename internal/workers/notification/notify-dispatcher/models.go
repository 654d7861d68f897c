// internal/workers/notification/notify-dispatcher/models.go
package notifydispatcher

import "complaint-workers/internal/models"

const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"
)

type Input struct {
	Ticket      models.Ticket `json:"ticket"`
	SearchID    string        `json:"searchId,omitempty"`
	ServiceName string        `json:"serviceName,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
	SentAt         string `json:"sentAt"`
}
