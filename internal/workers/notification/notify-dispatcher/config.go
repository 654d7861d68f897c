// internal/workers/notification/notify-dispatcher/config.go
package notifydispatcher

import (
	"time"

	"complaint-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration

	EmailEnabled bool
	FromEmail    string
	ToEmail      string

	SMSEnabled  bool
	PhoneNumber string
	// SMS goes out only for tickets at or above this confidence.
	SMSMinConfidence float64

	SubjectTemplate string
	BodyTemplate    string
	SMSTemplate     string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          15 * time.Second,
		SMSMinConfidence: 0.8,
		SubjectTemplate:  "Новая заявка: {{serviceName}}",
		BodyTemplate: "Услуга: {{serviceName}} (id {{catalogId}})\n" +
			"Уверенность: {{confidence}}\n" +
			"Область: {{scope}}\n" +
			"Квартира: {{unitReference}}\n" +
			"Текст обращения: {{complaintText}}\n" +
			"Поиск: {{searchId}}",
		SMSTemplate: "Заявка {{serviceName}}, {{scope}} {{unitReference}}: {{complaintText}}",
	}
}

// FromNotifications fills the channel settings from the application config.
func FromNotifications(n config.NotificationConfig) *Config {
	c := LoadConfig()
	c.EmailEnabled = n.Email.Enabled
	c.FromEmail = n.Email.FromEmail
	c.ToEmail = n.Email.ToEmail
	c.SMSEnabled = n.SMS.Enabled
	c.PhoneNumber = n.SMS.PhoneNumber
	if n.SMS.MinConfidence > 0 {
		c.SMSMinConfidence = n.SMS.MinConfidence
	}
	return c
}
