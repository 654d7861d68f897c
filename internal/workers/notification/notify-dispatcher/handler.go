// internal/workers/notification/notify-dispatcher/handler.go
package notifydispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	awsutil "complaint-workers/internal/common/aws"
	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/catalog"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-dispatcher"
)

// SnapshotReader resolves service names for tickets that carry only an id.
type SnapshotReader interface {
	Snapshot() *catalog.Snapshot
}

type Handler struct {
	config    *Config
	catalog   SnapshotReader
	sesClient awsutil.SESService
	snsClient awsutil.SNSService
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, cat SnapshotReader, ses awsutil.SESService, sns awsutil.SNSService, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		catalog:   cat,
		sesClient: ses,
		snsClient: sns,
		errors:    apperrors.NewErrorHandler(l),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// execute sends the ticket summary over every enabled channel. It fails only
// when every attempted channel failed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Ticket.CatalogID <= 0 {
		return nil, apperrors.NewInvalidInputError("ticket.catalogId must be positive")
	}

	data := h.templateData(input)
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	attempted, failed := 0, 0
	var lastErr error

	if h.config.EmailEnabled && h.config.ToEmail != "" && h.sesClient != nil {
		attempted++
		subject := renderTemplate(h.config.SubjectTemplate, data)
		body := renderTemplate(h.config.BodyTemplate, data)
		id, err := awsutil.SendTextEmail(ctx, h.sesClient, h.config.FromEmail, h.config.ToEmail, subject, body)
		if err != nil {
			failed++
			lastErr = apperrors.NewNotificationSendFailedError("email", err)
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"to":    h.config.ToEmail,
			})
		} else {
			output.EmailMessageID = id
		}
	}

	if h.config.SMSEnabled && h.config.PhoneNumber != "" && h.snsClient != nil &&
		input.Ticket.Confidence >= h.config.SMSMinConfidence {
		attempted++
		id, err := awsutil.SendSMS(ctx, h.snsClient, h.config.PhoneNumber, renderTemplate(h.config.SMSTemplate, data))
		if err != nil {
			failed++
			lastErr = apperrors.NewNotificationSendFailedError("sms", err)
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": h.config.PhoneNumber,
			})
		} else {
			output.SMSMessageID = id
		}
	}

	switch {
	case attempted == 0:
		output.Status = StatusDisabled
	case failed == attempted:
		return nil, lastErr
	case failed > 0:
		output.Status = StatusPartial
	default:
		output.Status = StatusSent
	}

	h.logger.Info("dispatcher notified", map[string]interface{}{
		"notificationId": output.NotificationID,
		"catalogId":      input.Ticket.CatalogID,
		"status":         output.Status,
	})
	return output, nil
}

func (h *Handler) templateData(input *Input) map[string]interface{} {
	t := input.Ticket
	name := input.ServiceName
	if name == "" && h.catalog != nil {
		if snap := h.catalog.Snapshot(); snap != nil {
			if e, ok := snap.Entry(t.CatalogID); ok {
				name = e.Name
			}
		}
	}
	if name == "" {
		name = "#" + strconv.FormatInt(t.CatalogID, 10)
	}

	data := map[string]interface{}{
		"serviceName":   name,
		"catalogId":     t.CatalogID,
		"confidence":    strconv.FormatFloat(t.Confidence, 'f', 3, 64),
		"scope":         string(t.Scope),
		"complaintText": t.ComplaintText,
		"searchId":      input.SearchID,
	}
	if t.UnitReference != nil {
		data["unitReference"] = *t.UnitReference
	}
	return data
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// renderTemplate fills {{key}} placeholders in a single left-to-right pass
// and drops unknown ones. Substituted values are never scanned again.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		key := rest[start+2 : start+2+end]
		switch x := data[key].(type) {
		case string:
			b.WriteString(x)
		case nil:
		default:
			fmt.Fprintf(&b, "%v", x)
		}
		rest = rest[start+2+end+2:]
	}
	b.WriteString(rest)
	return strings.TrimSpace(b.String())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
