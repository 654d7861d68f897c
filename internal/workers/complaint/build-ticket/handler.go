// internal/workers/complaint/build-ticket/handler.go
package buildticket

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/ticket"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "build-ticket"
)

type Handler struct {
	config    *Config
	assembler *ticket.Assembler
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, assembler *ticket.Assembler, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		assembler: assembler,
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

	var variables map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &variables); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, variables)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// execute builds the ticket from the process variables. catalogId and
// confidence fall back to topCandidate (match-complaint output) and
// complaintText falls back to the joined turns.
func (h *Handler) execute(_ context.Context, variables map[string]interface{}) (*Output, error) {
	req := make(map[string]interface{}, len(ticketFields))
	for _, f := range ticketFields {
		if v, ok := variables[f]; ok {
			req[f] = v
		}
	}

	if top, ok := variables["topCandidate"].(map[string]interface{}); ok {
		if _, set := req["catalogId"]; !set {
			req["catalogId"] = top["entryId"]
		}
		if _, set := req["confidence"]; !set {
			req["confidence"] = top["confidence"]
		}
	}

	if _, set := req["complaintText"]; !set {
		if turns, ok := variables["turns"].([]interface{}); ok {
			parts := make([]string, 0, len(turns))
			for _, t := range turns {
				if s, ok := t.(string); ok {
					parts = append(parts, s)
				}
			}
			req["complaintText"] = ticket.BuildComplaintText(parts)
		}
	}

	t, err := h.assembler.BuildFromMap(req)
	if err != nil {
		return nil, err
	}

	h.logger.Info("ticket built", map[string]interface{}{
		"catalogId":  t.CatalogID,
		"confidence": t.Confidence,
		"scope":      t.Scope,
	})
	return &Output{Ticket: *t}, nil
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

func (h *Handler) Execute(ctx context.Context, variables map[string]interface{}) (*Output, error) {
	return h.execute(ctx, variables)
}
