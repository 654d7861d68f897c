// internal/workers/complaint/match-complaint/handler.go
package matchcomplaint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/search"
	"complaint-workers/internal/matching/ticket"
	"complaint-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "match-complaint"
)

// Searcher runs one complaint search.
type Searcher interface {
	Search(ctx context.Context, complaint, contextLabel string) (*search.Outcome, error)
}

type Handler struct {
	config   *Config
	searcher Searcher
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		searcher: searcher,
		errors:   apperrors.NewErrorHandler(l),
		logger:   l,
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

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	complaint := strings.TrimSpace(input.ComplaintText)
	if complaint == "" && len(input.Turns) > 0 {
		complaint = ticket.BuildComplaintText(input.Turns)
	}
	contextLabel := input.ContextLabel
	if contextLabel == "" {
		contextLabel = h.config.DefaultContext
	}

	outcome, err := h.searcher.Search(ctx, complaint, contextLabel)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Outcome:        OutcomeNoMatch,
		SearchID:       outcome.SearchID,
		ComplaintText:  complaint,
		Tokens:         models.Raws(outcome.Tokens),
		Candidates:     outcome.Candidates,
		CatalogVersion: outcome.CatalogVersion,
		Degraded:       outcome.Degraded,
	}
	if top, ok := outcome.Top(); ok {
		output.Outcome = OutcomeMatched
		output.TopCandidate = &top
	}

	h.logger.Info("complaint matched", map[string]interface{}{
		"searchId":   output.SearchID,
		"outcome":    output.Outcome,
		"candidates": len(output.Candidates),
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
