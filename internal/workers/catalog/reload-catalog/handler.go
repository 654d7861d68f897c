// internal/workers/catalog/reload-catalog/handler.go
package reloadcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/catalog"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "reload-catalog"
)

type CatalogReloader interface {
	Reload(ctx context.Context) (*catalog.Snapshot, error)
}

type DictionaryReloader interface {
	Reload() error
}

type Handler struct {
	config     *Config
	catalog    CatalogReloader
	dictionary DictionaryReloader
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, cat CatalogReloader, dict DictionaryReloader, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		catalog:    cat,
		dictionary: dict,
		errors:     apperrors.NewErrorHandler(l),
		logger:     l,
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
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
			return
		}
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// execute reloads the dictionary first so the new catalog is built under it.
// A failed catalog reload keeps serving the previous snapshot but still fails
// the job.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{}

	if input.ReloadDictionary && h.dictionary != nil {
		if err := h.dictionary.Reload(); err != nil {
			return nil, err
		}
		output.DictionaryReloaded = true
	}

	snap, err := h.catalog.Reload(ctx)
	if err != nil {
		return nil, err
	}

	output.CatalogVersion = snap.Version
	output.CatalogEntries = snap.Len()
	output.CatalogSource = snap.Source
	output.LoadedAt = snap.LoadedAt.Format(time.RFC3339)

	h.logger.Info("catalog reloaded", map[string]interface{}{
		"version":            output.CatalogVersion,
		"entries":            output.CatalogEntries,
		"dictionaryReloaded": output.DictionaryReloaded,
	})
	return output, nil
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
