package morphology

import (
	"context"
	"strings"

	apperrors "complaint-workers/internal/common/errors"
	httpclient "complaint-workers/internal/common/http"
	"complaint-workers/internal/models"
)

// RemoteAnalyzer calls an HTTP morphology service:
//
//	POST {baseURL}/analyze {"token": "..."} -> {"lemma": "...", "pos": "NOUN"}
type RemoteAnalyzer struct {
	client *httpclient.Client
}

type analyzeRequest struct {
	Token string `json:"token"`
}

type analyzeResponse struct {
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
}

func NewRemoteAnalyzer(client *httpclient.Client) *RemoteAnalyzer {
	return &RemoteAnalyzer{client: client}
}

func (a *RemoteAnalyzer) Analyze(ctx context.Context, token string) (Result, error) {
	var resp analyzeResponse
	if err := a.client.PostJSON(ctx, "/analyze", analyzeRequest{Token: token}, &resp); err != nil {
		return Result{}, apperrors.NewMorphologyUnavailableError(token, err)
	}

	lemma := strings.ToLower(strings.TrimSpace(resp.Lemma))
	if lemma == "" {
		lemma = token
	}
	pos := models.PartOfSpeech(strings.ToUpper(resp.POS))
	if pos == "" {
		pos = models.POSUnknown
	}
	return Result{Lemma: lemma, POS: pos}, nil
}
