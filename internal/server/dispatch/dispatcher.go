package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/models"
)

const (
	ActionTranscribe = "transcribe"
	ActionAnalyze    = "analyze"
)

// TranscriptionTask asks the processor to transcribe an uploaded file.
type TranscriptionTask struct {
	Action          string `json:"action"`
	FileID          string `json:"file_id"`
	TranscriptionID string `json:"transcription_id"`
	UserID          string `json:"user_id"`
	SourceKey       string `json:"source_key"`
	SourceURL       string `json:"source_url"`
	CallbackURL     string `json:"callback_url"`
	CallbackToken   string `json:"callback_token,omitempty"`
}

// AnalysisTask asks the processor to run one analysis over a transcript.
type AnalysisTask struct {
	Action          string              `json:"action"`
	AnalysisID      string              `json:"analysis_id"`
	AnalysisType    models.AnalysisType `json:"analysis_type"`
	TranscriptionID string              `json:"transcription_id"`
	FileID          string              `json:"file_id"`
	UserID          string              `json:"user_id"`
	SourceKey       string              `json:"source_key"`
	SourceURL       string              `json:"source_url"`
	CallbackURL     string              `json:"callback_url"`
	CallbackToken   string              `json:"callback_token,omitempty"`
}

// Dispatcher delivers work items. A nil error means the processor
// acknowledged the item; it says nothing about the eventual outcome.
type Dispatcher interface {
	DispatchTranscription(ctx context.Context, task TranscriptionTask) error
	DispatchAnalysis(ctx context.Context, task AnalysisTask) error
}

// HTTPDispatcher POSTs tasks as JSON. Only HTTP 200 counts as an
// acknowledgment; every other outcome wraps common.ErrDispatchFailure.
type HTTPDispatcher struct {
	client  *http.Client
	targets *Targets
	log     logging.Logger
}

func NewHTTPDispatcher(targets *Targets, timeout time.Duration, log logging.Logger) *HTTPDispatcher {
	return &HTTPDispatcher{
		client:  &http.Client{Timeout: timeout},
		targets: targets,
		log:     log.With("module", "dispatch"),
	}
}

func (d *HTTPDispatcher) DispatchTranscription(ctx context.Context, task TranscriptionTask) error {
	task.Action = ActionTranscribe
	return d.post(ctx, d.targets.Transcription(), task, "file_id", task.FileID)
}

func (d *HTTPDispatcher) DispatchAnalysis(ctx context.Context, task AnalysisTask) error {
	target, ok := d.targets.Analysis(task.AnalysisType)
	if !ok {
		return fmt.Errorf("%w: no target for analysis type %q", common.ErrDispatchFailure, task.AnalysisType)
	}
	task.Action = ActionAnalyze
	return d.post(ctx, target, task, "analysis_id", task.AnalysisID, "analysis_type", task.AnalysisType)
}

func (d *HTTPDispatcher) post(ctx context.Context, target string, payload any, logArgs ...any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", common.ErrDispatchFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", common.ErrDispatchFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Error(ctx, "dispatch failed", append(logArgs, "error", err)...)
		return fmt.Errorf("%w: %v", common.ErrDispatchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.log.Error(ctx, "dispatch rejected", append(logArgs, "status", resp.StatusCode, "body", string(snippet))...)
		return fmt.Errorf("%w: processor answered %d", common.ErrDispatchFailure, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	d.log.Info(ctx, "dispatched", append(logArgs, "took", time.Since(start))...)
	return nil
}
