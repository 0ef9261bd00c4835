// Package services contains the server-side business logic: sessions,
// uploads, analysis requests and the reconciliation of processor callbacks.
// Services compose repositories obtained from a RepositoryManager and run
// multi-row writes inside dbx.WithTx.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Callback routes the processor reports completion to. They are relative to
// the public base URL.
const (
	TranscriptionCallbackPath = "/api/webhooks/transcription/completed"
	AnalysisCallbackPath      = "/api/webhooks/analysis/completed"
)

// errStale aborts a transaction whose guarded update found the row already
// terminal, so the surrounding writes are rolled back.
var errStale = errors.New("row changed concurrently")

func callbackURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// detached keeps values of ctx but survives its cancellation. Status writes
// that follow a network call use it so an abandoned request cannot strand a
// row in an intermediate state.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

type clock func() time.Time
