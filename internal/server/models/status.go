// Package models defines server-side data models persisted in the database
// and the closed enumerations that describe their lifecycle.
package models

import (
	"fmt"

	"github.com/dmitrijs2005/vat/internal/common"
)

// ProcessingStatus is the shared lifecycle of transcriptions and analyses:
//
//	pending -> processing -> {completed | failed}
//
// completed and failed are terminal.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// ParseProcessingStatus validates s against the closed status set.
func ParseProcessingStatus(s string) (ProcessingStatus, error) {
	switch st := ProcessingStatus(s); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownStatus, s)
	}
}

// ParseOutcome accepts only the terminal statuses a completion callback may report.
func ParseOutcome(s string) (ProcessingStatus, error) {
	st, err := ParseProcessingStatus(s)
	if err != nil {
		return "", err
	}
	if !st.IsTerminal() {
		return "", fmt.Errorf("%w: %q is not a terminal outcome", common.ErrUnknownStatus, s)
	}
	return st, nil
}

func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the state machine permits s -> to.
func (s ProcessingStatus) CanTransition(to ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusProcessing || to.IsTerminal()
	case StatusProcessing:
		return to.IsTerminal()
	default:
		return false
	}
}

// AudioFileStatus tracks the stored audio object. uploading exists in the
// schema but uploads are synchronous, so rows are created as uploaded.
type AudioFileStatus string

const (
	AudioUploading        AudioFileStatus = "uploading"
	AudioUploaded         AudioFileStatus = "uploaded"
	AudioProcessingFailed AudioFileStatus = "processing_failed"
	AudioDeleted          AudioFileStatus = "deleted"
)

// PaymentStatus is the bookkeeping state of a purchase intent.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentCanceled  PaymentStatus = "canceled"
)
