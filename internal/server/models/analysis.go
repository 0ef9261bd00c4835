package models

import "time"

// Analysis is unique per (TranscriptionID, Type).
type Analysis struct {
	ID              string
	TranscriptionID string
	Type            AnalysisType
	DocxKey         string
	PdfKey          string
	Text            string
	Summary         string
	KeyPoints       []string
	Status          ProcessingStatus
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AnalysisResult is the optional content an analysis callback may carry.
type AnalysisResult struct {
	DocxKey string
	PdfKey  string
	Text    string
	Summary string
}

// DocumentFormat is a downloadable analysis artifact format.
type DocumentFormat string

const (
	FormatDocx DocumentFormat = "docx"
	FormatPdf  DocumentFormat = "pdf"
)
