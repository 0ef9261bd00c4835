package models

import "time"

// AudioFile describes an uploaded recording. The bytes live in object
// storage under StorageKey.
type AudioFile struct {
	ID               string
	UserID           string
	OriginalFileName string
	StorageKey       string
	SizeBytes        int64
	// DurationSeconds is nil until the transcription callback reports it.
	DurationSeconds *int
	Status          AudioFileStatus
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Transcription is one-to-one with an AudioFile.
type Transcription struct {
	ID     string
	FileID string
	// TextKey is the object-storage key of the produced transcript, empty until known.
	TextKey       string
	Text          string
	SpeakersCount *int
	Language      string
	Status        ProcessingStatus
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TranscriptionResult is the optional content a completion callback may carry.
type TranscriptionResult struct {
	TextKey       string
	Text          string
	SpeakersCount *int
	Language      string
}
