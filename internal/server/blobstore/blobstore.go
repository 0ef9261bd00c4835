// Package blobstore keeps audio, transcript and analysis documents in an
// S3-compatible object store and hands out time-limited download links.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

// Store is the object storage used by the services.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that grants read access to key for ttl.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var audioContentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
}

// AudioContentType maps an extension (with or without the dot) to a MIME
// type, falling back to audio/mpeg.
func AudioContentType(ext string) string {
	if ct, ok := audioContentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return ct
	}
	return "audio/mpeg"
}

const TextContentType = "text/plain; charset=utf-8"

func DocumentContentType(f models.DocumentFormat) string {
	if f == models.FormatDocx {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// AudioKey lays audio out as audio/{user}/{yyyy}/{mm}/{file}.{ext}.
func AudioKey(userID, fileID, ext string, at time.Time) string {
	at = at.UTC()
	name := fileID + "." + strings.ToLower(strings.TrimPrefix(ext, "."))
	return path.Join("audio", userID, fmt.Sprintf("%04d", at.Year()), fmt.Sprintf("%02d", int(at.Month())), name)
}

func TranscriptKey(transcriptionID string, at time.Time) string {
	at = at.UTC()
	return path.Join("transcriptions", fmt.Sprintf("%04d", at.Year()), fmt.Sprintf("%02d", int(at.Month())), transcriptionID+".txt")
}

func AnalysisKey(analysisID string, f models.DocumentFormat, at time.Time) string {
	at = at.UTC()
	return path.Join("analyses", fmt.Sprintf("%04d", at.Year()), fmt.Sprintf("%02d", int(at.Month())), analysisID+"."+string(f))
}
