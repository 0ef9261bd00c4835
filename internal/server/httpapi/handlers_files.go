package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// multipartSlack covers multipart boundaries and headers on top of the file.
const multipartSlack = 1 << 20

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes + multipartSlack
	if r.ContentLength > limit {
		s.writeError(w, r, fmt.Errorf("%w: request is %d bytes", common.ErrFileTooLarge, r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, common.ErrFileTooLarge)
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: invalid multipart form: %v", common.ErrorValidation, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: form field \"file\" is required", common.ErrorValidation))
		return
	}
	defer file.Close()

	f, err := s.svc.Files.SubmitAudio(r.Context(), currentUser(r).ID, services.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toFile(f))
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.Files.ListFiles(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFile(f))
	}
	_ = writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.Files.GetFile(r.Context(), currentUser(r).ID, chi.URLParam(r, "fileID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toFile(f))
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Files.DeleteFile(r.Context(), currentUser(r).ID, chi.URLParam(r, "fileID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "file deleted"})
}

func (s *Server) handleGetTranscription(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Files.GetTranscription(r.Context(), currentUser(r).ID, chi.URLParam(r, "fileID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toTranscription(t))
}
