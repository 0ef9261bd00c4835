package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vat/internal/common"
)

// parseJSON decodes the request body into model. Decoding errors are
// validation errors.
func parseJSON(r *http.Request, model any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing request body", common.ErrorValidation)
	}
	if err := json.NewDecoder(r.Body).Decode(model); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", common.ErrorValidation, tooLarge.Limit)
		}
		return fmt.Errorf("%w: malformed JSON: %v", common.ErrorValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
