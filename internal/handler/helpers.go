package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// user record.
const maxBodyBytes = 64 << 10

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes e using the standard error envelope. The status code
// comes from the error kind.
func writeError(w http.ResponseWriter, e *apperr.Error) {
	status := e.Kind.HTTPStatus()
	writeJSON(w, status, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    status,
			Message: e.Message,
			Type:    e.Kind.Tag(),
			Fields:  e.Fields,
		},
	})
}

// respondError classifies err, logs server-side failures with their cause,
// and writes the envelope.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e := apperr.As(err)
	if e.Kind.HTTPStatus() >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", e.Kind.Tag(),
			"error", err,
		)
	}
	writeError(w, e)
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required", nil)
		case errors.As(err, &maxErr):
			return apperr.Validation(fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), nil)
		default:
			return apperr.Validation("Invalid request body: "+err.Error(), nil)
		}
	}
	return nil
}
