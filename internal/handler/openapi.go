package handler

import (
	"net/http"

	"github.com/sekolah/surat/internal/openapi"
)

// OpenAPIHandler serves the API description.
type OpenAPIHandler struct {
	version      string
	protectUsers bool
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(version string, protectUsers bool) *OpenAPIHandler {
	return &OpenAPIHandler{version: version, protectUsers: protectUsers}
}

// ServeSpec returns the OpenAPI document with the server URL taken from the
// request.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Generate(openapi.Options{
		BaseURL:      baseURL(r),
		Version:      h.version,
		ProtectUsers: h.protectUsers,
	})
	writeJSON(w, http.StatusOK, doc)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
