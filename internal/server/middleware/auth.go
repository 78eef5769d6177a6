package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
)

// Authenticator checks a credential pair. *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
}

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated identity.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
	holderKey        contextKeyAuth = "auth_principal_holder"
)

const basicRealm = `Basic realm="surat", charset="UTF-8"`

// RequireBasicAdmin guards a route group with HTTP Basic credentials. The
// pair is checked by auth and the account must carry the admin role.
// Missing or rejected credentials get 401; a non-admin account gets 403.
func RequireBasicAdmin(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", basicRealm)
				writeAuthError(w, http.StatusUnauthorized, "system", "Authentication required")
				return
			}

			id, err := auth.Authenticate(r.Context(), email, password)
			if err != nil {
				e := apperr.As(err)
				if !e.Kind.IsAuthFailure() && e.Kind != apperr.KindValidation {
					writeAuthError(w, e.Kind.HTTPStatus(), e.Kind.Tag(), e.Message)
					return
				}
				w.Header().Set("WWW-Authenticate", basicRealm)
				writeAuthError(w, http.StatusUnauthorized, e.Kind.Tag(), e.Message)
				return
			}
			if !id.IsAdmin() {
				writeAuthError(w, http.StatusForbidden, "system", "Admin access required")
				return
			}

			if h, ok := r.Context().Value(holderKey).(*principalHolder); ok {
				h.set(id)
			}
			ctx := context.WithValue(r.Context(), AuthPrincipalKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated identity from the context.
// Returns nil when the request did not pass through the admin gate.
func GetPrincipal(ctx context.Context) *model.Identity {
	if p, ok := ctx.Value(AuthPrincipalKey).(*model.Identity); ok {
		return p
	}
	return nil
}

// principalHolder lets outer middleware see the identity set by an inner one.
type principalHolder struct {
	mu sync.Mutex
	id *model.Identity
}

func (h *principalHolder) set(id *model.Identity) {
	h.mu.Lock()
	h.id = id
	h.mu.Unlock()
}

func (h *principalHolder) get() *model.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

func writeAuthError(w http.ResponseWriter, status int, tag, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message, Type: tag},
	})
}
