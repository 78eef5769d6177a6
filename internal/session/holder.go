// Package session keeps the identity of the signed-in administrator on the
// client side. The cached identity is a convenience for the console, not a
// credential: every protected operation is still checked by the server.
package session

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
)

// Authenticator verifies credentials and returns the trimmed identity.
// *service.AuthService and *client.Client both satisfy it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
}

// Login form messages.
const (
	msgEmailRequired    = "Email harus diisi"
	msgEmailFormat      = "Format email tidak valid"
	msgPasswordRequired = "Password harus diisi"
	msgPasswordShort    = "Password minimal 6 karakter"
)

// MinPasswordLength is the length checked before a sign-in is attempted.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Holder caches the current identity and mirrors it into a Persistence.
// The zero value is not usable; call New.
type Holder struct {
	auth   Authenticator
	store  Persistence
	logger *slog.Logger

	mu          sync.RWMutex
	current     *model.Identity
	initialized bool
	inflight    int
}

// New returns a Holder that reports Loading until Init has run.
func New(auth Authenticator, p Persistence) *Holder {
	return &Holder{auth: auth, store: p, logger: slog.Default()}
}

// WithLogger replaces the logger used for persistence warnings.
func (h *Holder) WithLogger(l *slog.Logger) *Holder {
	h.logger = l
	return h
}

// Init restores a previously persisted identity. A corrupt entry is removed
// and the holder starts signed out. Init never fails.
func (h *Holder) Init() {
	id, err := Load(h.store)
	if err != nil {
		h.logger.Warn("discarding persisted identity", "error", err)
		if err := Clear(h.store); err != nil {
			h.logger.Warn("clear persisted identity", "error", err)
		}
		id = nil
	}

	h.mu.Lock()
	h.current = id
	h.initialized = true
	h.mu.Unlock()
}

// Current returns a copy of the signed-in identity, or nil.
func (h *Holder) Current() *model.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil
	}
	id := *h.current
	return &id
}

// Loading reports whether Init has not finished or a SignIn is in flight.
func (h *Holder) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.initialized || h.inflight > 0
}

// SignIn checks the form input, then asks the Authenticator. On success the
// identity becomes current and is persisted. On failure the previous state
// is kept and the returned error is an *apperr.Error.
func (h *Holder) SignIn(ctx context.Context, email, password string) error {
	if err := validateForm(email, password); err != nil {
		return err
	}

	h.mu.Lock()
	h.inflight++
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.inflight--
		h.mu.Unlock()
	}()

	id, err := h.auth.Authenticate(ctx, email, password)
	if err != nil {
		return apperr.As(err)
	}
	if id == nil {
		return apperr.System(nil)
	}

	if err := Save(h.store, *id); err != nil {
		h.logger.Warn("persist identity", "error", err)
	}

	h.mu.Lock()
	cp := *id
	h.current = &cp
	h.mu.Unlock()
	return nil
}

// SignOut forgets the identity in memory and in persistence.
func (h *Holder) SignOut() {
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()

	if err := Clear(h.store); err != nil {
		h.logger.Warn("clear persisted identity", "error", err)
	}
}

func validateForm(email, password string) error {
	fields := map[string]string{}
	switch {
	case email == "":
		fields["email"] = msgEmailRequired
	case !emailPattern.MatchString(email):
		fields["email"] = msgEmailFormat
	}
	switch {
	case password == "":
		fields["password"] = msgPasswordRequired
	case len(password) < MinPasswordLength:
		fields["password"] = msgPasswordShort
	}
	if len(fields) == 0 {
		return nil
	}
	msg := fields["email"]
	if msg == "" {
		msg = fields["password"]
	}
	return apperr.Validation(msg, fields)
}
