package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/password"
	"github.com/sekolah/surat/internal/store"
)

// User-facing login messages.
const (
	MsgCredentialsRequired = "Email dan password harus diisi"
	MsgEmailRequired       = "Email harus diisi"
	MsgPasswordRequired    = "Password harus diisi"
	MsgUnknownEmail        = "Email tidak ditemukan"
	MsgAccountInactive     = "Akun Anda tidak aktif. Hubungi administrator."
	MsgWrongPassword       = "Password salah"
)

// AuthService checks credentials against the credential store.
type AuthService struct {
	store  *store.Store
	hasher *password.Hasher
	logger *slog.Logger
}

func NewAuthService(st *store.Store, hasher *password.Hasher, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{store: st, hasher: hasher, logger: logger}
}

// Authenticate verifies email and password. The checks run in a fixed order:
// account exists, account active, password matches. The first failing check
// decides the error kind. On success only the trimmed identity is returned.
func (s *AuthService) Authenticate(ctx context.Context, email, pw string) (*model.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || pw == "" {
		fields := map[string]string{}
		if email == "" {
			fields["email"] = MsgEmailRequired
		}
		if pw == "" {
			fields["password"] = MsgPasswordRequired
		}
		loginAttempts.WithLabelValues(OutcomeInvalid).Inc()
		return nil, apperr.Validation(MsgCredentialsRequired, fields)
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			loginAttempts.WithLabelValues(OutcomeUnknownEmail).Inc()
			s.logger.Debug("login rejected", "email", email, "reason", "unknown email")
			return nil, apperr.UnknownEmail(MsgUnknownEmail)
		}
		loginAttempts.WithLabelValues(OutcomeError).Inc()
		s.logger.Error("login lookup failed", "email", email, "error", err)
		return nil, apperr.System(err)
	}

	if !u.IsActive {
		loginAttempts.WithLabelValues(OutcomeInactive).Inc()
		s.logger.Debug("login rejected", "email", email, "reason", "inactive")
		return nil, apperr.AccountInactive(MsgAccountInactive)
	}

	if !s.hasher.Verify(pw, u.PasswordHash) {
		loginAttempts.WithLabelValues(OutcomeWrongPassword).Inc()
		s.logger.Debug("login rejected", "email", email, "reason", "wrong password")
		return nil, apperr.WrongPassword(MsgWrongPassword)
	}

	loginAttempts.WithLabelValues(OutcomeSuccess).Inc()
	s.logger.Info("login succeeded", "user_id", u.ID, "email", u.Email)
	id := u.Identity()
	return &id, nil
}
