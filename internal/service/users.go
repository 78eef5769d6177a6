package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/password"
	"github.com/sekolah/surat/internal/store"
)

// DefaultMinPasswordLength applies when no minimum is configured.
const DefaultMinPasswordLength = 6

const (
	msgRequiredFields = "Name, email, and password are required"
	msgEmailExists    = "Email already exists"
	msgUserNotFound   = "User not found"
)

// UserService implements account management on top of the credential store.
// It never authenticates; callers are expected to gate access themselves.
type UserService struct {
	store     *store.Store
	hasher    *password.Hasher
	minLength int
	logger    *slog.Logger
}

// NewUserService wires the user operations. minPasswordLength <= 0 selects
// DefaultMinPasswordLength.
func NewUserService(st *store.Store, hasher *password.Hasher, minPasswordLength int, logger *slog.Logger) *UserService {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: st, hasher: hasher, minLength: minPasswordLength, logger: logger}
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context) ([]model.AdminUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, s.storageError("list users", err)
	}
	return users, nil
}

// Get returns a single account.
func (s *UserService) Get(ctx context.Context, id string) (*model.AdminUser, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, s.translate("get user", err)
	}
	return u, nil
}

// Create validates the input, hashes the password and stores a new account.
// Role defaults to user and IsActive to true.
func (s *UserService) Create(ctx context.Context, in model.NewUser) (*model.AdminUser, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	fields := map[string]string{}
	if name == "" {
		fields["name"] = "Name is required"
	}
	if email == "" {
		fields["email"] = "Email is required"
	}
	if strings.TrimSpace(in.Password) == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(msgRequiredFields, fields)
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &model.AdminUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         strings.TrimSpace(in.Role),
		IsActive:     true,
	}
	if u.Role == "" {
		u.Role = model.DefaultRole
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, s.translate("create user", err)
	}
	s.logger.Info("user created", "id", u.ID, "email", u.Email, "role", u.Role)
	return u, nil
}

// Update applies patch to the account with the given id. Present fields are
// written as given; absent ones are kept. A blank password keeps the hash.
func (s *UserService) Update(ctx context.Context, id string, patch model.UserPatch) (*model.AdminUser, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, s.translate("update user", err)
	}

	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		u.Role = strings.TrimSpace(*patch.Role)
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	if patch.Password != nil && strings.TrimSpace(*patch.Password) != "" {
		if err := s.checkPassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, s.translate("update user", err)
	}
	s.logger.Info("user updated", "id", u.ID)
	return u, nil
}

// Delete removes the account permanently.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return s.translate("delete user", err)
	}
	s.logger.Info("user deleted", "id", id)
	return nil
}

// EnsureBootstrapAdmin creates the account described by in unless one with
// the same email already exists. An existing account is never modified.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, in model.NewUser) (bool, error) {
	email := strings.TrimSpace(in.Email)
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, s.storageError("bootstrap lookup", err)
	}

	if in.Role == "" {
		in.Role = model.RoleAdmin
	}
	u, err := s.Create(ctx, in)
	if err != nil {
		// Lost a race with another seeder; the account exists either way.
		if apperr.KindOf(err) == apperr.KindDuplicateEmail {
			return false, nil
		}
		return false, err
	}
	s.logger.Info("bootstrap admin created", "email", u.Email)
	return true, nil
}

// MinPasswordLength returns the configured minimum password length.
func (s *UserService) MinPasswordLength() int { return s.minLength }

func (s *UserService) checkPassword(pw string) error {
	if len(pw) < s.minLength {
		msg := fmt.Sprintf("Password must be at least %d characters", s.minLength)
		return apperr.Validation(msg, map[string]string{"password": msg})
	}
	return nil
}

func (s *UserService) hash(pw string) (string, error) {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			msg := "Password must be at most 72 bytes"
			return "", apperr.Validation(msg, map[string]string{"password": msg})
		}
		return "", apperr.System(err)
	}
	return hash, nil
}

// translate maps store sentinels onto the error taxonomy.
func (s *UserService) translate(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(msgUserNotFound)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.DuplicateEmail(msgEmailExists, err)
	default:
		return s.storageError(op, err)
	}
}

func (s *UserService) storageError(op string, err error) error {
	s.logger.Error(op+" failed", "error", err)
	return apperr.Storage(fmt.Errorf("%s: %w", op, err))
}
