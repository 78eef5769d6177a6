package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/password"
	"github.com/sekolah/surat/internal/store"
)

type testEnv struct {
	store *store.Store
	users *UserService
	auth  *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hasher := password.New(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		store: st,
		users: NewUserService(st, hasher, 0, logger),
		auth:  NewAuthService(st, hasher, logger),
	}
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func (e *testEnv) mustCreate(t *testing.T, in model.NewUser) *model.AdminUser {
	t.Helper()
	u, err := e.users.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%s): %v", in.Email, err)
	}
	return u
}

func wantKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want.Tag())
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", got.Tag(), want.Tag(), err)
	}
}

func TestAuthenticateOutcomes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustCreate(t, model.NewUser{Name: "Aktif", Email: "aktif@sekolah.com", Password: "rahasia1"})
	env.mustCreate(t, model.NewUser{Name: "Nonaktif", Email: "off@sekolah.com", Password: "rahasia1", IsActive: boolPtr(false)})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "nobody@sekolah.com", "whatever")
		wantKind(t, err, apperr.KindUnknownEmail)
		if apperr.As(err).Message != MsgUnknownEmail {
			t.Errorf("message = %q", apperr.As(err).Message)
		}
	})

	t.Run("inactive before password", func(t *testing.T) {
		// Even a wrong password reports the inactive account.
		_, err := env.auth.Authenticate(ctx, "off@sekolah.com", "wrong-password")
		wantKind(t, err, apperr.KindAccountInactive)
		_, err = env.auth.Authenticate(ctx, "off@sekolah.com", "rahasia1")
		wantKind(t, err, apperr.KindAccountInactive)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "aktif@sekolah.com", "rahasia2")
		wantKind(t, err, apperr.KindWrongPassword)
	})

	t.Run("success", func(t *testing.T) {
		id, err := env.auth.Authenticate(ctx, "aktif@sekolah.com", "rahasia1")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		want := model.Identity{ID: id.ID, Email: "aktif@sekolah.com", Name: "Aktif", Role: model.RoleUser, IsActive: true}
		if *id != want {
			t.Errorf("identity = %+v, want %+v", *id, want)
		}
		if id.ID == "" {
			t.Error("identity should carry the user id")
		}
	})

	t.Run("email match is exact", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "AKTIF@sekolah.com", "rahasia1")
		wantKind(t, err, apperr.KindUnknownEmail)
	})
}

func TestAuthenticateRequiresBothFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		email, pw  string
		wantFields []string
	}{
		{"both empty", "", "", []string{"email", "password"}},
		{"email empty", "  ", "x", []string{"email"}},
		{"password empty", "a@b.co", "", []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Authenticate(ctx, tt.email, tt.pw)
			wantKind(t, err, apperr.KindValidation)
			e := apperr.As(err)
			if e.Message != MsgCredentialsRequired {
				t.Errorf("message = %q, want %q", e.Message, MsgCredentialsRequired)
			}
			if len(e.Fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want keys %v", e.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := e.Fields[f]; !ok {
					t.Errorf("missing field hint %q in %v", f, e.Fields)
				}
			}
		})
	}
}

func TestAuthenticateStorageFailureIsSystem(t *testing.T) {
	env := newTestEnv(t)
	env.store.Close()

	_, err := env.auth.Authenticate(context.Background(), "admin@sekolah.com", "admin123")
	wantKind(t, err, apperr.KindSystem)
	if msg := apperr.As(err).Message; msg != "Terjadi kesalahan sistem. Silakan coba lagi." {
		t.Errorf("system message = %q", msg)
	}
}

func TestSeededAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.EnsureBootstrapAdmin(ctx, model.NewUser{
		Name:     "Administrator",
		Email:    "admin@sekolah.com",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("EnsureBootstrapAdmin: %v", err)
	}
	if !created {
		t.Fatal("first bootstrap should create the account")
	}

	id, err := env.auth.Authenticate(ctx, "admin@sekolah.com", "admin123")
	if err != nil {
		t.Fatalf("Authenticate seeded admin: %v", err)
	}
	if id.Role != model.RoleAdmin || !id.IsAdmin() {
		t.Errorf("seeded admin role = %q, want admin", id.Role)
	}

	_, err = env.auth.Authenticate(ctx, "admin@sekolah.com", "wrong")
	wantKind(t, err, apperr.KindWrongPassword)
}
