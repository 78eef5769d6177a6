package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
)

func TestAuthenticateSuccess(t *testing.T) {
	want := model.Identity{ID: "u-1", Email: "admin@sekolah.com", Name: "Administrator", Role: "admin", IsActive: true}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "admin@sekolah.com" || body["password"] != "admin123" {
			t.Errorf("unexpected body %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.DataResponse{Data: want})
	}))
	defer srv.Close()

	got, err := New(srv.URL+"/").Authenticate(context.Background(), "admin@sekolah.com", "admin123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if *got != want {
		t.Errorf("identity = %+v, want %+v", *got, want)
	}
}

func TestAuthenticateServerErrors(t *testing.T) {
	tests := []struct {
		status int
		tag    string
		kind   apperr.Kind
	}{
		{http.StatusUnauthorized, "email", apperr.KindUnknownEmail},
		{http.StatusUnauthorized, "account", apperr.KindAccountInactive},
		{http.StatusUnauthorized, "password", apperr.KindWrongPassword},
		{http.StatusBadRequest, "validation", apperr.KindValidation},
		{http.StatusInternalServerError, "system", apperr.KindSystem},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(model.ErrorResponse{Error: model.ErrorDetail{
					Code:    tt.status,
					Message: "pesan " + tt.tag,
					Type:    tt.tag,
				}})
			}))
			defer srv.Close()

			_, err := New(srv.URL).Authenticate(context.Background(), "a@b.co", "rahasia")
			e := apperr.As(err)
			if e == nil || e.Kind != tt.kind {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if e.Message != "pesan "+tt.tag {
				t.Errorf("message = %q", e.Message)
			}
		})
	}
}

func TestAuthenticateUnreadableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Authenticate(context.Background(), "a@b.co", "rahasia")
	if apperr.KindOf(err) != apperr.KindConnection {
		t.Errorf("kind = %v, want KindConnection", apperr.KindOf(err))
	}
}

func TestAuthenticateServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Authenticate(context.Background(), "a@b.co", "rahasia")
	if apperr.KindOf(err) != apperr.KindConnection {
		t.Fatalf("kind = %v, want KindConnection", apperr.KindOf(err))
	}
	if msg := apperr.As(err).Message; msg != "Koneksi ke server gagal. Periksa koneksi internet Anda." {
		t.Errorf("message = %q", msg)
	}
}
