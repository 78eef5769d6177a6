package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/password"
	"github.com/sekolah/surat/internal/service"
	"github.com/sekolah/surat/internal/store"
)

// testEnv holds shared state for handler tests.
type testEnv struct {
	store  *store.Store
	users  *service.UserService
	router chi.Router
}

// newTestEnv mounts the handlers on a bare chi router backed by an
// in-memory store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("store.NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := password.New(bcrypt.MinCost)
	users := service.NewUserService(st, hasher, 0, logger)
	authH := NewAuthHandler(service.NewAuthService(st, hasher, logger), logger)
	userH := NewUserHandler(users, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/login", authH.Login)
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", userH.List)
		r.Post("/", userH.Create)
		r.Get("/{id}", userH.Get)
		r.Put("/{id}", userH.Update)
		r.Delete("/{id}", userH.Delete)
	})
	r.Get("/openapi.json", NewOpenAPIHandler("test", false).ServeSpec)

	return &testEnv{store: st, users: users, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) model.ErrorDetail {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error.Code != rr.Code {
		t.Errorf("envelope code = %d, HTTP status = %d", resp.Error.Code, rr.Code)
	}
	return resp.Error
}

func (e *testEnv) createUser(t *testing.T, body map[string]interface{}) model.AdminUser {
	t.Helper()
	rr := e.do(t, "POST", "/api/users", jsonBody(t, body))
	assertStatus(t, rr, http.StatusOK)
	var resp struct {
		Data model.AdminUser `json:"data"`
	}
	decodeJSON(t, rr, &resp)
	return resp.Data
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, map[string]interface{}{"name": "Aktif", "email": "aktif@sekolah.com", "password": "rahasia1"})
	env.createUser(t, map[string]interface{}{"name": "Off", "email": "off@sekolah.com", "password": "rahasia1", "is_active": false})

	tests := []struct {
		name     string
		body     string
		status   int
		errType  string
		errField string
	}{
		{"unknown email", `{"email":"x@sekolah.com","password":"rahasia1"}`, 401, "email", ""},
		{"inactive", `{"email":"off@sekolah.com","password":"rahasia1"}`, 401, "account", ""},
		{"wrong password", `{"email":"aktif@sekolah.com","password":"salah"}`, 401, "password", ""},
		{"missing password", `{"email":"aktif@sekolah.com"}`, 400, "validation", "password"},
		{"bad json", `{"email":`, 400, "validation", ""},
		{"empty body", ``, 400, "validation", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/auth/login", strings.NewReader(tt.body))
			assertStatus(t, rr, tt.status)
			e := decodeError(t, rr)
			if e.Type != tt.errType {
				t.Errorf("type = %q, want %q", e.Type, tt.errType)
			}
			if tt.errField != "" {
				if _, ok := e.Fields[tt.errField]; !ok {
					t.Errorf("fields = %v, want hint for %q", e.Fields, tt.errField)
				}
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/auth/login", strings.NewReader(`{"email":"aktif@sekolah.com","password":"rahasia1"}`))
		assertStatus(t, rr, http.StatusOK)
		body := rr.Body.String()
		if strings.Contains(body, "password") || strings.Contains(body, "created_at") {
			t.Errorf("login response should carry only the trimmed identity: %s", body)
		}
		var resp struct {
			Data model.Identity `json:"data"`
		}
		decodeJSON(t, rr, &resp)
		if resp.Data.Email != "aktif@sekolah.com" || resp.Data.ID == "" {
			t.Errorf("identity = %+v", resp.Data)
		}
	})
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t)

	u := env.createUser(t, map[string]interface{}{"name": "Guru", "email": "guru@sekolah.com", "password": "rahasia1"})
	if !u.IsActive || u.Role != model.RoleUser {
		t.Errorf("defaults not applied: %+v", u)
	}

	rr := env.do(t, "GET", "/api/users", nil)
	assertStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), "password") {
		t.Errorf("list exposes password: %s", rr.Body.String())
	}
	var list struct {
		Data []model.AdminUser `json:"data"`
	}
	decodeJSON(t, rr, &list)
	if len(list.Data) != 1 || list.Data[0].ID != u.ID {
		t.Errorf("list = %+v", list.Data)
	}

	rr = env.do(t, "GET", "/api/users/"+u.ID, nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "PUT", "/api/users/"+u.ID, strings.NewReader(`{"name":"Guru BK","password":""}`))
	assertStatus(t, rr, http.StatusOK)
	var updated struct {
		Data model.AdminUser `json:"data"`
	}
	decodeJSON(t, rr, &updated)
	if updated.Data.Name != "Guru BK" || updated.Data.Email != "guru@sekolah.com" {
		t.Errorf("update result = %+v", updated.Data)
	}

	rr = env.do(t, "DELETE", "/api/users/"+u.ID, nil)
	assertStatus(t, rr, http.StatusOK)
	var del model.SuccessResponse
	decodeJSON(t, rr, &del)
	if !del.Success {
		t.Error("delete should report success")
	}

	for _, method := range []string{"GET", "DELETE"} {
		rr = env.do(t, method, "/api/users/"+u.ID, nil)
		assertStatus(t, rr, http.StatusNotFound)
		if e := decodeError(t, rr); e.Type != "not_found" || e.Message != "User not found" {
			t.Errorf("%s after delete: %+v", method, e)
		}
	}
	rr = env.do(t, "PUT", "/api/users/"+u.ID, strings.NewReader(`{"name":"x"}`))
	assertStatus(t, rr, http.StatusNotFound)
}

func TestCreateUserErrors(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, map[string]interface{}{"name": "A", "email": "a@sekolah.com", "password": "rahasia1"})

	rr := env.do(t, "POST", "/api/users", strings.NewReader(`{"name":"B","email":"a@sekolah.com","password":"rahasia2"}`))
	assertStatus(t, rr, http.StatusBadRequest)
	if e := decodeError(t, rr); e.Type != "duplicate_email" || e.Message != "Email already exists" {
		t.Errorf("duplicate: %+v", e)
	}

	rr = env.do(t, "POST", "/api/users", strings.NewReader(`{"email":"c@sekolah.com"}`))
	assertStatus(t, rr, http.StatusBadRequest)
	e := decodeError(t, rr)
	if e.Type != "validation" || e.Message != "Name, email, and password are required" {
		t.Errorf("validation: %+v", e)
	}
	if _, ok := e.Fields["name"]; !ok {
		t.Errorf("fields = %v, want name hint", e.Fields)
	}

	rr = env.do(t, "GET", "/api/users", nil)
	var list struct {
		Data []model.AdminUser `json:"data"`
	}
	decodeJSON(t, rr, &list)
	if len(list.Data) != 1 {
		t.Errorf("got %d users after failed creates, want 1", len(list.Data))
	}
}

func TestListUsersStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.Close()

	rr := env.do(t, "GET", "/api/users", nil)
	assertStatus(t, rr, http.StatusInternalServerError)
	e := decodeError(t, rr)
	if e.Message != "Internal server error" {
		t.Errorf("message = %q, want generic", e.Message)
	}
	if strings.Contains(rr.Body.String(), "closed") {
		t.Errorf("response leaks the cause: %s", rr.Body.String())
	}
}

func TestOversizedBody(t *testing.T) {
	env := newTestEnv(t)
	big := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	rr := env.do(t, "POST", "/api/users", strings.NewReader(big))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestServeOpenAPI(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil)
	assertStatus(t, rr, http.StatusOK)

	var doc map[string]interface{}
	decodeJSON(t, rr, &doc)
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
	servers, _ := doc["servers"].([]interface{})
	if len(servers) != 1 {
		t.Fatalf("servers = %v", doc["servers"])
	}
	if url := servers[0].(map[string]interface{})["url"]; url != "http://example.com" {
		t.Errorf("server url = %v, want http://example.com", url)
	}
}
