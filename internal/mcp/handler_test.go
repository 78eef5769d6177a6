package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/sekolah/surat/internal/model"
	"github.com/sekolah/surat/internal/password"
	"github.com/sekolah/surat/internal/service"
	"github.com/sekolah/surat/internal/store"
)

func newTestServer(t *testing.T) *MCPServer {
	t.Helper()
	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("store.NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := service.NewUserService(st, password.New(bcrypt.MinCost), 0, logger)
	return NewMCPServer(users, "test", logger)
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func mustCreate(t *testing.T, s *MCPServer, args map[string]interface{}) model.AdminUser {
	t.Helper()
	res, err := s.handleCreateUser(context.Background(), callRequest(args))
	if err != nil {
		t.Fatalf("handleCreateUser: %v", err)
	}
	if res.IsError {
		t.Fatalf("create failed: %s", resultText(t, res))
	}
	var u model.AdminUser
	if err := json.Unmarshal([]byte(resultText(t, res)), &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return u
}

func TestCreateAndListUsers(t *testing.T) {
	s := newTestServer(t)
	u := mustCreate(t, s, map[string]interface{}{
		"name": "Guru", "email": "guru@sekolah.com", "password": "rahasia1",
	})
	if u.Role != model.RoleUser || !u.IsActive {
		t.Errorf("defaults not applied: %+v", u)
	}

	res, err := s.handleListUsers(context.Background(), callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("list: err=%v result=%+v", err, res)
	}
	text := resultText(t, res)
	if strings.Contains(text, "password") {
		t.Errorf("list leaks password data: %s", text)
	}
	var users []model.AdminUser
	if err := json.Unmarshal([]byte(text), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 1 || users[0].ID != u.ID {
		t.Errorf("users = %+v", users)
	}
}

func TestCreateUserValidation(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleCreateUser(context.Background(), callRequest(map[string]interface{}{
		"email": "x@sekolah.com",
	}))
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "validation:") || !strings.Contains(text, `"name"`) {
		t.Errorf("error text = %q", text)
	}

	res, _ = s.handleCreateUser(context.Background(), callRequest(map[string]interface{}{
		"name": "A", "email": "a@sekolah.com", "password": "rahasia1", "is_active": "yes",
	}))
	if !res.IsError {
		t.Error("non-boolean is_active should be rejected")
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestServer(t)
	args := map[string]interface{}{"name": "A", "email": "a@sekolah.com", "password": "rahasia1"}
	mustCreate(t, s, args)

	res, _ := s.handleCreateUser(context.Background(), callRequest(args))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "duplicate_email:") {
		t.Errorf("duplicate create = %+v", res)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	s := newTestServer(t)
	u := mustCreate(t, s, map[string]interface{}{
		"name": "Guru", "email": "guru@sekolah.com", "password": "rahasia1",
	})

	res, _ := s.handleUpdateUser(context.Background(), callRequest(map[string]interface{}{
		"id": u.ID, "is_active": false, "password": "",
	}))
	if res.IsError {
		t.Fatalf("update: %s", resultText(t, res))
	}
	var got model.AdminUser
	json.Unmarshal([]byte(resultText(t, res)), &got)
	if got.IsActive || got.Name != "Guru" || got.Email != "guru@sekolah.com" {
		t.Errorf("after update = %+v", got)
	}

	res, _ = s.handleUpdateUser(context.Background(), callRequest(map[string]interface{}{"id": u.ID}))
	if !res.IsError {
		t.Error("empty patch should be rejected")
	}

	res, _ = s.handleUpdateUser(context.Background(), callRequest(map[string]interface{}{
		"id": "missing", "name": "x",
	}))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "not_found:") {
		t.Errorf("update missing = %+v", res)
	}
}

func TestGetAndDeleteUser(t *testing.T) {
	s := newTestServer(t)
	u := mustCreate(t, s, map[string]interface{}{
		"name": "Guru", "email": "guru@sekolah.com", "password": "rahasia1",
	})

	res, _ := s.handleGetUser(context.Background(), callRequest(map[string]interface{}{"id": u.ID}))
	if res.IsError {
		t.Fatalf("get: %s", resultText(t, res))
	}

	res, _ = s.handleDeleteUser(context.Background(), callRequest(map[string]interface{}{"id": u.ID}))
	if res.IsError || !strings.Contains(resultText(t, res), `"success": true`) {
		t.Fatalf("delete = %s", resultText(t, res))
	}

	for _, h := range []func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		s.handleGetUser, s.handleDeleteUser,
	} {
		res, _ = h(context.Background(), callRequest(map[string]interface{}{"id": u.ID}))
		if !res.IsError || !strings.HasPrefix(resultText(t, res), "not_found:") {
			t.Errorf("after delete = %s", resultText(t, res))
		}
	}

	res, _ = s.handleGetUser(context.Background(), callRequest(nil))
	if !res.IsError {
		t.Error("missing id should be a tool error")
	}
}

func TestUserResources(t *testing.T) {
	s := newTestServer(t)
	u := mustCreate(t, s, map[string]interface{}{
		"name": "Guru", "email": "guru@sekolah.com", "password": "rahasia1",
	})

	var req mcp.ReadResourceRequest
	req.Params.URI = usersURI
	contents, err := s.handleUsersResource(context.Background(), req)
	if err != nil || len(contents) != 1 {
		t.Fatalf("users resource: %v, %d contents", err, len(contents))
	}

	req.Params.URI = userURIPrefix + u.ID
	contents, err = s.handleUserResource(context.Background(), req)
	if err != nil {
		t.Fatalf("user resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, u.Email) {
		t.Errorf("resource text = %s", text)
	}

	req.Params.URI = "surat://other"
	if _, err := s.handleUserResource(context.Background(), req); err == nil {
		t.Error("expected error for malformed URI")
	}
}

func TestAnnotations(t *testing.T) {
	if ann := readOnlyAnnotation(); ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint {
		t.Error("readOnlyAnnotation should set ReadOnlyHint")
	}
	if ann := mutatingAnnotation(); ann.ReadOnlyHint == nil || *ann.ReadOnlyHint {
		t.Error("mutatingAnnotation should clear ReadOnlyHint")
	}
	if ann := destructiveAnnotation(); ann.DestructiveHint == nil || !*ann.DestructiveHint {
		t.Error("destructiveAnnotation should set DestructiveHint")
	}
}
