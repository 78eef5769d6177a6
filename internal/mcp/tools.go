package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sekolah/surat/internal/model"
)

// registerTools registers the account tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Read tools -----

	srv.AddTool(
		mcp.NewTool("surat_list_users",
			mcp.WithDescription(
				"List all console accounts, newest first. Returns id, name, email, "+
					"role, active flag and timestamps. Password hashes are never returned.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListUsers,
	)

	srv.AddTool(
		mcp.NewTool("surat_get_user",
			mcp.WithDescription("Get a single console account by id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Account id as returned by surat_list_users"),
			),
		),
		s.handleGetUser,
	)

	// ----- Mutation tools -----

	srv.AddTool(
		mcp.NewTool("surat_create_user",
			mcp.WithDescription(
				"Create a console account. Name, email and password are required. "+
					"Role defaults to \"user\" and the account is active unless is_active is false. "+
					"Fails if the email is already registered.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
			mcp.WithString("email", mcp.Required(), mcp.Description("Login email, unique")),
			mcp.WithString("password", mcp.Required(), mcp.Description("Initial password")),
			mcp.WithString("role",
				mcp.Description("Account role"),
				mcp.Enum(model.RoleAdmin, model.RoleUser),
			),
			mcp.WithBoolean("is_active", mcp.Description("Whether the account may sign in")),
		),
		s.handleCreateUser,
	)

	srv.AddTool(
		mcp.NewTool("surat_update_user",
			mcp.WithDescription(
				"Update a console account. Only the parameters you send are changed. "+
					"An empty password leaves the current password in place.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("id", mcp.Required(), mcp.Description("Account id")),
			mcp.WithString("name", mcp.Description("New display name")),
			mcp.WithString("email", mcp.Description("New login email")),
			mcp.WithString("password", mcp.Description("New password; empty keeps the current one")),
			mcp.WithString("role",
				mcp.Description("New role"),
				mcp.Enum(model.RoleAdmin, model.RoleUser),
			),
			mcp.WithBoolean("is_active", mcp.Description("Enable or disable sign-in")),
		),
		s.handleUpdateUser,
	)

	srv.AddTool(
		mcp.NewTool("surat_delete_user",
			mcp.WithDescription("Permanently delete a console account by id."),
			mcp.WithToolAnnotation(destructiveAnnotation()),
			mcp.WithString("id", mcp.Required(), mcp.Description("Account id")),
		),
		s.handleDeleteUser,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleListUsers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	users, err := s.users.List(ctx)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(users)
}

func (s *MCPServer) handleGetUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(u)
}

func (s *MCPServer) handleCreateUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	// Missing fields are left blank so the service reports every hint at once.
	in := model.NewUser{
		Name:     request.GetString("name", ""),
		Email:    request.GetString("email", ""),
		Password: request.GetString("password", ""),
		Role:     request.GetString("role", ""),
	}
	active, err := optionalBool(request, "is_active")
	if err != nil {
		return toolError("%v", err)
	}
	in.IsActive = active

	u, err := s.users.Create(ctx, in)
	if err != nil {
		return serviceError(err)
	}
	s.logger.Info("user created via MCP", "id", u.ID, "email", u.Email)
	return successJSON(u)
}

func (s *MCPServer) handleUpdateUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}

	var patch model.UserPatch
	for key, dst := range map[string]**string{
		"name":     &patch.Name,
		"email":    &patch.Email,
		"password": &patch.Password,
		"role":     &patch.Role,
	} {
		v, err := optionalString(request, key)
		if err != nil {
			return toolError("%v", err)
		}
		*dst = v
	}
	if patch.IsActive, err = optionalBool(request, "is_active"); err != nil {
		return toolError("%v", err)
	}
	if patch.IsEmpty() {
		return toolError("nothing to update: send at least one of name, email, password, role, is_active")
	}

	u, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(u)
}

func (s *MCPServer) handleDeleteUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return serviceError(err)
	}
	s.logger.Info("user deleted via MCP", "id", id)
	return successJSON(model.SuccessResponse{Success: true})
}
