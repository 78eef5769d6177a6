package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	usersURI        = "surat://users"
	userURIPrefix   = "surat://users/"
	userURITemplate = "surat://users/{id}"
)

// registerResources adds read-only resources clients can load into context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			usersURI,
			"Console Accounts",
			mcp.WithResourceDescription("All console accounts without password hashes."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleUsersResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			userURITemplate,
			"Console Account",
			mcp.WithTemplateDescription("A single console account by id."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleUserResource,
	)
}

func (s *MCPServer) handleUsersResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return jsonResource(usersURI, users)
}

func (s *MCPServer) handleUserResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	id := strings.TrimPrefix(uri, userURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("invalid user URI %q: expected %s", uri, userURITemplate)
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", id, err)
	}
	return jsonResource(uri, u)
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
