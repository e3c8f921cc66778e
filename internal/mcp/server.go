// ABOUTME: MCP server setup for the bodygoal engine.
// ABOUTME: Wraps the MCP server with storage, the goal manager, and the progress service.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/storage"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	manager   *goals.Manager
	service   *goals.Service
	userID    string
}

// NewServer creates a new MCP server acting for userID. opts configure the
// goal manager and progress service.
func NewServer(repo storage.Repository, userID string, opts ...goals.Option) (*Server, error) {
	if repo == nil {
		return nil, errors.New("mcp server needs a repository")
	}
	if userID == "" {
		return nil, errors.New("mcp server needs a user id")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bodygoal",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		manager:   goals.NewManager(repo, opts...),
		service:   goals.NewService(repo, opts...),
		userID:    userID,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
