// Package mcp provides an MCP (Model Context Protocol) server exposing the
// fleet server's collections to AI agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fleetdash/fleetdash/internal/api"
)

const maxListLimit = 200

// Connector returns an API client for the configured server and session
type Connector func() (*api.Client, error)

// Server wraps the MCP server with fleetdash-specific functionality.
type Server struct {
	mcpServer *server.MCPServer
	connect   Connector
	tools     []string
}

// NewServer creates a new MCP server. connect is called once per tool call.
func NewServer(version string, connect Connector) *Server {
	s := &Server{connect: connect}

	s.mcpServer = server.NewMCPServer(
		"fleetdash",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// ListToolNames returns the names of all registered tools
func (s *Server) ListToolNames() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("fleetdash_list",
		mcp.WithDescription("List one page of a fleet collection (users, devices, ...)"),
		mcp.WithString("resource",
			mcp.Required(),
			mcp.Description("Collection name: user, role, place, group, device, map or firmware"),
		),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Page size (default 25, max %d)", maxListLimit))),
		mcp.WithNumber("offset", mcp.Description("Number of records to skip (default 0)")),
		mcp.WithString("order_by", mcp.Description("Field to order by")),
		mcp.WithString("sort", mcp.Description("asc or desc (default asc)")),
	), s.handleList)

	s.addTool(mcp.NewTool("fleetdash_get",
		mcp.WithDescription("Get one record of a fleet collection by id"),
		mcp.WithString("resource", mcp.Required(), mcp.Description("Collection name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.handleGet)

	s.addTool(mcp.NewTool("fleetdash_resources",
		mcp.WithDescription("List the collections and the fields each can be ordered by"),
	), s.handleResources)

	s.addTool(mcp.NewTool("fleetdash_status",
		mcp.WithDescription("Show the configured server, whether it is reachable and whether a session exists"),
	), s.handleStatus)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

// jsonResult marshals a result to JSON and returns a tool result.
func jsonResult(result any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) client() (*api.Client, error) {
	if s.connect == nil {
		return nil, fmt.Errorf("no server configured")
	}
	return s.connect()
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := api.ParseResource(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sort, err := api.ParseSort(request.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := request.GetInt("limit", 25)
	if limit <= 0 || limit > maxListLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", maxListLimit)), nil
	}
	offset := request.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}

	client, err := s.client()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := client.List(ctx, res, api.Query{
		Limit:   limit,
		Offset:  offset,
		OrderBy: request.GetString("order_by", ""),
		Sort:    sort,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list %s: %v", res.Plural(), err)), nil
	}

	result := map[string]any{
		"resource": res,
		"offset":   offset,
		"items":    page.Items,
		"has_more": len(page.Items) == limit && (page.Total < 0 || offset+limit < page.Total),
	}
	if page.Total >= 0 {
		result["total"] = page.Total
	}
	return jsonResult(result)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := api.ParseResource(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.client()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := client.Get(ctx, res, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get %s %s: %v", res, id, err)), nil
	}
	return jsonResult(rec)
}

func (s *Server) handleResources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := make([]map[string]any, 0, len(api.Resources))
	for _, res := range api.Resources {
		list = append(list, map[string]any{
			"name":          res,
			"path":          res.Path(),
			"orderable":     res.Orderable(),
			"default_order": res.DefaultOrder(),
		})
	}
	return jsonResult(map[string]any{"resources": list})
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.client()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := map[string]any{
		"server":        client.BaseURL(),
		"authenticated": client.HasToken(),
	}
	health, err := client.Ping(ctx)
	if err != nil {
		status["reachable"] = false
		status["error"] = err.Error()
	} else {
		status["reachable"] = true
		status["server_version"] = health.Version
	}
	return jsonResult(status)
}
