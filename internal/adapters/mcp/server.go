// Package mcp exposes the search engine as Model Context Protocol tools
// so agent runtimes can call it over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/usecase"
)

const serverVersion = "1.0.0"

type Server struct {
	engine     *usecase.AggregationEngine
	dispatcher *usecase.ConversationalDispatcher
	mcpServer  *server.MCPServer
}

func NewServer(engine *usecase.AggregationEngine, dispatcher *usecase.ConversationalDispatcher) *Server {
	s := &Server{
		engine:     engine,
		dispatcher: dispatcher,
	}
	s.mcpServer = server.NewMCPServer(
		"webintel",
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	searchTool := mcp.NewTool("web_search",
		mcp.WithDescription("Search the web across ranking, answer and graph providers and return merged, deduplicated results."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query text."),
		),
		mcp.WithString("intent",
			mcp.Description("Query intent: general, news, people or company."),
		),
		mcp.WithString("urgency",
			mcp.Description("Latency preference: fast, balanced or comprehensive."),
		),
		mcp.WithString("location",
			mcp.Description("Optional location hint."),
		),
		mcp.WithString("company",
			mcp.Description("Optional company hint."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum results to return, default 10."),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearch)

	classifyTool := mcp.NewTool("classify_strategy",
		mcp.WithDescription("Classify a query into a retrieval strategy: vector, graph or hybrid."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text to classify."),
		),
	)
	s.mcpServer.AddTool(classifyTool, s.handleClassify)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	intent, err := domain.ParseIntent(request.GetString("intent", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	urgency, err := domain.ParseUrgency(request.GetString("urgency", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, err := domain.NewSearchQuery(text, intent, urgency)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query.Location = request.GetString("location", "")
	query.Company = request.GetString("company", "")
	if max := request.GetInt("max_results", domain.DefaultMaxResults); max > 0 {
		query.MaxResults = max
	}

	response, err := s.engine.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleClassify(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	strategy := s.dispatcher.ClassifyStrategy(text)
	payload, err := json.Marshal(map[string]string{"strategy": string(strategy)})
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
