// Package mcpserver exposes audio summarization as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/orchestrator"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "audio-summarizer"
	ToolSummarize = "summarize_audio"
	ToolLanguages = "list_languages"
	argPath       = "path"
	argLanguage   = "language"
)

type Server struct {
	session    orchestrator.CredentialSession
	summarizer orchestrator.Summarizer
	mcp        *server.MCPServer
}

func New(session orchestrator.CredentialSession, summarizer orchestrator.Summarizer, version string) *Server {
	s := &Server{
		session:    session,
		summarizer: summarizer,
		mcp:        server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false), server.WithRecovery()),
	}

	s.mcp.AddTool(
		mcp.NewTool(ToolSummarize,
			mcp.WithDescription("Summarize a local audio file and suggest three short replies. Returns JSON with summary and replies."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute path to an audio file (mp3, wav, m4a, ogg, webm, flac, aac).")),
			mcp.WithString(argLanguage, mcp.Description("Language for the summary and replies. Defaults to English.")),
		),
		s.handleSummarize,
	)
	s.mcp.AddTool(
		mcp.NewTool(ToolLanguages,
			mcp.WithDescription("List the languages offered for summaries."),
		),
		s.handleLanguages,
	)
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving JSON-RPC on stdin/stdout.
func (s *Server) ServeStdio() error {
	return utils.WrapIfNotNil(server.ServeStdio(s.mcp))
}

func (s *Server) handleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logging.NewLogger(ctx)

	path, err := req.RequireString(argPath)
	if err != nil || strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	language := req.GetString(argLanguage, orchestrator.DefaultLanguage)

	// Each call gets its own interaction state so concurrent calls do not collide.
	orch := orchestrator.New(s.session, s.summarizer, nil)
	if _, err := orch.SelectLocal(ctx, path); err != nil {
		return mcp.NewToolResultError(model.UserMessage(err)), nil
	}

	result, err := orch.Submit(ctx, language)
	if err != nil {
		log.Errorf("tool %s failed: %v", ToolSummarize, err)
		return mcp.NewToolResultError(model.UserMessage(err)), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleLanguages(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lines := make([]string, 0, len(orchestrator.SupportedLanguages))
	for _, lang := range orchestrator.SupportedLanguages {
		lines = append(lines, fmt.Sprintf("%s (%s)", lang.Value, lang.Label))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
