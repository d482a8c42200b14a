package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/palicanon/internal/async"
	"github.com/Aman-CERP/palicanon/internal/resolver"
	"github.com/Aman-CERP/palicanon/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "palicanon"

// Resolver is the read side served by the tools.
type Resolver interface {
	Resolve(ctx context.Context, id, author string) (*resolver.Bundle, error)
	Translations(id string) ([]resolver.AuthorRef, error)
	ResolveLegacy(ctx context.Context, id string) (*resolver.LegacyBundle, error)
}

// Pipeline is the run controller behind the pipeline tools.
type Pipeline interface {
	Trigger() (async.TriggerResult, error)
	Status() async.Status
}

// Server is the MCP server.
type Server struct {
	mcp      *mcp.Server
	resolver Resolver
	pipeline Pipeline
	logger   *slog.Logger
}

// NewServer creates a Server. pipeline may be nil, in which case the pipeline
// tools report that control is not enabled.
func NewServer(res Resolver, pipeline Pipeline, logger *slog.Logger) (*Server, error) {
	if res == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		resolver: res,
		pipeline: pipeline,
		logger:   logger,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

func (s *Server) registerTools() {
	desc := map[string]string{}
	for _, t := range toolInfos {
		desc[t.Name] = t.Description
	}

	mcp.AddTool(s.mcp, &mcp.Tool{Name: "resolve", Description: desc["resolve"]}, s.mcpResolveHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "translations", Description: desc["translations"]}, s.mcpTranslationsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "legacy", Description: desc["legacy"]}, s.mcpLegacyHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "pipeline_trigger", Description: desc["pipeline_trigger"]}, s.mcpTriggerHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "pipeline_status", Description: desc["pipeline_status"]}, s.mcpStatusHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(toolInfos)))
}

// textResult renders v as an indented JSON text block.
func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", NewInvalidParamsError("id parameter is required")
	}
	return id, nil
}

// HandleResolve resolves one identifier.
func (s *Server) HandleResolve(ctx context.Context, input ResolveInput) (*resolver.Bundle, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	b, err := s.resolver.Resolve(ctx, id, strings.TrimSpace(input.Author))
	if err != nil {
		return nil, MapError(err)
	}
	return b, nil
}

// HandleTranslations lists the authors of one identifier.
func (s *Server) HandleTranslations(_ context.Context, input IDInput) ([]resolver.AuthorRef, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	refs, err := s.resolver.Translations(id)
	if err != nil {
		return nil, MapError(err)
	}
	return refs, nil
}

// HandleLegacy loads the fallback document of one identifier.
func (s *Server) HandleLegacy(ctx context.Context, input IDInput) (*resolver.LegacyBundle, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	b, err := s.resolver.ResolveLegacy(ctx, id)
	if err != nil {
		return nil, MapError(err)
	}
	return b, nil
}

// HandleTrigger starts a pipeline run.
func (s *Server) HandleTrigger(_ context.Context) (*TriggerOutput, error) {
	if s.pipeline == nil {
		return nil, MapError(ErrPipelineUnavailable)
	}
	res, err := s.pipeline.Trigger()
	out := &TriggerOutput{Result: string(res)}
	if err != nil {
		out.Error = err.Error()
	}
	s.logger.Info("pipeline trigger via MCP", slog.String("result", out.Result))
	return out, nil
}

// HandleStatus reports the pipeline state.
func (s *Server) HandleStatus(_ context.Context) (*async.Status, error) {
	if s.pipeline == nil {
		return nil, MapError(ErrPipelineUnavailable)
	}
	st := s.pipeline.Status()
	return &st, nil
}

func (s *Server) mcpResolveHandler(ctx context.Context, _ *mcp.CallToolRequest, input ResolveInput) (*mcp.CallToolResult, any, error) {
	b, err := s.HandleResolve(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(b)
	return res, nil, err
}

func (s *Server) mcpTranslationsHandler(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, any, error) {
	refs, err := s.HandleTranslations(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(refs)
	return res, nil, err
}

func (s *Server) mcpLegacyHandler(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, any, error) {
	b, err := s.HandleLegacy(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(b)
	return res, nil, err
}

func (s *Server) mcpTriggerHandler(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	out, err := s.HandleTrigger(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(out)
	return res, nil, err
}

func (s *Server) mcpStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	st, err := s.HandleStatus(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := textResult(st)
	return res, nil, err
}

// Serve runs the server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
