package mcp

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/complyon/docview/internal/config"
	"github.com/complyon/docview/internal/descriptions"
	"github.com/complyon/docview/internal/docview"
	"github.com/complyon/docview/internal/highlight"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	docService *docview.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, docService *docview.Service) (*Server, error) {
	if docService == nil {
		return nil, fmt.Errorf("docService cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		docService: docService,
		mcpServer:  mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	docOpenTool := mcp.NewTool(
		"doc_open",
		mcp.WithDescription(descriptions.DocOpenDescription),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Path within the document directory or an http(s) URL"),
		),
		mcp.WithNumber("initial_page",
			mcp.Description("Page to show first (defaults to 1)"),
		),
	)
	s.mcpServer.AddTool(docOpenTool, s.handleDocOpen)

	docRenderPageTool := mcp.NewTool(
		"doc_render_page",
		mcp.WithDescription(descriptions.DocRenderPageDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by doc_open"),
		),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("Page number to render (1-indexed, clamped to the document)"),
		),
		mcp.WithNumber("zoom_index",
			mcp.Description("Zoom table index (keeps the current zoom when omitted)"),
		),
	)
	s.mcpServer.AddTool(docRenderPageTool, s.handleDocRenderPage)

	docSetPageTool := mcp.NewTool(
		"doc_set_page",
		mcp.WithDescription(descriptions.DocSetPageDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by doc_open"),
		),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("Page number (1-indexed, clamped to the document)"),
		),
	)
	s.mcpServer.AddTool(docSetPageTool, s.handleDocSetPage)

	docSetZoomTool := mcp.NewTool(
		"doc_set_zoom",
		mcp.WithDescription(descriptions.DocSetZoomDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by doc_open"),
		),
		mcp.WithNumber("zoom_index",
			mcp.Required(),
			mcp.Description("Zoom table index (clamped to the table bounds)"),
		),
	)
	s.mcpServer.AddTool(docSetZoomTool, s.handleDocSetZoom)

	docLocateFieldsTool := mcp.NewTool(
		"doc_locate_fields",
		mcp.WithDescription(descriptions.DocLocateFieldsDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by doc_open"),
		),
		mcp.WithArray("fields",
			mcp.Required(),
			mcp.Description("Field values to locate: objects with 'label', 'value' and optional 'color'"),
		),
	)
	s.mcpServer.AddTool(docLocateFieldsTool, s.handleDocLocateFields)

	docTextLayerTool := mcp.NewTool(
		"doc_text_layer",
		mcp.WithDescription(descriptions.DocTextLayerDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by doc_open"),
		),
	)
	s.mcpServer.AddTool(docTextLayerTool, s.handleDocTextLayer)

	docValidateFileTool := mcp.NewTool(
		"doc_validate_file",
		mcp.WithDescription(descriptions.DocValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path within the document directory"),
		),
	)
	s.mcpServer.AddTool(docValidateFileTool, s.handleDocValidateFile)

	docCloseTool := mcp.NewTool(
		"doc_close",
		mcp.WithDescription(descriptions.DocCloseDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by doc_open"),
		),
	)
	s.mcpServer.AddTool(docCloseTool, s.handleDocClose)

	docServerInfoTool := mcp.NewTool(
		"doc_server_info",
		mcp.WithDescription(descriptions.DocServerInfoDescription),
	)
	s.mcpServer.AddTool(docServerInfoTool, s.handleDocServerInfo)
}

// Handler functions
func (s *Server) handleDocOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := docview.DocOpenRequest{Source: source}
	if page, ok := request.GetArguments()["initial_page"].(float64); ok {
		req.InitialPage = int(page)
	}

	result, err := s.docService.DocOpen(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Opened document session: %s\n", result.SessionID)
	responseText += s.formatViewport(result.Viewport)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleDocRenderPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := docview.DocRenderPageRequest{SessionID: sessionID, Page: page}
	if zoom, ok := request.GetArguments()["zoom_index"].(float64); ok {
		idx := int(zoom)
		req.ZoomIndex = &idx
	}

	result, err := s.docService.DocRenderPage(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatViewport(result.Viewport)
	if result.ImagePNG == "" {
		return mcp.NewToolResultText(responseText), nil
	}
	return mcp.NewToolResultImage(responseText, result.ImagePNG, "image/png"), nil
}

func (s *Server) handleDocSetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docService.DocSetPage(ctx, docview.DocSetPageRequest{SessionID: sessionID, Page: page})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatViewport(result.Viewport)), nil
}

func (s *Server) handleDocSetZoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	zoomIndex, err := request.RequireInt("zoom_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docService.DocSetZoom(ctx, docview.DocSetZoomRequest{SessionID: sessionID, ZoomIndex: zoomIndex})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatViewport(result.Viewport)), nil
}

func (s *Server) handleDocLocateFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := parseFieldValues(request.GetArguments()["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docService.DocLocateFields(ctx, docview.DocLocateFieldsRequest{
		SessionID: sessionID,
		Fields:    fields,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Located %d of %d field value(s) on page %d\n",
		result.Located, result.Requested, result.PageNumber)
	for i, box := range result.Boxes {
		responseText += fmt.Sprintf("%d. %s: x=%.4f y=%.4f w=%.4f h=%.4f",
			i+1, box.Label, box.X, box.Y, box.Width, box.Height)
		if box.Color != "" {
			responseText += fmt.Sprintf(" color=%s", box.Color)
		}
		responseText += "\n"
	}
	if result.Located < result.Requested {
		responseText += "\nValues without a box could not be visually located on this page.\n"
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleDocTextLayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docService.DocTextLayer(ctx, docview.DocTextLayerRequest{SessionID: sessionID})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Text layer for page %d: %d fragment(s)\n",
		result.PageNumber, len(result.Fragments))
	for i, f := range result.Fragments {
		responseText += fmt.Sprintf("%d. %q at x=%.4f y=%.4f w=%.4f h=%.4f\n",
			i+1, f.Text, f.X, f.Y, f.Width, f.Height)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleDocValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docService.DocValidate(ctx, docview.DocValidateRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Document %s is valid and readable (%d pages)", result.Path, result.PageCount)
		if len(result.PageDimensions) > 0 {
			first := result.PageDimensions[0]
			responseText += fmt.Sprintf(", first page %.0fx%.0f pt", first[0], first[1])
		}
	} else {
		responseText = fmt.Sprintf("Document validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleDocClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.docService.DocClose(ctx, docview.DocCloseRequest{SessionID: sessionID})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Closed session: %s", result.SessionID)), nil
}

func (s *Server) handleDocServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.docService.DocServerInfo(ctx, docview.DocServerInfoRequest{},
		s.config.ServerName, s.config.Version, s.config.MaxFileSize)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// parseFieldValues converts the raw tool argument into field values.
func parseFieldValues(raw any) ([]highlight.FieldValue, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("fields must be an array of objects")
	}

	fields := make([]highlight.FieldValue, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fields[%d] must be an object", i)
		}
		field := highlight.FieldValue{}
		if label, ok := obj["label"].(string); ok {
			field.Label = label
		}
		if value, ok := obj["value"].(string); ok {
			field.Value = value
		}
		if color, ok := obj["color"].(string); ok {
			field.Color = color
		}
		if field.Value == "" {
			return nil, fmt.Errorf("fields[%d] is missing a value", i)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// Formatting methods
func (s *Server) formatViewport(vp docview.Viewport) string {
	text := fmt.Sprintf("State: %s\n", vp.State)
	text += fmt.Sprintf("Page: %d of %d\n", vp.CurrentPage, vp.PageCount)
	text += fmt.Sprintf("Zoom: %.0f%% (index %d)\n", vp.Zoom*100, vp.ZoomIndex)
	text += fmt.Sprintf("Canvas: %dx%d px\n", vp.Canvas.Width, vp.Canvas.Height)
	if len(vp.Highlights) > 0 {
		text += fmt.Sprintf("Highlights on page: %d\n", len(vp.Highlights))
	}
	if vp.LastError != "" {
		text += fmt.Sprintf("Last error: %s\n", vp.LastError)
	}
	return text
}

func (s *Server) formatServerInfoResult(result *docview.DocServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Document Directory: %s\n", result.DocumentDirectory)
	text += fmt.Sprintf("🖥  Rendering Engine: %s\n", result.EngineType)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += "🔍 Zoom Levels:"
	for _, z := range result.ZoomLevels {
		text += fmt.Sprintf(" %.0f%%", z*100)
	}
	text += "\n"
	text += fmt.Sprintf("📂 Active Sessions: %d\n", result.ActiveSessions)
	text += "\n" + result.Usage + "\n"
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting docview MCP server in stdio mode")
		log.Printf("Document directory: %s", s.config.DocumentDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode using streamable HTTP
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)

	log.Printf("Starting docview MCP server on %s", s.config.Address())

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(s.config.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	}
}
