package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/complyon/docview/internal/config"
	"github.com/complyon/docview/internal/docview"
	"github.com/complyon/docview/internal/engine"
)

func testConfig(tempDir string) *config.Config {
	return &config.Config{
		Mode:              "stdio",
		Host:              "127.0.0.1",
		Port:              8080,
		DocumentDirectory: tempDir,
		Engine:            "layout",
		Workers:           1,
		Version:           "1.0.0",
		ServerName:        "test-server",
		LogLevel:          "info",
		MaxFileSize:       1024 * 1024,
	}
}

func newTestDocService(t *testing.T, cfg *config.Config) *docview.Service {
	t.Helper()

	resolver, err := docview.NewResolver(cfg.DocumentDirectory, cfg.MaxFileSize)
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}
	factory := engine.NewFactory(engine.FactoryConfig{
		PreferredType: cfg.EngineType(),
		Workers:       cfg.Workers,
	})
	return docview.NewService(factory, resolver, docview.NewValidator(cfg.MaxFileSize), nil, nil)
}

func TestNewServer(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		config      *config.Config
		expectError bool
	}{
		{
			name:        "valid stdio mode config",
			config:      testConfig(tempDir),
			expectError: false,
		},
		{
			name: "valid server mode config",
			config: func() *config.Config {
				cfg := testConfig(tempDir)
				cfg.Mode = "server"
				return cfg
			}(),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docService := newTestDocService(t, tt.config)
			server, err := NewServer(tt.config, docService)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError {
				if server == nil {
					t.Fatal("server should not be nil")
				}
				if server.config != tt.config {
					t.Error("server config not set correctly")
				}
				if server.docService != docService {
					t.Error("server docService not set correctly")
				}
				if server.mcpServer == nil {
					t.Error("mcpServer should be initialized")
				}
			}
		})
	}
}

func TestNewServer_NilService(t *testing.T) {
	cfg := testConfig(t.TempDir())
	if _, err := NewServer(cfg, nil); err == nil {
		t.Error("expected error for nil docService")
	}
}

func TestServer_HandleDocValidateFile(t *testing.T) {
	tempDir := t.TempDir()

	// Create a file that is not a real PDF
	testFile := filepath.Join(tempDir, "test.pdf")
	if err := os.WriteFile(testFile, make([]byte, 1024), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg := testConfig(tempDir)
	server, err := NewServer(cfg, newTestDocService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"path": "test.pdf",
			},
		},
	}

	result, err := server.handleDocValidateFile(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}

	// The file should be invalid since it's not a real PDF
	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "validation failed") {
		t.Errorf("expected validation to fail, got: %s", resultText)
	}
}

func TestServer_HandleDocOpen_MissingFile(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, newTestDocService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"source": "missing.pdf",
			},
		},
	}

	result, err := server.handleDocOpen(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "does not exist") {
		t.Errorf("expected missing file error, got: %s", resultText)
	}
}

func TestServer_HandleDocServerInfo(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, newTestDocService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	result, err := server.handleDocServerInfo(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	for _, want := range []string{"test-server", "Zoom Levels", "100%", "Rendering Engine: layout"} {
		if !strings.Contains(resultText, want) {
			t.Errorf("server info should contain %q, got: %s", want, resultText)
		}
	}
}

func TestServer_InvalidArguments(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, newTestDocService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	// Test with missing required arguments
	emptyRequest := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	handlers := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{"DocOpen", server.handleDocOpen},
		{"DocRenderPage", server.handleDocRenderPage},
		{"DocSetPage", server.handleDocSetPage},
		{"DocSetZoom", server.handleDocSetZoom},
		{"DocLocateFields", server.handleDocLocateFields},
		{"DocTextLayer", server.handleDocTextLayer},
		{"DocValidateFile", server.handleDocValidateFile},
		{"DocClose", server.handleDocClose},
	}

	for _, h := range handlers {
		t.Run(h.name, func(t *testing.T) {
			result, err := h.handler(context.Background(), emptyRequest)
			if err != nil {
				t.Errorf("handler should not return error, got: %v", err)
			}
			if result == nil {
				t.Fatal("result should not be nil")
			}

			// Check if it's an error result
			resultText := extractTextFromResult(result)
			if !strings.Contains(resultText, "required") && !strings.Contains(resultText, "missing") &&
				!strings.Contains(resultText, "error") && !strings.Contains(resultText, "must be") {
				t.Errorf("expected error message for missing arguments, got: %s", resultText)
			}
		})
	}
}

func TestServer_UnknownSession(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, newTestDocService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"session_id": "doc-404",
				"page":       float64(1),
			},
		},
	}

	result, err := server.handleDocRenderPage(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "unknown session") {
		t.Errorf("expected unknown session error, got: %s", resultText)
	}
}

func TestParseFieldValues(t *testing.T) {
	fields, err := parseFieldValues([]any{
		map[string]any{"label": "Vendor", "value": "Acme Corp", "color": "#FF0000"},
		map[string]any{"value": "1,234.56"},
	})
	if err != nil {
		t.Fatalf("parseFieldValues() unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("parseFieldValues() got %d fields, want 2", len(fields))
	}
	if fields[0].Label != "Vendor" || fields[0].Value != "Acme Corp" || fields[0].Color != "#FF0000" {
		t.Errorf("parseFieldValues() first field = %+v", fields[0])
	}

	if _, err := parseFieldValues("not an array"); err == nil {
		t.Error("parseFieldValues() expected error for non-array input")
	}
	if _, err := parseFieldValues([]any{map[string]any{"label": "NoValue"}}); err == nil {
		t.Error("parseFieldValues() expected error for missing value")
	}
	if _, err := parseFieldValues([]any{"not an object"}); err == nil {
		t.Error("parseFieldValues() expected error for non-object item")
	}
}

func TestFormatViewport(t *testing.T) {
	cfg := testConfig(t.TempDir())
	server, err := NewServer(cfg, newTestDocService(t, cfg))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	vp := docview.Viewport{
		State:       "ready",
		PageCount:   10,
		CurrentPage: 3,
		ZoomIndex:   2,
		Zoom:        1.0,
	}
	vp.Canvas.Width = 612
	vp.Canvas.Height = 792

	formatted := server.formatViewport(vp)
	for _, want := range []string{"Page: 3 of 10", "Zoom: 100% (index 2)", "Canvas: 612x792 px", "State: ready"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("formatViewport() missing %q, got: %s", want, formatted)
		}
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	// Try to extract text content
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		// Handle pointer to TextContent as well
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
