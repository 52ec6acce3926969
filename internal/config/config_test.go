package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "docview" {
		t.Errorf("Expected default server name to be 'docview', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.Engine != "pdfium" {
		t.Errorf("Expected default engine to be 'pdfium', got '%s'", cfg.Engine)
	}

	if cfg.Workers != 1 {
		t.Errorf("Expected default workers to be 1, got %d", cfg.Workers)
	}

	// Test that document directory is set to current working directory by default
	currentDir, _ := os.Getwd()
	if cfg.DocumentDirectory != currentDir {
		t.Errorf("Expected default document directory to be '%s', got '%s'", currentDir, cfg.DocumentDirectory)
	}
}

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Mode:              "server",
		Host:              "127.0.0.1",
		Port:              8080,
		DocumentDirectory: t.TempDir(),
		Engine:            "pdfium",
		Workers:           1,
		LogLevel:          "info",
		MaxFileSize:       1024,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config - server mode",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid config - stdio mode",
			mutate:  func(c *Config) { c.Mode = "stdio" },
			wantErr: false,
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid port - too low (server mode)",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high (server mode)",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name: "invalid port ignored in stdio mode",
			mutate: func(c *Config) {
				c.Mode = "stdio"
				c.Port = 0
			},
			wantErr: false,
		},
		{
			name:    "empty document directory",
			mutate:  func(c *Config) { c.DocumentDirectory = "" },
			wantErr: true,
		},
		{
			name:    "invalid engine",
			mutate:  func(c *Config) { c.Engine = "ghostscript" },
			wantErr: true,
		},
		{
			name:    "layout engine accepted",
			mutate:  func(c *Config) { c.Engine = "layout" },
			wantErr: false,
		},
		{
			name:    "auto engine accepted",
			mutate:  func(c *Config) { c.Engine = "auto" },
			wantErr: false,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_CreatesMissingDirectory(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.DocumentDirectory = filepath.Join(t.TempDir(), "docs", "nested")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if _, err := os.Stat(cfg.DocumentDirectory); err != nil {
		t.Errorf("Validate() did not create directory: %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9090}
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %v, want %v", got, "0.0.0.0:9090")
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if !cfg.IsDebug() {
		t.Error("IsDebug() should be true for debug log level")
	}

	cfg.LogLevel = "info"
	if cfg.IsDebug() {
		t.Error("IsDebug() should be false for info log level")
	}
}

func TestConfigModeHelpers(t *testing.T) {
	cfg := &Config{Mode: ModeServer}
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("expected server mode")
	}

	cfg.Mode = ModeStdio
	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("expected stdio mode")
	}
}

func TestConfigString(t *testing.T) {
	cfg := validTestConfig(t)
	s := cfg.String()
	for _, want := range []string{"server", "127.0.0.1", "8080", "pdfium"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %v, missing %v", s, want)
		}
	}
}

func TestConfigEngineType(t *testing.T) {
	cfg := &Config{Engine: "layout"}
	if got := string(cfg.EngineType()); got != "layout" {
		t.Errorf("EngineType() = %v, want layout", got)
	}
}
