package docview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/complyon/docview/internal/engine"
)

// DefaultFetchTimeout bounds remote document downloads.
const DefaultFetchTimeout = 30 * time.Second

// Resolver turns a raw document source string into an engine source. Local
// paths are confined to the configured document directory; http(s) URLs are
// fetched into memory with the size cap enforced during the read.
type Resolver struct {
	documentDir string
	maxFileSize int64
	client      *http.Client
}

// NewResolver builds a resolver rooted at documentDir.
func NewResolver(documentDir string, maxFileSize int64) (*Resolver, error) {
	if documentDir == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}
	absDir, err := filepath.Abs(documentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve document directory: %w", err)
	}

	return &Resolver{
		documentDir: filepath.Clean(absDir),
		maxFileSize: maxFileSize,
		client:      &http.Client{Timeout: DefaultFetchTimeout},
	}, nil
}

// DocumentDirectory returns the configured root for local sources.
func (r *Resolver) DocumentDirectory() string {
	return r.documentDir
}

// Resolve validates and converts a raw source. URLs yield an in-memory
// source; everything else is treated as a local path.
func (r *Resolver) Resolve(ctx context.Context, raw string) (engine.Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return engine.Source{}, fmt.Errorf("source cannot be empty")
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		data, err := r.fetch(ctx, raw)
		if err != nil {
			return engine.Source{}, err
		}
		return engine.Source{Data: data}, nil
	}

	path, err := r.NormalizePath(raw)
	if err != nil {
		return engine.Source{}, err
	}
	return engine.Source{Path: path}, nil
}

// NormalizePath resolves a local path against the document directory and
// verifies it does not escape it. Relative paths are joined to the directory;
// symlinks are resolved before the containment check.
func (r *Resolver) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains invalid characters")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(r.documentDir, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	}
	realDir := r.documentDir
	if resolved, err := filepath.EvalSymlinks(r.documentDir); err == nil {
		realDir = resolved
	}

	if !withinDirectory(cleanPath, r.documentDir) && !withinDirectory(realPath, realDir) {
		return "", fmt.Errorf("path is outside the document directory: %s", path)
	}
	return cleanPath, nil
}

// fetch downloads a remote document, enforcing the size cap while reading so
// an oversized body is abandoned rather than buffered.
func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid document URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid document URL: missing host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > 0 && r.maxFileSize > 0 && resp.ContentLength > r.maxFileSize {
		return nil, fmt.Errorf("document too large: %d bytes (max: %d bytes)", resp.ContentLength, r.maxFileSize)
	}

	limit := r.maxFileSize
	if limit <= 0 {
		limit = 1 << 30
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read document body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("document too large: exceeds %d bytes", limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("document body is empty")
	}
	return data, nil
}

// withinDirectory reports whether path equals dir or sits beneath it.
func withinDirectory(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// statLocal confirms a resolved local path is a readable regular file.
func statLocal(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return nil
}
