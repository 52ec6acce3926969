// Package docview is the service layer: it resolves document sources,
// validates files, and exposes viewer sessions over request/result types
// suitable for transport adapters.
package docview

import (
	"github.com/complyon/docview/internal/geometry"
	"github.com/complyon/docview/internal/highlight"
	"github.com/complyon/docview/internal/textlayer"
	"github.com/complyon/docview/internal/viewport"
)

// DocOpenRequest opens a viewer session for a document. Source is either a
// path inside the configured document directory or an http(s) URL.
type DocOpenRequest struct {
	Source      string `json:"source"`
	InitialPage int    `json:"initial_page,omitempty"`
}

// DocOpenResult describes the freshly opened session.
type DocOpenResult struct {
	SessionID string   `json:"session_id"`
	Viewport  Viewport `json:"viewport"`
}

// Viewport is the externally visible viewport state plus the highlight boxes
// for the current page.
type Viewport struct {
	State       viewport.State  `json:"state"`
	PageCount   int             `json:"page_count"`
	CurrentPage int             `json:"current_page"`
	ZoomIndex   int             `json:"zoom_index"`
	Zoom        float64         `json:"zoom"`
	Canvas      geometry.Canvas `json:"canvas"`
	Highlights  []highlight.Box `json:"highlights,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
}

// DocRenderPageRequest renders one page of an open session.
type DocRenderPageRequest struct {
	SessionID string `json:"session_id"`
	Page      int    `json:"page"`
	ZoomIndex *int   `json:"zoom_index,omitempty"`
}

// DocRenderPageResult carries the rendered surface as base64 PNG along with
// the updated viewport state.
type DocRenderPageResult struct {
	Viewport Viewport `json:"viewport"`
	ImagePNG string   `json:"image_png,omitempty"`
}

// DocSetPageRequest navigates a session to a page. Out-of-range pages are
// clamped into the document bounds.
type DocSetPageRequest struct {
	SessionID string `json:"session_id"`
	Page      int    `json:"page"`
}

// DocSetZoomRequest switches a session's zoom level by table index.
type DocSetZoomRequest struct {
	SessionID string `json:"session_id"`
	ZoomIndex int    `json:"zoom_index"`
}

// DocViewportResult returns the session's viewport state after a navigation
// or zoom operation.
type DocViewportResult struct {
	Viewport Viewport `json:"viewport"`
}

// DocLocateFieldsRequest attempts to visually locate field values on the
// session's current page.
type DocLocateFieldsRequest struct {
	SessionID string                 `json:"session_id"`
	Fields    []highlight.FieldValue `json:"fields"`
}

// DocLocateFieldsResult reports the located highlight boxes. Values that
// could not be located are counted but produce no box.
type DocLocateFieldsResult struct {
	Boxes      []highlight.Box `json:"boxes"`
	Located    int             `json:"located"`
	Requested  int             `json:"requested"`
	PageNumber int             `json:"page_number"`
}

// DocTextLayerRequest fetches the extracted text layer of the current page.
type DocTextLayerRequest struct {
	SessionID string `json:"session_id"`
}

// DocTextLayerResult carries the normalized text fragments in reading order.
type DocTextLayerResult struct {
	PageNumber int                  `json:"page_number"`
	Fragments  []textlayer.Fragment `json:"fragments"`
}

// DocCloseRequest closes a viewer session and releases its document handle.
type DocCloseRequest struct {
	SessionID string `json:"session_id"`
}

// DocCloseResult acknowledges the close.
type DocCloseResult struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}

// DocValidateRequest validates a document file without opening a session.
type DocValidateRequest struct {
	Path string `json:"path"`
}

// DocValidateResult reports validation outcome. A validation failure is a
// result, not an error.
type DocValidateResult struct {
	Path      string `json:"path"`
	Valid     bool   `json:"valid"`
	PageCount int    `json:"page_count,omitempty"`
	Message   string `json:"message,omitempty"`

	// PageDimensions holds per-page [width, height] in points, when readable.
	PageDimensions [][2]float64 `json:"page_dimensions,omitempty"`
}

// DocServerInfoRequest asks for server configuration and usage guidance.
type DocServerInfoRequest struct{}

// DocServerInfoResult describes the running server.
type DocServerInfoResult struct {
	ServerName        string    `json:"server_name"`
	Version           string    `json:"version"`
	DocumentDirectory string    `json:"document_directory"`
	EngineType        string    `json:"engine_type"`
	ZoomLevels        []float64 `json:"zoom_levels"`
	MaxFileSize       int64     `json:"max_file_size"`
	ActiveSessions    int       `json:"active_sessions"`
	Usage             string    `json:"usage"`
}
