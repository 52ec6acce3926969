// Package engine defines the contract for the external PDF rendering
// collaborators and provides the backends the viewer can run against. The
// viewer itself never parses PDF content; it asks an Engine for page
// surfaces and positioned text and works purely with the results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Type identifies the underlying rendering backend.
type Type string

const (
	// TypePdfium is the pdfium backend: full raster rendering plus
	// structured positioned text, running on a WebAssembly worker pool.
	TypePdfium Type = "pdfium"

	// TypeLayout is the pure-Go layout backend: positioned text and page
	// geometry without rasterization. Render produces a blank surface of
	// the correct pixel dimensions, which is sufficient for overlay
	// geometry and for environments where the pdfium worker is
	// unavailable.
	TypeLayout Type = "layout"

	// TypeAuto selects the factory's preferred backend.
	TypeAuto Type = "auto"
)

// Source is the opaque document locator handed to an engine. Exactly one of
// Path or Data is set; resolution of URLs into one of the two happens before
// the engine is involved.
type Source struct {
	Path string
	Data []byte
}

// Engine opens documents for rendering and text extraction.
type Engine interface {
	// Open loads a document from the given source. The returned document
	// must be closed by the caller; opening a new document does not
	// invalidate previously opened ones.
	Open(ctx context.Context, src Source) (Document, error)

	// Type reports which backend this engine is.
	Type() Type

	// Close releases backend resources, including any worker processes.
	Close() error
}

// Document is an open document handle.
type Document interface {
	// PageCount returns the number of pages in the document.
	PageCount() (int, error)

	// Page returns a handle for the 1-indexed page number.
	Page(number int) (Page, error)

	// Close disposes the handle. Pages obtained from the document are
	// invalid afterwards.
	Close() error
}

// Page is a single-page handle supporting rendering and text extraction.
type Page interface {
	// Number returns the 1-indexed page number.
	Number() int

	// Size returns the page dimensions in PDF points.
	Size() (width, height float64, err error)

	// Render rasterizes the page at the given scale (1.0 = 72 DPI) into a
	// bitmap. Rendering is cooperative: it checks ctx and returns a
	// cancellation error, never a partial surface, when ctx is done.
	Render(ctx context.Context, scale float64) (*RenderResult, error)

	// TextItems returns the page's positioned text runs in the engine's
	// native order (left-to-right, top-to-bottom reading order). The
	// matcher's span strategy depends on that order being preserved.
	TextItems(ctx context.Context) ([]TextItem, error)
}

// RenderResult is a completed page rasterization.
type RenderResult struct {
	Image    *image.RGBA
	WidthPx  int
	HeightPx int
	Scale    float64
}

// TextItem is one positioned text run in PDF space: origin at the
// bottom-left of the page, Y increasing upward, units in points.
type TextItem struct {
	Text string

	// X, Y locate the run's bottom-left corner.
	X float64
	Y float64

	// Width is the engine-reported advance width. Height is the reported
	// glyph height, or 0 when the backend does not report one; the text
	// layer falls back to the font size computed from Transform.
	Width  float64
	Height float64

	// Transform is the text matrix [a b c d e f]. The font size is
	// sqrt(a²+b²).
	Transform [6]float64

	Font string
}

// ErrRenderCancelled marks a render that was cooperatively aborted. It is an
// expected outcome, never a failure: callers must not log it or surface it.
var ErrRenderCancelled = errors.New("render cancelled")

// IsCancelled reports whether err represents a cancelled operation rather
// than a real failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrRenderCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Error wraps a backend failure with the engine and operation that produced
// it.
type Error struct {
	Engine Type
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s engine: %s: %v", e.Engine, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap builds an *Error unless err is a cancellation, which passes through
// untouched so errors.Is checks keep working without unwrapping.
func wrap(engine Type, op string, err error) error {
	if err == nil {
		return nil
	}
	if IsCancelled(err) {
		return err
	}
	return &Error{Engine: engine, Op: op, Err: err}
}
