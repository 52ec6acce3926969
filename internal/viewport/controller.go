// Package viewport drives the page display lifecycle: loading documents,
// rendering pages at discrete zoom levels, keeping the text layer and
// highlight boxes in sync with the visible surface, and translating user
// input into viewport commands.
package viewport

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/complyon/docview/internal/engine"
	"github.com/complyon/docview/internal/geometry"
	"github.com/complyon/docview/internal/highlight"
	"github.com/complyon/docview/internal/textlayer"
)

// State is the controller's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateRendering State = "rendering"
	StateError     State = "error"
)

// Callbacks are notifications the controller fires after a committed state
// change. All callbacks are optional and are invoked outside the controller's
// lock; superseded renders never fire them.
type Callbacks struct {
	// OnPageCountChange fires once per successful document load.
	OnPageCountChange func(count int)

	// OnPageChange fires when the committed current page differs from the
	// previous one.
	OnPageChange func(pageNumber int)

	// OnTextLayerReady fires after the text layer for a committed render has
	// been extracted (possibly empty, when extraction failed or the page has
	// no text).
	OnTextLayerReady func(pageNumber int, fragments []textlayer.Fragment)
}

// Snapshot is a point-in-time copy of the controller's observable state.
type Snapshot struct {
	State       State           `json:"state"`
	PageCount   int             `json:"page_count"`
	CurrentPage int             `json:"current_page"`
	ZoomIndex   int             `json:"zoom_index"`
	Zoom        float64         `json:"zoom"`
	Canvas      geometry.Canvas `json:"canvas"`
	Fullscreen  bool            `json:"fullscreen"`
	LastError   string          `json:"last_error,omitempty"`
}

// Controller owns one document view. It serializes page renders so that at
// most one render's results are ever committed per generation: starting a new
// render cancels the in-flight one, and a superseded render commits nothing,
// neither canvas dimensions nor fragments nor highlights nor an error.
//
// All exported methods are safe for concurrent use.
type Controller struct {
	eng       engine.Engine
	matcher   *highlight.Matcher
	callbacks Callbacks
	logger    *log.Logger

	mu           sync.Mutex
	state        State
	doc          engine.Document
	source       engine.Source
	pageCount    int
	currentPage  int
	zoomIndex    int
	canvas       geometry.Canvas
	surface      *image.RGBA
	fragments    []textlayer.Fragment
	fieldValues  []highlight.FieldValue
	staticBoxes  []highlight.Box
	computed     []highlight.Box
	fullscreen   bool
	lastError    string
	renderSeq    uint64
	cancelRender context.CancelFunc
}

// NewController builds a controller over a rendering engine. A nil matcher
// gets the default padding; a nil logger falls back to the process logger.
func NewController(eng engine.Engine, matcher *highlight.Matcher, callbacks Callbacks, logger *log.Logger) *Controller {
	if matcher == nil {
		matcher = highlight.NewMatcher()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		eng:       eng,
		matcher:   matcher,
		callbacks: callbacks,
		logger:    logger,
		state:     StateIdle,
		zoomIndex: DefaultZoomIndex,
	}
}

// LoadDocument opens a document and renders its initial page. Any previous
// document is disposed first. A load failure moves the controller to the
// error state; Retry re-attempts the same source.
func (c *Controller) LoadDocument(ctx context.Context, src engine.Source, initialPage int) error {
	c.mu.Lock()
	c.supersedeLocked()
	if c.doc != nil {
		if err := c.doc.Close(); err != nil {
			c.logger.Printf("closing previous document: %v", err)
		}
		c.doc = nil
	}
	c.state = StateLoading
	c.source = src
	c.pageCount = 0
	c.currentPage = 0
	c.canvas = geometry.Canvas{}
	c.surface = nil
	c.fragments = nil
	c.computed = nil
	c.lastError = ""
	c.mu.Unlock()

	doc, err := c.eng.Open(ctx, src)
	if err != nil {
		c.setLoadError(fmt.Sprintf("open document: %v", err))
		return fmt.Errorf("open document: %w", err)
	}

	count, err := doc.PageCount()
	if err != nil {
		doc.Close()
		c.setLoadError(fmt.Sprintf("page count: %v", err))
		return fmt.Errorf("page count: %w", err)
	}
	if count < 1 {
		doc.Close()
		c.setLoadError("document has no pages")
		return fmt.Errorf("document has no pages")
	}

	c.mu.Lock()
	c.doc = doc
	c.pageCount = count
	c.state = StateReady
	zoomIndex := c.zoomIndex
	c.mu.Unlock()

	if c.callbacks.OnPageCountChange != nil {
		c.callbacks.OnPageCountChange(count)
	}

	return c.RenderPage(ctx, clampPage(initialPage, count), zoomIndex)
}

// Retry re-attempts the last document load. It only acts from the error
// state.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateError {
		c.mu.Unlock()
		return nil
	}
	src := c.source
	page := c.currentPage
	c.mu.Unlock()

	if page < 1 {
		page = 1
	}
	return c.LoadDocument(ctx, src, page)
}

// RenderPage renders one page at one zoom level and, on success, commits the
// new canvas dimensions, re-extracts the text layer, and recomputes highlight
// boxes. Starting a render cancels any in-flight one; the superseded render
// has no observable effect. The method is synchronous: when it returns nil
// the render either committed or was superseded or cancelled, both of which
// are silent.
func (c *Controller) RenderPage(ctx context.Context, pageNumber, zoomIndex int) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return fmt.Errorf("no document loaded")
	}
	pageNumber = clampPage(pageNumber, c.pageCount)
	zoomIndex = ClampZoomIndex(zoomIndex)

	c.supersedeLocked()
	rctx, cancel := context.WithCancel(ctx)
	c.cancelRender = cancel
	seq := c.renderSeq
	c.state = StateRendering
	doc := c.doc
	previousPage := c.currentPage
	c.mu.Unlock()
	defer cancel()

	page, err := doc.Page(pageNumber)
	if err != nil {
		c.settleRenderFailure(seq, pageNumber, err)
		return nil
	}

	result, err := page.Render(rctx, ZoomAt(zoomIndex))
	if err != nil {
		c.settleRenderFailure(seq, pageNumber, err)
		return nil
	}

	// Commit the surface only if this render is still the newest one.
	c.mu.Lock()
	if seq != c.renderSeq {
		c.mu.Unlock()
		return nil
	}
	c.canvas = geometry.Canvas{Width: result.WidthPx, Height: result.HeightPx}
	c.surface = result.Image
	c.currentPage = pageNumber
	c.zoomIndex = zoomIndex
	c.state = StateReady
	c.lastError = ""
	c.mu.Unlock()

	if pageNumber != previousPage && c.callbacks.OnPageChange != nil {
		c.callbacks.OnPageChange(pageNumber)
	}

	// Text layer extraction runs after the surface commit. A failure here
	// degrades to an empty layer and never takes down the rendered page.
	fragments, err := textlayer.Extract(rctx, page)
	if err != nil {
		if engine.IsCancelled(err) {
			return nil
		}
		c.logger.Printf("text layer extraction failed for page %d: %v", pageNumber, err)
		fragments = nil
	}

	c.mu.Lock()
	if seq != c.renderSeq {
		c.mu.Unlock()
		return nil
	}
	c.fragments = fragments
	c.computed = c.matcher.MatchAll(fragments, c.fieldValues, pageNumber)
	c.mu.Unlock()

	if c.callbacks.OnTextLayerReady != nil {
		c.callbacks.OnTextLayerReady(pageNumber, fragments)
	}
	return nil
}

// settleRenderFailure handles a render stage error. Cancellations and
// superseded generations are silent; a real failure is logged and the
// viewport returns to its last good surface.
func (c *Controller) settleRenderFailure(seq uint64, pageNumber int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.renderSeq {
		return
	}
	if engine.IsCancelled(err) {
		c.state = StateReady
		return
	}
	c.logger.Printf("rendering page %d failed: %v", pageNumber, err)
	c.state = StateReady
	c.lastError = err.Error()
}

// supersedeLocked invalidates the in-flight render, if any. Callers hold the
// lock.
func (c *Controller) supersedeLocked() {
	c.renderSeq++
	if c.cancelRender != nil {
		c.cancelRender()
		c.cancelRender = nil
	}
}

// setLoadError records a load failure.
func (c *Controller) setLoadError(msg string) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = msg
	c.mu.Unlock()
}

// SetPage navigates to a page, clamped into [1, pageCount]. Navigating to the
// page already shown is a no-op.
func (c *Controller) SetPage(ctx context.Context, pageNumber int) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return fmt.Errorf("no document loaded")
	}
	pageNumber = clampPage(pageNumber, c.pageCount)
	if pageNumber == c.currentPage {
		c.mu.Unlock()
		return nil
	}
	zoomIndex := c.zoomIndex
	c.mu.Unlock()

	return c.RenderPage(ctx, pageNumber, zoomIndex)
}

// NextPage advances one page, saturating at the last page.
func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	page := c.currentPage + 1
	c.mu.Unlock()
	return c.SetPage(ctx, page)
}

// PrevPage goes back one page, saturating at the first page.
func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	page := c.currentPage - 1
	c.mu.Unlock()
	return c.SetPage(ctx, page)
}

// SetZoom switches to a zoom table index, clamped to the table bounds, and
// re-renders the current page. Setting the active index is a no-op.
func (c *Controller) SetZoom(ctx context.Context, zoomIndex int) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return fmt.Errorf("no document loaded")
	}
	zoomIndex = ClampZoomIndex(zoomIndex)
	if zoomIndex == c.zoomIndex {
		c.mu.Unlock()
		return nil
	}
	page := c.currentPage
	c.mu.Unlock()

	return c.RenderPage(ctx, page, zoomIndex)
}

// ZoomIn steps one level up the zoom table.
func (c *Controller) ZoomIn(ctx context.Context) error {
	c.mu.Lock()
	idx := c.zoomIndex + 1
	c.mu.Unlock()
	return c.SetZoom(ctx, idx)
}

// ZoomOut steps one level down the zoom table.
func (c *Controller) ZoomOut(ctx context.Context) error {
	c.mu.Lock()
	idx := c.zoomIndex - 1
	c.mu.Unlock()
	return c.SetZoom(ctx, idx)
}

// SetFieldValues replaces the field value set and recomputes highlight boxes
// against the current text layer. An empty set clears computed highlights.
// No re-render is needed: highlights live in normalized space.
func (c *Controller) SetFieldValues(fields []highlight.FieldValue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fieldValues = fields
	c.computed = c.matcher.MatchAll(c.fragments, fields, c.currentPage)
}

// SetStaticHighlights replaces the caller-supplied highlight boxes. Static
// boxes carry their own page numbers and are filtered per page at read time.
func (c *Controller) SetStaticHighlights(boxes []highlight.Box) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staticBoxes = boxes
}

// SetFullscreen mirrors the host surface's fullscreen flag. It has no effect
// on rendering; page surfaces are sized by zoom, not by the window.
func (c *Controller) SetFullscreen(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullscreen = on
}

// ToggleFullscreen flips the fullscreen flag and returns the new value.
func (c *Controller) ToggleFullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullscreen = !c.fullscreen
	return c.fullscreen
}

// Highlights returns the merged highlight boxes for the current page,
// computed boxes first.
func (c *Controller) Highlights() []highlight.Box {
	c.mu.Lock()
	defer c.mu.Unlock()
	return highlight.MergeForPage(c.computed, c.staticBoxes, c.currentPage)
}

// ProjectedHighlights returns the current page's highlight boxes projected
// into device pixels on the committed canvas.
func (c *Controller) ProjectedHighlights() []geometry.PixelRect {
	c.mu.Lock()
	boxes := highlight.MergeForPage(c.computed, c.staticBoxes, c.currentPage)
	canvas := c.canvas
	c.mu.Unlock()

	rects := make([]geometry.PixelRect, 0, len(boxes))
	for _, b := range boxes {
		r := geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
		rects = append(rects, geometry.ToPixels(r, canvas))
	}
	return rects
}

// Surface returns the last committed page bitmap, or nil before the first
// successful render. The caller must not mutate it.
func (c *Controller) Surface() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Fragments returns a copy of the current page's text layer.
func (c *Controller) Fragments() []textlayer.Fragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]textlayer.Fragment, len(c.fragments))
	copy(out, c.fragments)
	return out
}

// Snapshot returns a copy of the observable viewport state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:       c.state,
		PageCount:   c.pageCount,
		CurrentPage: c.currentPage,
		ZoomIndex:   c.zoomIndex,
		Zoom:        ZoomAt(c.zoomIndex),
		Canvas:      c.canvas,
		Fullscreen:  c.fullscreen,
		LastError:   c.lastError,
	}
}

// Close cancels any in-flight render and disposes the document handle.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.state = StateIdle
	if c.doc == nil {
		return nil
	}
	err := c.doc.Close()
	c.doc = nil
	return err
}

func clampPage(pageNumber, pageCount int) int {
	if pageNumber < 1 {
		return 1
	}
	if pageCount > 0 && pageNumber > pageCount {
		return pageCount
	}
	return pageNumber
}
