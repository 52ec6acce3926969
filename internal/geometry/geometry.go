// Package geometry converts between PDF page space and the normalized
// overlay space used for highlight positioning.
//
// PDF space has its origin at the bottom-left of the page with Y increasing
// upward, in page points. Normalized space is resolution independent: every
// coordinate is a fraction of the page width or height in [0,1], with the
// origin at the top-left and Y increasing downward. All cross-zoom geometry
// is kept normalized and only projected into pixels at composition time.
package geometry

// Rect is a normalized rectangle. All four fields, as well as X+Width and
// Y+Height, are guaranteed to lie in [0,1] for rectangles produced by this
// package.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Canvas holds the pixel dimensions of a rendered page surface at the
// currently active zoom level.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PixelRect is a rectangle projected onto a concrete canvas, in device pixels.
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToNormalized converts a glyph box from PDF space into normalized space.
// pdfX and pdfY locate the glyph's bottom-left corner; glyphW and glyphH are
// its extents in points; pageW and pageH are the page dimensions in points.
//
// The vertical flip is y = 1 - pdfY/pageH - glyphH/pageH. Clamping happens
// after the flip: font metrics occasionally report glyphs outside the page
// bounds, and those must not produce negative or overflowing boxes.
func ToNormalized(pdfX, pdfY, glyphW, glyphH, pageW, pageH float64) Rect {
	if pageW <= 0 || pageH <= 0 {
		return Rect{}
	}

	x := pdfX / pageW
	y := 1 - pdfY/pageH - glyphH/pageH
	w := glyphW / pageW
	h := glyphH / pageH

	return clampRect(Rect{X: x, Y: y, Width: w, Height: h})
}

// AddPadding expands r symmetrically by the fixed fractional amounts hPad and
// vPad. Padding is absolute, not proportional to the box: a small glyph and a
// large glyph receive the same expansion. The result is re-clamped so the
// padded box never leaves the [0,1] page bounds on any edge; with zero
// padding an already-clamped box is returned unchanged.
func AddPadding(r Rect, hPad, vPad float64) Rect {
	return clampRect(Rect{
		X:      r.X - hPad,
		Y:      r.Y - vPad,
		Width:  r.Width + 2*hPad,
		Height: r.Height + 2*vPad,
	})
}

// Union returns the smallest rectangle covering both a and b.
func Union(a, b Rect) Rect {
	x0 := min(a.X, b.X)
	y0 := min(a.Y, b.Y)
	x1 := max(a.X+a.Width, b.X+b.Width)
	y1 := max(a.Y+a.Height, b.Y+b.Height)

	return clampRect(Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0})
}

// ToPixels projects a normalized rectangle onto a canvas.
func ToPixels(r Rect, canvas Canvas) PixelRect {
	w := float64(canvas.Width)
	h := float64(canvas.Height)

	return PixelRect{
		X:      r.X * w,
		Y:      r.Y * h,
		Width:  r.Width * w,
		Height: r.Height * h,
	}
}

// clampRect forces every edge of r into [0,1]. X and Y are clamped first,
// then the extents are reduced so X+Width and Y+Height stay inside the page.
func clampRect(r Rect) Rect {
	x := Clamp01(r.X)
	y := Clamp01(r.Y)
	w := Clamp01(r.Width)
	h := Clamp01(r.Height)

	if x+w > 1 {
		w = 1 - x
	}
	if y+h > 1 {
		h = 1 - y
	}

	return Rect{X: x, Y: y, Width: w, Height: h}
}
