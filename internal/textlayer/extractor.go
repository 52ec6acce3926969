// Package textlayer turns an engine page's positioned text runs into
// normalized text fragments for highlight matching.
package textlayer

import (
	"context"
	"fmt"
	"math"
	"unicode"

	"github.com/complyon/docview/internal/engine"
	"github.com/complyon/docview/internal/geometry"
)

// Fragment is one positioned run of page text in normalized coordinates
// (top-left origin, [0,1] relative to page size). Fragment lists are
// recomputed wholesale whenever the active page changes and never mutated in
// place.
type Fragment struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// defaultGlyphHeight is the last-resort glyph height in points, used when an
// item reports neither a height nor a usable transform.
const defaultGlyphHeight = 12.0

// HeightRule resolves a glyph height from an engine text item. Rules are
// tried in order; the first applicable one wins. Keeping the fallbacks in a
// table makes each independently testable instead of buried in extraction.
type HeightRule struct {
	Name    string
	Applies func(item engine.TextItem, fontSize float64) bool
	Height  func(item engine.TextItem, fontSize float64) float64
}

// heightRules is the fixed fallback order: the engine-reported height when
// present, then the font size computed from the transform, then a fixed
// default for items with degenerate metrics.
var heightRules = []HeightRule{
	{
		Name:    "reported_height",
		Applies: func(item engine.TextItem, _ float64) bool { return item.Height > 0 },
		Height:  func(item engine.TextItem, _ float64) float64 { return item.Height },
	},
	{
		Name:    "font_size",
		Applies: func(_ engine.TextItem, fontSize float64) bool { return fontSize > 0 },
		Height:  func(_ engine.TextItem, fontSize float64) float64 { return fontSize },
	},
	{
		Name:    "default",
		Applies: func(engine.TextItem, float64) bool { return true },
		Height:  func(engine.TextItem, float64) float64 { return defaultGlyphHeight },
	},
}

// FontSize computes the item's font size from the scale components of its
// text matrix [a b c d e f]: sqrt(a²+b²). Rotated text keeps its true size
// this way.
func FontSize(item engine.TextItem) float64 {
	return math.Hypot(item.Transform[0], item.Transform[1])
}

// ResolveHeight returns the glyph height for an item, applying the fallback
// rules in order.
func ResolveHeight(item engine.TextItem, fontSize float64) float64 {
	for _, rule := range heightRules {
		if rule.Applies(item, fontSize) {
			return rule.Height(item, fontSize)
		}
	}
	return defaultGlyphHeight
}

// Extract produces the page's text fragments in the engine's native order.
// Whitespace-only items are skipped; everything else is normalized through
// the coordinate transformer. Output order matters: the matcher's span
// strategy joins consecutive fragments and relies on reading order.
//
// A failure here is the caller's cue to degrade to an empty fragment list;
// it must never abort page rendering.
func Extract(ctx context.Context, page engine.Page) ([]Fragment, error) {
	pageW, pageH, err := page.Size()
	if err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}

	items, err := page.TextItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("text items: %w", err)
	}

	fragments := make([]Fragment, 0, len(items))
	for _, item := range items {
		if isBlank(item.Text) {
			continue
		}

		fontSize := FontSize(item)
		height := ResolveHeight(item, fontSize)
		rect := geometry.ToNormalized(item.X, item.Y, item.Width, height, pageW, pageH)

		fragments = append(fragments, Fragment{
			Text:   item.Text,
			X:      rect.X,
			Y:      rect.Y,
			Width:  rect.Width,
			Height: rect.Height,
		})
	}
	return fragments, nil
}

// Rect returns the fragment's box as a geometry rectangle.
func (f Fragment) Rect() geometry.Rect {
	return geometry.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
