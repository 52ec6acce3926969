// Package highlight locates extracted field values on a page's text layer
// and produces the padded highlight boxes the overlay composites on top of
// the rendered bitmap.
package highlight

import (
	"strings"

	"github.com/complyon/docview/internal/geometry"
	"github.com/complyon/docview/internal/textlayer"
)

// FieldValue is an externally supplied value the viewer attempts to locate
// visually, e.g. a data point produced by a document-understanding pipeline.
type FieldValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Box is a normalized, padded highlight rectangle on a specific page. Boxes
// are only produced for located values; an unlocated value yields no box.
type Box struct {
	PageNumber int     `json:"page_number"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Label      string  `json:"label,omitempty"`
	Color      string  `json:"color,omitempty"`
}

// Default padding applied around a matched fragment box, as page fractions.
// Padding is absolute: small and large matches grow by the same amount.
const (
	DefaultHorizontalPadding = 0.01
	DefaultVerticalPadding   = 0.008
)

// Matcher finds the best-matching fragment(s) for field values. Strategies
// run in a fixed priority order and the first success is accepted
// unconditionally; there is no confidence scoring, and a value that repeats
// on the page matches its first occurrence in document order.
type Matcher struct {
	hPad float64
	vPad float64
}

// NewMatcher returns a matcher with the default padding.
func NewMatcher() *Matcher {
	return NewMatcherWithPadding(DefaultHorizontalPadding, DefaultVerticalPadding)
}

// NewMatcherWithPadding returns a matcher with explicit padding fractions.
func NewMatcherWithPadding(hPad, vPad float64) *Matcher {
	return &Matcher{hPad: hPad, vPad: vPad}
}

// FindMatch locates one field value in the fragment list. Strategies are
// tried in order (exact, substring, multi-fragment span, numeric fuzzy) and
// the first hit wins. A nil return means "value not visually located", which
// is a normal outcome, not an error.
func (m *Matcher) FindMatch(fragments []textlayer.Fragment, field FieldValue, pageNumber int) *Box {
	needle := strings.ToLower(strings.TrimSpace(field.Value))
	if needle == "" || len(fragments) == 0 {
		return nil
	}

	strategies := []func([]textlayer.Fragment, string) *geometry.Rect{
		matchExact,
		matchSubstring,
		matchSpan,
		matchNumeric,
	}

	for _, strategy := range strategies {
		if rect := strategy(fragments, needle); rect != nil {
			padded := geometry.AddPadding(*rect, m.hPad, m.vPad)
			return &Box{
				PageNumber: pageNumber,
				X:          padded.X,
				Y:          padded.Y,
				Width:      padded.Width,
				Height:     padded.Height,
				Label:      field.Label,
				Color:      field.Color,
			}
		}
	}
	return nil
}

// MatchAll recomputes highlight boxes for the full field set from scratch.
// Values that cannot be located contribute nothing. An empty fragment list
// or field set yields nil, which callers use to clear stale highlights.
func (m *Matcher) MatchAll(fragments []textlayer.Fragment, fields []FieldValue, pageNumber int) []Box {
	if len(fragments) == 0 || len(fields) == 0 {
		return nil
	}

	var boxes []Box
	for _, field := range fields {
		if box := m.FindMatch(fragments, field, pageNumber); box != nil {
			boxes = append(boxes, *box)
		}
	}
	return boxes
}

// MergeForPage combines computed and caller-supplied boxes for one page.
// Computed boxes come first so they render beneath the static ones; static
// boxes are filtered to the page. Ordering affects visual stacking only.
func MergeForPage(computed, static []Box, pageNumber int) []Box {
	merged := make([]Box, 0, len(computed)+len(static))
	merged = append(merged, computed...)
	for _, box := range static {
		if box.PageNumber == pageNumber {
			merged = append(merged, box)
		}
	}
	return merged
}

// matchExact finds a fragment whose trimmed, lower-cased text equals the
// search value.
func matchExact(fragments []textlayer.Fragment, needle string) *geometry.Rect {
	for _, f := range fragments {
		if strings.ToLower(strings.TrimSpace(f.Text)) == needle {
			r := f.Rect()
			return &r
		}
	}
	return nil
}

// matchSubstring finds a fragment whose lower-cased text contains the search
// value; this covers values embedded in larger runs, e.g. "Total: 1,234.56"
// containing "1,234.56".
func matchSubstring(fragments []textlayer.Fragment, needle string) *geometry.Rect {
	for _, f := range fragments {
		if strings.Contains(strings.ToLower(f.Text), needle) {
			r := f.Rect()
			return &r
		}
	}
	return nil
}

// matchSpan handles values that the engine split across fragments. All
// fragment texts are space-joined and lower-cased; if the value appears in
// the joined form, fragments are walked in order: the span starts at the
// fragment where the value's first word shows up in the accumulation and
// ends where the full value does. The result is the union of every box in
// that range.
func matchSpan(fragments []textlayer.Fragment, needle string) *geometry.Rect {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = strings.ToLower(f.Text)
	}
	if !strings.Contains(strings.Join(texts, " "), needle) {
		return nil
	}

	words := strings.Fields(needle)
	if len(words) == 0 {
		return nil
	}
	firstWord := words[0]

	start, end := -1, -1
	var acc strings.Builder
	for i, t := range texts {
		if i > 0 {
			acc.WriteByte(' ')
		}
		acc.WriteString(t)

		joined := acc.String()
		if start == -1 && strings.Contains(joined, firstWord) {
			start = i
		}
		if strings.Contains(joined, needle) {
			end = i
			break
		}
	}
	if start == -1 || end == -1 || end < start {
		return nil
	}

	union := fragments[start].Rect()
	for i := start + 1; i <= end; i++ {
		union = geometry.Union(union, fragments[i].Rect())
	}
	return &union
}

// matchNumeric compares numeric values with thousands separators, currency
// symbols, and whitespace stripped from both sides, so "1234.56" finds a
// fragment rendered as "$1,234.56". It only applies when the stripped search
// value is entirely digits and decimal points.
func matchNumeric(fragments []textlayer.Fragment, needle string) *geometry.Rect {
	stripped := stripNumeric(needle)
	if stripped == "" || !isNumeric(stripped) {
		return nil
	}

	for _, f := range fragments {
		candidate := stripNumeric(strings.ToLower(f.Text))
		if candidate == "" {
			continue
		}
		if candidate == stripped || strings.Contains(candidate, stripped) {
			r := f.Rect()
			return &r
		}
	}
	return nil
}

// stripNumeric removes commas, dollar signs, and whitespace.
func stripNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ',', '$', ' ', '\t', '\n', '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isNumeric reports whether s consists only of digits and decimal points.
func isNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return len(s) > 0
}
