package textlayer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyon/docview/internal/engine"
)

// fakePage is a minimal engine.Page for extraction tests.
type fakePage struct {
	number  int
	width   float64
	height  float64
	items   []engine.TextItem
	sizeErr error
	itemErr error
}

func (p *fakePage) Number() int { return p.number }

func (p *fakePage) Size() (float64, float64, error) {
	return p.width, p.height, p.sizeErr
}

func (p *fakePage) Render(_ context.Context, scale float64) (*engine.RenderResult, error) {
	return &engine.RenderResult{
		WidthPx:  int(p.width * scale),
		HeightPx: int(p.height * scale),
		Scale:    scale,
	}, nil
}

func (p *fakePage) TextItems(context.Context) ([]engine.TextItem, error) {
	return p.items, p.itemErr
}

func TestExtract_SkipsBlankItems(t *testing.T) {
	page := &fakePage{
		width: 612, height: 792,
		items: []engine.TextItem{
			{Text: "Invoice", X: 72, Y: 700, Width: 60, Height: 12},
			{Text: "   "},
			{Text: "\t\n"},
			{Text: "Total", X: 72, Y: 100, Width: 40, Height: 12},
		},
	}

	fragments, err := Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "Invoice", fragments[0].Text)
	assert.Equal(t, "Total", fragments[1].Text)
}

func TestExtract_PreservesEngineOrder(t *testing.T) {
	page := &fakePage{
		width: 612, height: 792,
		items: []engine.TextItem{
			{Text: "Total", X: 72, Y: 100, Width: 40, Height: 12},
			{Text: "Amount:", X: 120, Y: 100, Width: 60, Height: 12},
			{Text: "1,234.56", X: 190, Y: 100, Width: 70, Height: 12},
		},
	}

	fragments, err := Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, fragments, 3)
	assert.Equal(t, []string{"Total", "Amount:", "1,234.56"},
		[]string{fragments[0].Text, fragments[1].Text, fragments[2].Text})
}

func TestExtract_NormalizesAndFlips(t *testing.T) {
	// A 12pt-high run whose bottom edge sits 100pt above the page bottom on
	// a 612x792 page.
	page := &fakePage{
		width: 612, height: 792,
		items: []engine.TextItem{
			{Text: "Acme Corp", X: 61.2, Y: 100, Width: 122.4, Height: 12},
		},
	}

	fragments, err := Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	f := fragments[0]
	assert.InDelta(t, 0.1, f.X, 1e-9)
	assert.InDelta(t, 1-100.0/792-12.0/792, f.Y, 1e-9)
	assert.InDelta(t, 0.2, f.Width, 1e-9)
	assert.InDelta(t, 12.0/792, f.Height, 1e-9)
	assert.LessOrEqual(t, f.X+f.Width, 1.0)
	assert.LessOrEqual(t, f.Y+f.Height, 1.0)
}

func TestFontSize_FromTransformScale(t *testing.T) {
	tests := []struct {
		name string
		item engine.TextItem
		want float64
	}{
		{"plain", engine.TextItem{Transform: [6]float64{12, 0, 0, 12, 100, 200}}, 12},
		{"rotated_45", engine.TextItem{Transform: [6]float64{3, 4, -4, 3, 0, 0}}, 5},
		{"degenerate", engine.TextItem{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FontSize(tt.item), 1e-9)
		})
	}
}

func TestResolveHeight_FallbackOrder(t *testing.T) {
	tests := []struct {
		name     string
		item     engine.TextItem
		fontSize float64
		want     float64
	}{
		{"reported_height_wins", engine.TextItem{Height: 14}, 10, 14},
		{"font_size_when_no_height", engine.TextItem{}, 10, 10},
		{"default_when_nothing", engine.TextItem{}, 0, defaultGlyphHeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveHeight(tt.item, tt.fontSize))
		})
	}
}

func TestExtract_MissingHeightUsesFontSize(t *testing.T) {
	// The layout backend reports no height; the transform carries the font
	// size instead.
	page := &fakePage{
		width: 612, height: 792,
		items: []engine.TextItem{
			{Text: "Vendor", X: 72, Y: 700, Width: 50, Transform: [6]float64{10, 0, 0, 10, 72, 700}},
		},
	}

	fragments, err := Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.InDelta(t, 10.0/792, fragments[0].Height, 1e-9)
}

func TestExtract_PropagatesFailures(t *testing.T) {
	cause := errors.New("malformed content stream")

	_, err := Extract(context.Background(), &fakePage{width: 612, height: 792, itemErr: cause})
	assert.ErrorIs(t, err, cause)

	_, err = Extract(context.Background(), &fakePage{sizeErr: cause})
	assert.ErrorIs(t, err, cause)
}
