package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Default page dimensions (US Letter, points) used when a page carries no
// usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// layoutEngine is the pure-Go backend. It supplies positioned text and page
// geometry from the document itself; Render produces a blank surface with
// the correct pixel dimensions rather than a rasterization, which keeps
// overlay geometry working where the pdfium worker cannot run.
type layoutEngine struct{}

func newLayoutEngine() *layoutEngine {
	return &layoutEngine{}
}

func (e *layoutEngine) Type() Type {
	return TypeLayout
}

func (e *layoutEngine) Open(ctx context.Context, src Source) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if src.Data != nil {
		reader, err := pdf.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
		if err != nil {
			return nil, wrap(TypeLayout, "open", err)
		}
		return &layoutDocument{reader: reader}, nil
	}

	f, reader, err := pdf.Open(src.Path)
	if err != nil {
		return nil, wrap(TypeLayout, "open", err)
	}
	return &layoutDocument{reader: reader, file: f}, nil
}

func (e *layoutEngine) Close() error {
	return nil
}

type layoutDocument struct {
	reader *pdf.Reader
	file   *os.File
}

func (d *layoutDocument) PageCount() (int, error) {
	return d.reader.NumPage(), nil
}

func (d *layoutDocument) Page(number int) (Page, error) {
	if number < 1 || number > d.reader.NumPage() {
		return nil, wrap(TypeLayout, "page",
			fmt.Errorf("page %d out of range [1,%d]", number, d.reader.NumPage()))
	}
	page := d.reader.Page(number)
	if page.V.IsNull() {
		return nil, wrap(TypeLayout, "page", fmt.Errorf("page %d is null", number))
	}
	return &layoutPage{page: page, number: number}, nil
}

func (d *layoutDocument) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

type layoutPage struct {
	page   pdf.Page
	number int
}

func (p *layoutPage) Number() int {
	return p.number
}

// Size reads the page MediaBox, walking up the page tree for inherited
// boxes, and falls back to US Letter when nothing usable is found.
func (p *layoutPage) Size() (width, height float64, err error) {
	defer func() {
		if recover() != nil {
			width, height, err = defaultPageWidth, defaultPageHeight, nil
		}
	}()

	if w, h, ok := mediaBoxSize(p.page.V.Key("MediaBox")); ok {
		return w, h, nil
	}

	// Inherited MediaBox; bounded walk to survive cyclic parent chains.
	current := p.page.V
	for i := 0; i < 10; i++ {
		parent := current.Key("Parent")
		if parent.IsNull() {
			break
		}
		if w, h, ok := mediaBoxSize(parent.Key("MediaBox")); ok {
			return w, h, nil
		}
		current = parent
	}

	return defaultPageWidth, defaultPageHeight, nil
}

func mediaBoxSize(box pdf.Value) (float64, float64, bool) {
	if box.IsNull() || box.Kind() != pdf.Array || box.Len() != 4 {
		return 0, 0, false
	}

	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v := box.Index(i)
		switch v.Kind() {
		case pdf.Integer:
			coords[i] = float64(v.Int64())
		case pdf.Real:
			coords[i] = v.Float64()
		default:
			return 0, 0, false
		}
	}

	w := coords[2] - coords[0]
	h := coords[3] - coords[1]
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Render produces a blank page surface at the requested scale. The pixel
// dimensions match what a rasterizing backend would produce, so canvas
// tracking and overlay projection behave identically.
func (p *layoutPage) Render(ctx context.Context, scale float64) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}

	w, h, err := p.Size()
	if err != nil {
		return nil, err
	}

	widthPx := int(w*scale + 0.5)
	heightPx := int(h*scale + 0.5)
	img := image.NewRGBA(image.Rect(0, 0, widthPx, heightPx))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &RenderResult{
		Image:    img,
		WidthPx:  widthPx,
		HeightPx: heightPx,
		Scale:    scale,
	}, nil
}

// TextItems extracts the page's positioned text runs. Malformed content
// streams make the underlying parser panic; that is recovered into an error
// the text layer degrades on.
func (p *layoutPage) TextItems(ctx context.Context) (items []TextItem, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = wrap(TypeLayout, "text", fmt.Errorf("content stream parse panic: %v", r))
		}
	}()

	content := p.page.Content()
	items = make([]TextItem, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		// The parser reports no text matrix and no glyph height; encode
		// the font size as the matrix scale and leave Height unset so the
		// text layer applies its font-size fallback.
		items = append(items, TextItem{
			Text:      t.S,
			X:         t.X,
			Y:         t.Y,
			Width:     t.W,
			Transform: [6]float64{t.FontSize, 0, 0, t.FontSize, t.X, t.Y},
			Font:      t.Font,
		})
	}
	return items, nil
}
