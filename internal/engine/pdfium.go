package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/responses"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const baseDPI = 72

// pdfiumEngine renders through the pdfium library running on a WebAssembly
// worker pool. The pool is created when the engine is, owned by it, and torn
// down on Close.
type pdfiumEngine struct {
	pool            pdfium.Pool
	instanceTimeout time.Duration
}

func newPdfiumEngine(cfg FactoryConfig) (*pdfiumEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  cfg.Workers,
		MaxTotal: cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("init pdfium worker pool: %w", err)
	}

	return &pdfiumEngine{
		pool:            pool,
		instanceTimeout: cfg.InstanceTimeout,
	}, nil
}

func (e *pdfiumEngine) Type() Type {
	return TypePdfium
}

func (e *pdfiumEngine) Open(ctx context.Context, src Source) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := src.Data
	if data == nil {
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, wrap(TypePdfium, "open", fmt.Errorf("read document: %w", err))
		}
		data = b
	}

	instance, err := e.pool.GetInstance(e.instanceTimeout)
	if err != nil {
		return nil, wrap(TypePdfium, "open", fmt.Errorf("acquire worker: %w", err))
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		_ = instance.Close()
		return nil, wrap(TypePdfium, "open", err)
	}

	return &pdfiumDocument{instance: instance, doc: doc}, nil
}

func (e *pdfiumEngine) Close() error {
	return e.pool.Close()
}

// pdfiumDocument binds an open document to the worker instance it was
// opened on.
type pdfiumDocument struct {
	instance pdfium.Pdfium
	doc      *responses.OpenDocument
}

func (d *pdfiumDocument) PageCount() (int, error) {
	resp, err := d.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: d.doc.Document,
	})
	if err != nil {
		return 0, wrap(TypePdfium, "page count", err)
	}
	return resp.PageCount, nil
}

func (d *pdfiumDocument) Page(number int) (Page, error) {
	count, err := d.PageCount()
	if err != nil {
		return nil, err
	}
	if number < 1 || number > count {
		return nil, wrap(TypePdfium, "page",
			fmt.Errorf("page %d out of range [1,%d]", number, count))
	}
	return &pdfiumPage{doc: d, number: number}, nil
}

func (d *pdfiumDocument) Close() error {
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.doc.Document,
	})
	closeErr := d.instance.Close()
	if err != nil {
		return wrap(TypePdfium, "close", err)
	}
	if closeErr != nil {
		return wrap(TypePdfium, "close", closeErr)
	}
	return nil
}

type pdfiumPage struct {
	doc    *pdfiumDocument
	number int
}

func (p *pdfiumPage) Number() int {
	return p.number
}

func (p *pdfiumPage) pageRef() requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: p.doc.doc.Document,
			Index:    p.number - 1,
		},
	}
}

func (p *pdfiumPage) Size() (float64, float64, error) {
	resp, err := p.doc.instance.GetPageSize(&requests.GetPageSize{
		Page: p.pageRef(),
	})
	if err != nil {
		return 0, 0, wrap(TypePdfium, "page size", err)
	}
	return resp.Width, resp.Height, nil
}

func (p *pdfiumPage) Render(ctx context.Context, scale float64) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}

	resp, err := p.doc.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		Page: p.pageRef(),
		DPI:  int(baseDPI*scale + 0.5),
	})
	if err != nil {
		return nil, wrap(TypePdfium, "render", err)
	}
	defer resp.Cleanup()

	// The worker completed even if the caller gave up meanwhile; honor the
	// cancellation before committing any result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := cloneRGBA(resp.Result.Image)
	bounds := img.Bounds()

	return &RenderResult{
		Image:    img,
		WidthPx:  bounds.Dx(),
		HeightPx: bounds.Dy(),
		Scale:    scale,
	}, nil
}

func (p *pdfiumPage) TextItems(ctx context.Context) ([]TextItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, pageH, err := p.Size()
	if err != nil {
		return nil, err
	}

	resp, err := p.doc.instance.GetPageTextStructured(&requests.GetPageTextStructured{
		Page: p.pageRef(),
		Mode: requests.GetPageTextStructuredModeRects,
	})
	if err != nil {
		return nil, wrap(TypePdfium, "text", err)
	}

	items := make([]TextItem, 0, len(resp.Rects))
	for _, rect := range resp.Rects {
		if rect == nil {
			continue
		}

		// pdfium reports rect positions top-left-origin in points; text
		// items are contractually PDF space, so flip to bottom-left here.
		w := rect.PointPosition.Right - rect.PointPosition.Left
		h := rect.PointPosition.Bottom - rect.PointPosition.Top
		pdfY := pageH - rect.PointPosition.Bottom

		items = append(items, TextItem{
			Text:      rect.Text,
			X:         rect.PointPosition.Left,
			Y:         pdfY,
			Width:     w,
			Height:    h,
			Transform: [6]float64{h, 0, 0, h, rect.PointPosition.Left, pdfY},
		})
	}
	return items, nil
}

// cloneRGBA copies a worker-owned bitmap into memory we control, so the
// worker buffer can be released immediately after rendering.
func cloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
