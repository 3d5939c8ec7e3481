package pdfrenderer

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// thumbnailDPI matches the rasterization DPI ocrmypdf defaults to, so a
// thumbnail rendered this way looks like what the OCR pass actually saw.
const thumbnailDPI = 150

// PDFiumRenderer rasterizes PDF pages using go-pdfium's WebAssembly runtime,
// the pure-Go alternative to FitzRenderer for builds without a C toolchain.
type PDFiumRenderer struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer builds a PDFiumRenderer with a single-worker pool; this
// package only ever renders one document at a time, so a larger pool would
// sit idle.
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	pool, err := webassembly.Init(webassembly.Config{MinIdle: 1, MaxIdle: 1, MaxTotal: 1})
	if err != nil {
		return nil, fmt.Errorf("init pdfium webassembly: %w", err)
	}

	instance, err := pool.GetInstance(30 * time.Second)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("get pdfium instance: %w", err)
	}

	return &PDFiumRenderer{pool: pool, instance: instance}, nil
}

// RenderPDF rasterizes up to maxThumbnailPages of filename at thumbnailDPI.
func (r *PDFiumRenderer) RenderPDF(filename string) ([]image.Image, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read pdf file: %w", err)
	}

	doc, err := r.instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return nil, fmt.Errorf("open pdf document: %w", err)
	}
	defer r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	pageCount, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	pages := pageCount.PageCount
	if pages > maxThumbnailPages {
		pages = maxThumbnailPages
	}

	images := make([]image.Image, 0, pages)
	for i := 0; i < pages; i++ {
		rendered, err := r.instance.RenderPageInDPI(&requests.RenderPageInDPI{
			DPI:  thumbnailDPI,
			Page: requests.Page{ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i}},
		})
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i, err)
		}
		images = append(images, rendered.Result.Image)
		rendered.Cleanup()
	}
	return images, nil
}

// Close releases the WebAssembly pool.
func (r *PDFiumRenderer) Close() error {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.instance = nil
	return nil
}
