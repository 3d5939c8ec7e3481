package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes PDF pages using go-fitz (CGo, MuPDF-backed).
type FitzRenderer struct{}

// NewFitzRenderer builds a FitzRenderer.
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// RenderPDF rasterizes up to maxThumbnailPages of filename, isolating
// panics from the CGo/MuPDF boundary so a single malformed document cannot
// crash the worker that called it.
func (r *FitzRenderer) RenderPDF(filename string) (images []image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger.Error("panic recovered during fitz rendering", "path", filename, "recover", rec)
			images, err = nil, fmt.Errorf("panic during fitz rendering: %v", rec)
		}
	}()

	doc, err := fitz.New(filename)
	if err != nil {
		return nil, fmt.Errorf("open pdf document: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > maxThumbnailPages {
		pages = maxThumbnailPages
	}

	out := make([]image.Image, 0, pages)
	for page := 0; page < pages; page++ {
		img, err := doc.Image(page)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		out = append(out, img)
	}
	return out, nil
}

// Close is a no-op; go-fitz documents are closed per render.
func (r *FitzRenderer) Close() error {
	return nil
}
