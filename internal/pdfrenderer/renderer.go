// Package pdfrenderer exposes a capability interface for rasterizing PDF
// pages to images, used as the in-process fallback when the `convert`
// binary is unavailable for thumbnail generation.
package pdfrenderer

import (
	"fmt"
	"image"
	"log/slog"
)

var Logger *slog.Logger = slog.Default()

// Backend selects which renderer implementation NewRendererFor builds.
type Backend string

const (
	// BackendFitz uses go-fitz (CGo, MuPDF-backed): fast, but needs a C
	// toolchain at build time.
	BackendFitz Backend = "fitz"
	// BackendPDFium uses go-pdfium's WebAssembly runtime: pure Go, no CGo,
	// for deployments that can't link against MuPDF.
	BackendPDFium Backend = "pdfium"
)

// maxThumbnailPages bounds how many pages any Renderer implementation
// rasterizes. Callers in this codebase only ever use page 0 for a document
// thumbnail, so rendering further pages would be wasted work.
const maxThumbnailPages = 1

// Renderer converts PDF pages to images.
type Renderer interface {
	// RenderPDF returns up to the first maxThumbnailPages images of filename.
	RenderPDF(filename string) ([]image.Image, error)
	// Close releases any resources held by the renderer.
	Close() error
}

// NewRendererFor builds the renderer implementation named by backend.
// An empty or unrecognized backend falls back to BackendFitz.
func NewRendererFor(backend Backend) (Renderer, error) {
	switch backend {
	case BackendPDFium:
		return NewPDFiumRenderer()
	case BackendFitz, "":
		return NewFitzRenderer()
	default:
		Logger.Warn("unknown pdf renderer backend, falling back to fitz", "backend", backend)
		return NewFitzRenderer()
	}
}
