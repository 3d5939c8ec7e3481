// Package textextract turns a file path into body text, preferring native
// PDF extraction and falling back to OCR, and renders page-1 thumbnails.
// Third-party failures (panics, non-zero subprocess exits) are isolated
// here so a single malformed document cannot take down the worker.
package textextract

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/N-Schaef/shreddr/internal/pdfrenderer"
	"github.com/N-Schaef/shreddr/internal/shreddrerr"
	"github.com/ledongthuc/pdf"
)

var Logger *slog.Logger = slog.Default()

const component = "textextract"

// Extractor bundles the adapters needed to pull text and thumbnails from a
// document, plus an in-process fallback renderer for when `convert` is
// missing.
type Extractor struct {
	TesseractLanguages []string
	TmpDir             string
	RendererBackend    pdfrenderer.Backend

	// fallbackRenderer is used for thumbnails when `convert` is not on PATH
	// or fails. Constructed lazily since it may require CGo/WASM runtimes not
	// every deployment needs.
	fallbackRenderer pdfrenderer.Renderer
}

// New builds an Extractor. tmpDir is stored as TmpDir; OCR rewrites the
// source file in place and does not write to it.
// rendererBackend picks the in-process fallback rasterizer (BackendFitz or
// BackendPDFium); an empty value defaults to BackendFitz.
func New(tesseractLanguages []string, tmpDir string, rendererBackend pdfrenderer.Backend) *Extractor {
	return &Extractor{TesseractLanguages: tesseractLanguages, TmpDir: tmpDir, RendererBackend: rendererBackend}
}

// ExtractBody dispatches by lowercased extension. For PDFs, native
// extraction is tried first; a panic, error, or empty result triggers an
// automatic OCR fallback. Unsupported extensions return nil.
func (e *Extractor) ExtractBody(path string) (*string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := e.extractNativePDF(path)
		if err == nil && text != "" {
			return &text, nil
		}
		if err != nil {
			Logger.Warn("native pdf extraction failed, falling back to OCR", "path", path, "error", err)
		}
		return e.OCR(path)
	default:
		return nil, nil
	}
}

// extractNativePDF isolates panics from the third-party PDF text library so
// a single malformed PDF cannot crash the worker.
func (e *Extractor) extractNativePDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("panic recovered during native pdf extraction", "path", path, "recover", r)
			text, err = "", fmt.Errorf("panic during pdf extraction: %v", r)
		}
	}()

	file, reader, openErr := pdf.Open(path)
	if openErr != nil {
		return "", fmt.Errorf("open pdf: %w", openErr)
	}
	defer file.Close()

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, textErr := page.GetPlainText(nil)
		if textErr != nil {
			continue
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

// OCR rewrites path in place via ocrmypdf (embedding a text layer using the
// configured tesseract languages) then re-extracts natively. It returns an
// ExternalTool error if no languages are configured or ocrmypdf fails, and
// nil, nil if the post-OCR text is still empty. Callers persist the
// document without a body in either case.
func (e *Extractor) OCR(path string) (*string, error) {
	if len(e.TesseractLanguages) == 0 {
		return nil, shreddrerr.Newf(shreddrerr.KindExternalTool, component, "no tesseract languages configured")
	}

	langs := strings.Join(e.TesseractLanguages, "+")
	cmd := exec.Command("ocrmypdf", "--deskew", "--clean", "--force-ocr", "-l", langs, path, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		Logger.Warn("ocrmypdf failed", "path", path, "error", err, "output", string(out))
		return nil, shreddrerr.New(shreddrerr.KindExternalTool, component, fmt.Errorf("ocrmypdf: %w", err))
	}

	text, err := e.extractNativePDF(path)
	if err != nil || text == "" {
		return nil, nil
	}
	return &text, nil
}

// RenderThumbnail generates a JPEG thumbnail of page 1 at dst. Best-effort:
// logs failure and returns without error, per the thumbnail contract.
// Primary path shells out to `convert`; if that binary is unavailable or
// fails, it falls back to the in-process Renderer capability.
func (e *Extractor) RenderThumbnail(src, dst string) {
	if _, err := exec.LookPath("convert"); err == nil {
		cmd := exec.Command("convert",
			"-colorspace", "RGB",
			src+"[0]",
			"-trim", "+repage",
			"-background", "white",
			"-flatten",
			dst,
		)
		if out, err := cmd.CombinedOutput(); err == nil {
			return
		} else {
			Logger.Warn("convert thumbnail failed, trying in-process renderer", "src", src, "error", err, "output", string(out))
		}
	}

	if err := e.renderThumbnailNative(src, dst); err != nil {
		Logger.Warn("thumbnail rendering failed", "src", src, "error", err)
	}
}

func (e *Extractor) renderThumbnailNative(src, dst string) error {
	if e.fallbackRenderer == nil {
		renderer, err := pdfrenderer.NewRendererFor(e.RendererBackend)
		if err != nil {
			return fmt.Errorf("construct fallback renderer: %w", err)
		}
		e.fallbackRenderer = renderer
	}

	images, err := e.fallbackRenderer.RenderPDF(src)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if len(images) == 0 {
		return fmt.Errorf("no pages rendered")
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create thumbnail file: %w", err)
	}
	defer out.Close()

	return encodeJPEG(out, images[0])
}
