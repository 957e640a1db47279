// Package extract turns purchase order PDFs into text. It prefers the
// document's embedded text layer and falls back to rasterizing and OCR
// when the layer is missing or too thin to be the real content.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Extraction methods reported in Result.Method.
const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned pages, default 300
	MaxPages      int    // cap on OCRed pages, 0 = no limit
	MinTextLen    int    // text layer length above which OCR is skipped, default 100
}

// Result is the outcome of one extraction run.
type Result struct {
	Text     string
	Pages    int
	Method   string // MethodPDFText | MethodPDFOCR
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg       Config
	runner    Runner
	textLayer TextLayerReader
	logger    *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 100
	}
	return &Extractor{
		cfg:       cfg,
		runner:    &execRunner{logger: logger},
		textLayer: pdfTextLayer{},
		logger:    logger,
	}
}

// Extract reads the PDF's text layer and returns it when it holds more than
// MinTextLen characters after trimming. Otherwise the document is treated as
// a scan: every page is rasterized and OCRed, and that result is final even
// when it comes back shorter or empty. Pages are joined with "\n" on both
// paths.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	text, pages, warns, err := e.textLayer.ReadTextLayer(path)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}

	layerLen := len(strings.TrimSpace(text))
	if layerLen > e.cfg.MinTextLen {
		e.logger.Debug("text layer sufficient", "path", path, "chars", layerLen, "pages", pages)
		return Result{
			Text:     text,
			Pages:    pages,
			Method:   MethodPDFText,
			Duration: time.Since(start),
			Warnings: warns,
		}, nil
	}

	e.logger.Info("text layer too thin, falling back to ocr", "path", path, "chars", layerLen)
	otext, opages, owarns, err := e.pdfToOCR(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("ocr fallback: %w", err)
	}
	return Result{
		Text:     otext,
		Pages:    opages,
		Method:   MethodPDFOCR,
		Duration: time.Since(start),
		Warnings: append(warns, owarns...),
	}, nil
}
