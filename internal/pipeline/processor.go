// Package pipeline runs one purchase order document end to end:
// extract text, canonicalize, translate through the model, validate
// the response, and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"poclerk/internal/extract"
	"poclerk/internal/llm"
	"poclerk/internal/normalize"
	"poclerk/internal/po"
	"poclerk/internal/store"
)

// Extractor pulls raw text out of a PDF on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

// Recorder persists validated outcomes.
type Recorder interface {
	Insert(ctx context.Context, poNumber, pdfPath string) (store.Record, error)
}

var (
	// ErrNoText means no usable text came out of the document: it was
	// unreadable by both extraction strategies, or it was readable and
	// yielded nothing after canonicalization.
	ErrNoText = errors.New("no text extracted")

	// ErrTranslate wraps failures of the model call itself, as opposed
	// to responses the validator turned away.
	ErrTranslate = errors.New("translate text")
)

// ResponseFormatError reports a model response the validator could not
// parse at all. Nothing is recorded for these; the document needs a
// retry, not a sentinel row.
type ResponseFormatError struct {
	Outcome po.Outcome
	Raw     string
}

func (e *ResponseFormatError) Error() string {
	if e.Outcome == po.OutcomeBadJSON {
		return "model response contains malformed json"
	}
	return "model response contains no json object"
}

// Result summarizes one processed document.
type Result struct {
	PONumber string
	Outcome  po.Outcome
	Reason   string
	RecordID string
	PDFPath  string
	Method   string
	Raw      string
	Duration time.Duration
}

type Processor struct {
	extractor  Extractor
	translator llm.Translator
	validator  *po.Validator
	records    Recorder
	logger     *slog.Logger
}

// NewProcessor wires the stages together. A nil records disables
// persistence; the processor then reports outcomes without recording
// them.
func NewProcessor(extractor Extractor, translator llm.Translator, validator *po.Validator, records Recorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		extractor:  extractor,
		translator: translator,
		validator:  validator,
		records:    records,
		logger:     logger,
	}
}

// Process runs path through every stage. Rejected responses are
// recorded under the sentinel; format errors and upstream failures
// abort before anything is persisted.
func (p *Processor) Process(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	ext, err := p.extractor.Extract(ctx, path)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "path", path, "err", err)
		return Result{PDFPath: path}, fmt.Errorf("%w: %w", ErrNoText, err)
	}
	p.logger.Debug("pipeline.extract.ok",
		"path", path,
		"method", ext.Method,
		"pages", ext.Pages,
		"chars", len(ext.Text),
	)

	text := normalize.Canonical(ext.Text)
	if text == "" {
		p.logger.Warn("pipeline.no_text", "path", path, "method", ext.Method)
		return Result{PDFPath: path, Method: ext.Method}, ErrNoText
	}

	raw, err := p.translator.Translate(ctx, text)
	if err != nil {
		p.logger.Error("pipeline.translate.failed", "path", path, "err", err)
		return Result{PDFPath: path, Method: ext.Method}, fmt.Errorf("%w: %w", ErrTranslate, err)
	}

	v := p.validator.Validate(raw)
	out := Result{
		PONumber: v.PONumber,
		Outcome:  v.Outcome,
		Reason:   v.Reason,
		PDFPath:  path,
		Method:   ext.Method,
		Raw:      raw,
	}

	switch v.Outcome {
	case po.OutcomeNoJSON, po.OutcomeBadJSON:
		p.logger.Warn("pipeline.validate.unparseable", "path", path, "outcome", string(v.Outcome))
		return out, &ResponseFormatError{Outcome: v.Outcome, Raw: raw}
	case po.OutcomeRejected:
		p.logger.Warn("pipeline.validate.rejected", "path", path, "reason", v.Reason)
	default:
		p.logger.Info("pipeline.validate.ok", "path", path, "po_number", v.PONumber)
	}

	if p.records != nil {
		rec, err := p.records.Insert(ctx, v.PONumber, path)
		if err != nil {
			return out, fmt.Errorf("record purchase order: %w", err)
		}
		out.RecordID = rec.ID
	}

	out.Duration = time.Since(start)
	p.logger.Info("pipeline.done",
		"path", path,
		"po_number", out.PONumber,
		"outcome", string(out.Outcome),
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}
