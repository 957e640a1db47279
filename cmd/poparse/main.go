// poparse runs one PDF through the purchase order pipeline and prints
// a single JSON line on stdout: {"po_number": ...} on success or
// {"error": ...} on failure. Logs go to stderr so the output stays
// machine readable.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"poclerk/constants"
	"poclerk/internal/config"
	"poclerk/internal/extract"
	"poclerk/internal/llm"
	"poclerk/internal/pipeline"
	"poclerk/internal/po"
	"poclerk/internal/store"
)

func emit(v any) {
	out, err := json.Marshal(v)
	if err != nil {
		fmt.Println(`{"error": "encode result"}`)
		return
	}
	fmt.Println(string(out))
}

func main() {
	var (
		dbPath  = flag.String("db", "", "sqlite database path (defaults to PO_DB_PATH)")
		noStore = flag.Bool("no-store", false, "parse only, do not record the outcome")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		emit(map[string]string{"error": "No file path provided"})
		os.Exit(1)
	}

	path, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		logger.Error("resolve path", "arg", flag.Arg(0), "error", err)
		emit(map[string]string{"error": "No file path provided"})
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	extractor := extract.NewExtractor(extract.Config{
		Pdftoppm:      cfg.Extract.Pdftoppm,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPages,
		MinTextLen:    cfg.Extract.MinTextLen,
	}, logger)

	translator := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, constants.ApprovedStores, logger)

	validator, err := po.NewValidator(constants.ApprovedStores)
	if err != nil {
		logger.Error("build validator", "error", err)
		emit(map[string]string{"error": "internal error"})
		os.Exit(1)
	}

	var records pipeline.Recorder
	if !*noStore {
		st, err := store.Open(cfg.Database.Path, logger)
		if err != nil {
			logger.Error("open store", "path", cfg.Database.Path, "error", err)
			emit(map[string]string{"error": "could not open database"})
			os.Exit(1)
		}
		defer func() { _ = st.Close() }()
		records = st
	}

	proc := pipeline.NewProcessor(extractor, translator, validator, records, logger)

	res, err := proc.Process(ctx, path)
	if err != nil {
		var fmtErr *pipeline.ResponseFormatError
		switch {
		case errors.Is(err, pipeline.ErrNoText):
			emit(map[string]string{"error": "No text extracted"})
		case errors.As(err, &fmtErr):
			label := "No JSON"
			if fmtErr.Outcome == po.OutcomeBadJSON {
				label = "Bad JSON"
			}
			emit(map[string]string{"error": label, "raw": fmtErr.Raw})
		default:
			emit(map[string]string{"error": err.Error()})
		}
		os.Exit(1)
	}

	emit(map[string]string{"po_number": res.PONumber})
}
