// pobatch walks a directory of purchase order PDFs, runs each one
// through the pipeline on a worker queue, and optionally exports the
// resulting register as XLSX.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"poclerk/constants"
	"poclerk/internal/config"
	"poclerk/internal/export"
	"poclerk/internal/extract"
	"poclerk/internal/ingest"
	"poclerk/internal/llm"
	"poclerk/internal/pipeline"
	"poclerk/internal/po"
	"poclerk/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory to process purchase orders from (required)")
		dbPath     = flag.String("db", "", "sqlite database path (defaults to PO_DB_PATH)")
		workers    = flag.Int("workers", 4, "number of concurrent pipeline workers")
		exportPath = flag.String("export", "", "write the register as XLSX to this path after processing")
		watch      = flag.Bool("watch", false, "keep watching the directory for new PDFs until interrupted")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	ctx := context.Background()

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("open store", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

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
		os.Exit(1)
	}

	proc := pipeline.NewProcessor(extractor, translator, validator, st, logger)
	queue := pipeline.NewQueue(proc, logger,
		pipeline.WithWorkers(*workers),
		pipeline.WithProcessTimeout(10*time.Minute),
	)

	logger.Info("starting batch", "dir", *dir, "workers", *workers, "watch", *watch)

	scanned := 0
	matched := 0
	if *watch {
		watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		evCh, errCh, err := ingest.StartWatcher(watchCtx, ingest.WatchConfig{
			Roots:       []string{*dir},
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("start watcher", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching for purchase orders", "dir", *dir)

		seen := map[string]struct{}{}
	loop:
		for {
			select {
			case <-watchCtx.Done():
				break loop
			case path, ok := <-evCh:
				if !ok {
					break loop
				}
				scanned++
				if _, dup := seen[path]; dup {
					continue
				}
				seen[path] = struct{}{}
				matched++
				_ = queue.Enqueue(ctx, pipeline.Job{Path: path})
			case werr, ok := <-errCh:
				if ok && werr != nil {
					logger.Error("watch", "error", werr)
				}
			}
		}
	} else {
		err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, walkErr error) error {
			scanned++
			if walkErr != nil {
				logger.Error("walk", "path", path, "error", walkErr)
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !constants.IsAllowedExt(filepath.Ext(path)) {
				return nil
			}
			matched++
			return queue.Enqueue(ctx, pipeline.Job{Path: path})
		})
		if err != nil {
			logger.Error("walk directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
	}

	queue.Shutdown(context.Background())
	stats := queue.Stats()

	if *exportPath != "" {
		logger.Info("exporting register", "output", *exportPath)
		xlsxBytes, err := export.NewService(st, logger).RegisterXLSX(ctx)
		if err != nil {
			logger.Error("export register", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*exportPath, xlsxBytes, 0644); err != nil {
			logger.Error("write output file", "path", *exportPath, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch processing complete",
		"scanned", scanned,
		"matched", matched,
		"processed", stats.Processed,
		"failures", stats.Failed,
	)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files matched: %d\n", matched)
	fmt.Printf("- Files processed: %d\n", stats.Processed)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	if *exportPath != "" {
		fmt.Printf("- Output: %s\n", *exportPath)
	}
}
