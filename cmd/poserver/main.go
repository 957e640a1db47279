// poserver exposes the purchase order pipeline over HTTP: upload,
// search, and the unknown-document backlog.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"poclerk/constants"
	"poclerk/internal/config"
	"poclerk/internal/extract"
	"poclerk/internal/llm"
	"poclerk/internal/pipeline"
	"poclerk/internal/po"
	"poclerk/internal/server"
	"poclerk/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("open store", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("close store", "error", cerr)
		}
	}()
	logger.Info("store ready", "path", cfg.Database.Path)

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
	logger.Info("translator ready", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)

	validator, err := po.NewValidator(constants.ApprovedStores)
	if err != nil {
		logger.Error("build validator", "error", err)
		os.Exit(1)
	}

	proc := pipeline.NewProcessor(extractor, translator, validator, st, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg.Storage.Dir, proc, st, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
