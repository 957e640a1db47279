// Package server exposes the purchase order pipeline over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"poclerk/internal/pipeline"
	"poclerk/internal/store"
)

// Processor runs one uploaded document through the pipeline.
type Processor interface {
	Process(ctx context.Context, path string) (pipeline.Result, error)
}

// RecordStore serves the lookup endpoints.
type RecordStore interface {
	Lookup(ctx context.Context, poNumber string) (*store.Record, error)
	ListUnknown(ctx context.Context) ([]store.Record, error)
}

type Server struct {
	storageDir string
	proc       Processor
	records    RecordStore
	logger     *slog.Logger
}

func New(storageDir string, proc Processor, records RecordStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		storageDir: storageDir,
		proc:       proc,
		records:    records,
		logger:     logger,
	}
}

// Router builds the HTTP surface. Stored documents are served back
// under /documents so search results can link straight to the PDF.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/upload", s.handleUpload)
	r.GET("/search/:po", s.handleSearch)
	r.GET("/unknown", s.handleUnknown)
	r.GET("/healthz", s.handleHealthz)
	r.Static("/documents", s.storageDir)

	return r
}
