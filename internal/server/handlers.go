package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"poclerk/constants"
	"poclerk/internal/pipeline"
	"poclerk/internal/po"
	"poclerk/internal/store"
)

// handleUpload accepts one PDF under the "file" form field, stores it
// under the document directory, and runs it through the pipeline.
func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if !constants.IsAllowedExt(filepath.Ext(fh.Filename)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only pdf uploads are accepted"})
		return
	}

	path, err := s.saveUpload(fh)
	if err != nil {
		s.logger.Error("server.upload.save_failed", "filename", fh.Filename, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}
	s.logger.Info("server.upload.stored", "path", path, "size", fh.Size)

	res, err := s.proc.Process(c.Request.Context(), path)
	if err != nil {
		s.writeProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"po_number": res.PONumber, "pdf_path": res.PDFPath})
}

func (s *Server) writeProcessError(c *gin.Context, err error) {
	var fmtErr *pipeline.ResponseFormatError
	switch {
	case errors.Is(err, pipeline.ErrNoText):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text extracted."})
	case errors.As(err, &fmtErr):
		label := "No JSON"
		if fmtErr.Outcome == po.OutcomeBadJSON {
			label = "Bad JSON"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": label, "raw": fmtErr.Raw})
	case errors.Is(err, store.ErrDuplicatePO):
		c.JSON(http.StatusConflict, gin.H{"error": "PO already recorded"})
	case errors.Is(err, pipeline.ErrTranslate):
		c.JSON(http.StatusBadGateway, gin.H{"error": "translation backend unavailable"})
	default:
		s.logger.Error("server.upload.process_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
	}
}

// handleSearch resolves a PO number to a link under /documents.
func (s *Server) handleSearch(c *gin.Context) {
	poNumber := c.Param("po")

	rec, err := s.records.Lookup(c.Request.Context(), poNumber)
	if err != nil {
		s.logger.Error("server.search.failed", "po_number", poNumber, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "PO not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pdf_link": "/documents/" + filepath.Base(rec.PDFPath)})
}

// handleUnknown lists the sentinel backlog so someone can triage the
// documents the model could not place.
func (s *Server) handleUnknown(c *gin.Context) {
	records, err := s.records.ListUnknown(c.Request.Context())
	if err != nil {
		s.logger.Error("server.unknown.failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// saveUpload writes the upload to the document directory under a
// content-hash prefix, so re-uploads of the same bytes land on the
// same name instead of piling up copies.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	name := fmt.Sprintf("%s_%s", hex.EncodeToString(sum[:])[:8], sanitizeFilename(fh.Filename))
	path := filepath.Join(s.storageDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// sanitizeFilename keeps stored names URL safe. Path separators and
// anything exotic collapse to underscores.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
