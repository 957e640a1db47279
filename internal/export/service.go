// Package export produces XLSX snapshots of the purchase order register.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"poclerk/internal/store"
)

// Lister supplies the rows to export.
type Lister interface {
	List(ctx context.Context) ([]store.Record, error)
}

// Service is a tiny façade over the record store that produces XLSX bytes.
type Service struct {
	records Lister
	logger  *slog.Logger
}

func NewService(records Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// RegisterXLSX returns the full register as an XLSX workbook (as bytes),
// one row per recorded document, sentinel rows included.
func (s *Service) RegisterXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query register: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Purchase Orders"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"PO Number",
		"PDF Path",
		"Recorded At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.PONumber)
		write(2, r.PDFPath)
		write(3, r.CreatedAt.UTC().Format(time.RFC3339))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // po number
	_ = f.SetColWidth(sheet, "B", "B", 60) // path
	_ = f.SetColWidth(sheet, "C", "C", 22) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
