package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextLayerReader reads the embedded text layer of a PDF. It exists so tests
// can run the extractor without real documents.
type TextLayerReader interface {
	ReadTextLayer(path string) (text string, pages int, warnings []string, err error)
}

type pdfTextLayer struct{}

func (pdfTextLayer) ReadTextLayer(path string) (string, int, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, nil, err
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, nil, fmt.Errorf("parse pdf: %w", err)
	}

	var parts []string
	var warns []string
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		parts = append(parts, txt)
	}

	return strings.Join(parts, "\n"), total, warns, nil
}
