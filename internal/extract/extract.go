// Package extract pulls plain text out of uploaded exam documents so
// the AI pipeline can analyze it. It is a thin text extractor: no OCR,
// no page rasterization.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file types without an extractor.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// PageImage is a rendered page supplied by the caller for vision-mode
// extraction. The service never rasterizes pages itself.
type PageImage struct {
	// Format is the genai image format label ("jpeg", "png").
	Format string
	Data   []byte
}

// Document is the extraction result.
type Document struct {
	Text  string
	Pages []PageImage
}

// FromFile routes a document to the extractor for its extension.
func FromFile(ctx context.Context, filename string, data []byte) (*Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return fromPDF(ctx, data)
	case ".docx":
		return fromDOCX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}
