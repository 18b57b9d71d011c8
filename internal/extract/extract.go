// Package extract turns uploaded document payloads into plain text.
// Extraction never fails from the caller's point of view: a payload that
// cannot be read yields an empty Result.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"gwi.com/docqa/internal/logger"
)

// Result is the extracted text and page count of one payload.
type Result struct {
	Text  string
	Pages int
}

// Extractor turns a binary payload into a Result.
type Extractor interface {
	Extract(ctx context.Context, payload []byte) Result
}

// ForName picks an extractor by file extension. Anything that is not
// plain text is treated as PDF.
func ForName(name string) Extractor {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".text":
		return PlainTextExtractor{}
	default:
		return PDFExtractor{}
	}
}

// PDFExtractor reads every page's plain text and joins the pages with a
// newline.
type PDFExtractor struct{}

func (PDFExtractor) Extract(ctx context.Context, payload []byte) (res Result) {
	defer func() {
		// the parser panics on some malformed streams
		if r := recover(); r != nil {
			logger.Warn("PDF extraction panicked", zap.Any("panic", r))
			res = Result{}
		}
	}()

	text, pages, err := readPDF(ctx, payload)
	if err != nil {
		logger.Warn("PDF extraction failed, keeping empty document", zap.Error(err))
		return Result{}
	}
	return Result{Text: text, Pages: pages}
}

func readPDF(ctx context.Context, payload []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), numPages, nil
}

// PlainTextExtractor passes UTF-8 text through unchanged.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, payload []byte) Result {
	if len(payload) == 0 {
		return Result{}
	}
	if !utf8.Valid(payload) {
		logger.Warn("Plain text upload is not valid UTF-8, keeping empty document")
		return Result{}
	}
	return Result{Text: string(payload), Pages: 1}
}
