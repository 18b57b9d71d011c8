package extract

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForName(t *testing.T) {
	assert.IsType(t, PDFExtractor{}, ForName("report.pdf"))
	assert.IsType(t, PDFExtractor{}, ForName("REPORT.PDF"))
	assert.IsType(t, PDFExtractor{}, ForName("no-extension"))
	assert.IsType(t, PlainTextExtractor{}, ForName("notes.txt"))
	assert.IsType(t, PlainTextExtractor{}, ForName("README.md"))
}

func TestPDFExtractor_FailureYieldsEmptyDocument(t *testing.T) {
	tests := map[string][]byte{
		"empty":       nil,
		"not a pdf":   []byte("definitely not a PDF"),
		"header only": []byte("%PDF-1.4\n%%EOF"),
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			res := PDFExtractor{}.Extract(context.Background(), payload)
			assert.Equal(t, Result{}, res)
		})
	}
}

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pageTexts ...string) []byte {
	n := len(pageTexts)
	fontObj := 3 + 2*n
	kids := ""
	for i := range pageTexts {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n),
	}
	for i, text := range pageTexts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor_JoinsPagesWithNewline(t *testing.T) {
	payload := buildPDF("Hello store", "Closing procedure")

	res := PDFExtractor{}.Extract(context.Background(), payload)

	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Hello store\nClosing procedure", res.Text)
}

func TestPDFExtractor_SinglePage(t *testing.T) {
	res := PDFExtractor{}.Extract(context.Background(), buildPDF("Opening hours"))

	assert.Equal(t, Result{Text: "Opening hours", Pages: 1}, res)
}

func TestPDFExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := PDFExtractor{}.Extract(ctx, buildPDF("Hello store"))
	assert.Equal(t, Result{}, res)
}

func TestPlainTextExtractor(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, Result{Text: "hello\nworld", Pages: 1}, PlainTextExtractor{}.Extract(ctx, []byte("hello\nworld")))
	assert.Equal(t, Result{}, PlainTextExtractor{}.Extract(ctx, nil))
	assert.Equal(t, Result{}, PlainTextExtractor{}.Extract(ctx, []byte{0xff, 0xfe, 0xfd}))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ Extractor = PDFExtractor{}
	var _ Extractor = PlainTextExtractor{}
}
