package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avosseler/reimbursement-copilot/client"
	"github.com/avosseler/reimbursement-copilot/dto"
)

type fakePDF struct {
	pages     []string
	pagesErr  error
	images    []image.Image
	imagesErr error
	merged    [][]string
}

func (f *fakePDF) ExtractPageTexts(pdfData []byte) ([]string, error) {
	return f.pages, f.pagesErr
}

func (f *fakePDF) ExtractImages(pdfData []byte) ([]image.Image, error) {
	return f.images, f.imagesErr
}

func (f *fakePDF) MergeFiles(inFiles []string, outFile string) error {
	f.merged = append(f.merged, append(inFiles, outFile))
	return nil
}

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) ExtractTextFromImage(img image.Image) (string, float64, error) {
	return f.text, 92.5, f.err
}

func writeTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	return path
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	svc := NewDocumentService(&fakePDF{}, &fakeOCR{}, nil, 20, testLogger())

	_, err := svc.Process(context.Background(), "invoice.docx")
	assert.ErrorIs(t, err, dto.ErrUnsupportedFileType)
}

func TestProcessImageUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	svc := NewDocumentService(&fakePDF{}, &fakeOCR{text: "Taxi 23.50 EUR"}, nil, 20, testLogger())

	doc, err := svc.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "receipt.png", doc.Filename)
	assert.Equal(t, "ocr", doc.Method)
	assert.Equal(t, 1, doc.Pages)
	assert.Equal(t, "Taxi 23.50 EUR", doc.Markdown)
}

func TestProcessUsesTextLayer(t *testing.T) {
	pdf := &fakePDF{pages: []string{
		"Hotel Adler\nInvoice 4711\nTotal: 450.00 EUR",
		"Terms and conditions",
	}}
	svc := NewDocumentService(pdf, &fakeOCR{}, nil, 20, testLogger())

	doc, err := svc.Process(context.Background(), writeTestPDF(t))
	require.NoError(t, err)

	assert.Equal(t, "invoice.pdf", doc.Filename)
	assert.Equal(t, "text-layer", doc.Method)
	assert.Equal(t, 2, doc.Pages)
	assert.Contains(t, doc.Markdown, "## Page 1")
	assert.Contains(t, doc.Markdown, "Hotel Adler")
	assert.Contains(t, doc.Markdown, "## Page 2")
}

func TestProcessTextLayerSkipsBlankPages(t *testing.T) {
	pdf := &fakePDF{pages: []string{
		"Hotel Adler\nInvoice 4711\nTotal: 450.00 EUR",
		"  ",
	}}
	svc := NewDocumentService(pdf, &fakeOCR{}, nil, 20, testLogger())

	doc, err := svc.Process(context.Background(), writeTestPDF(t))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Pages)
	assert.NotContains(t, doc.Markdown, "## Page 2")
}

func TestProcessPrefersDocling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","document":{"md_content":"# Hotel Adler\n\nTotal: 450.00 EUR"}}`)
	}))
	defer server.Close()

	pdf := &fakePDF{pages: []string{"text layer that must not be used"}}
	docling := client.NewDoclingClient(server.URL, testLogger())
	svc := NewDocumentService(pdf, &fakeOCR{}, docling, 20, testLogger())

	doc, err := svc.Process(context.Background(), writeTestPDF(t))
	require.NoError(t, err)

	assert.Equal(t, "docling", doc.Method)
	assert.Equal(t, "# Hotel Adler\n\nTotal: 450.00 EUR", doc.Markdown)
	assert.Equal(t, 1, doc.Pages)
}

func TestProcessDoclingFailureFallsBackToTextLayer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	pdf := &fakePDF{pages: []string{"Hotel Adler\nInvoice 4711\nTotal: 450.00 EUR"}}
	docling := client.NewDoclingClient(server.URL, testLogger())
	svc := NewDocumentService(pdf, &fakeOCR{}, docling, 20, testLogger())

	doc, err := svc.Process(context.Background(), writeTestPDF(t))
	require.NoError(t, err)

	assert.Equal(t, "text-layer", doc.Method)
	assert.Contains(t, doc.Markdown, "Hotel Adler")
}

func TestProcessFallsBackToOCR(t *testing.T) {
	pdf := &fakePDF{
		pages:  []string{" "},
		images: []image.Image{image.NewRGBA(image.Rect(0, 0, 4, 4))},
	}
	ocr := &fakeOCR{text: "Taxi Receipt 23.50 EUR"}
	svc := NewDocumentService(pdf, ocr, nil, 20, testLogger())

	doc, err := svc.Process(context.Background(), writeTestPDF(t))
	require.NoError(t, err)

	assert.Equal(t, "ocr", doc.Method)
	assert.Equal(t, 1, doc.Pages)
	assert.Equal(t, "Taxi Receipt 23.50 EUR", doc.Markdown)
}

func TestProcessScannedWithoutImagesFails(t *testing.T) {
	pdf := &fakePDF{pages: []string{""}}
	svc := NewDocumentService(pdf, &fakeOCR{}, nil, 20, testLogger())

	_, err := svc.Process(context.Background(), writeTestPDF(t))
	assert.ErrorContains(t, err, "no text layer")
}

func TestProcessOCRFailureOnAllPages(t *testing.T) {
	pdf := &fakePDF{
		pages:  []string{""},
		images: []image.Image{image.NewRGBA(image.Rect(0, 0, 4, 4))},
	}
	svc := NewDocumentService(pdf, &fakeOCR{err: errors.New("tesseract crashed")}, nil, 20, testLogger())

	_, err := svc.Process(context.Background(), writeTestPDF(t))
	assert.ErrorContains(t, err, "OCR produced no text")
}

func TestRenderMarkdownSinglePage(t *testing.T) {
	assert.Equal(t, "only page", renderMarkdown([]string{"  only page \n"}))
}

func TestRenderMarkdownSkipsEmptyPages(t *testing.T) {
	out := renderMarkdown([]string{"first", "", "third"})

	assert.Contains(t, out, "## Page 1")
	assert.NotContains(t, out, "## Page 2")
	assert.Contains(t, out, "## Page 3")
}
