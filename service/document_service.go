package service

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/avosseler/reimbursement-copilot/client"
	"github.com/avosseler/reimbursement-copilot/dto"
)

// OCRClient extracts text from page images.
type OCRClient interface {
	ExtractTextFromImage(img image.Image) (string, float64, error)
}

// DocumentService converts uploaded invoices into markdown-ish text.
// A configured docling-serve endpoint is preferred; otherwise the PDF
// text layer is used, with page-image OCR as the fallback for scanned
// documents.
type DocumentService struct {
	pdf        PDFProcessor
	ocr        OCRClient
	docling    *client.DoclingClient
	minTextLen int
	log        *slog.Logger
}

func NewDocumentService(pdf PDFProcessor, ocr OCRClient, docling *client.DoclingClient, minTextLen int, log *slog.Logger) *DocumentService {
	return &DocumentService{
		pdf:        pdf,
		ocr:        ocr,
		docling:    docling,
		minTextLen: minTextLen,
		log:        log,
	}
}

// Process converts the document at path to text. PDFs go through the
// docling/text-layer/OCR ladder; receipt photos (PNG, JPEG) are OCRed
// directly.
func (s *DocumentService) Process(ctx context.Context, path string) (dto.ProcessedDocument, error) {
	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
	case ".png", ".jpg", ".jpeg":
		return s.processImage(path, base)
	default:
		return dto.ProcessedDocument{}, dto.ErrUnsupportedFileType
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return dto.ProcessedDocument{}, fmt.Errorf("failed to read %s: %w", base, err)
	}

	if s.docling.Enabled() {
		markdown, err := s.docling.ConvertPDF(ctx, base, data)
		if err == nil {
			return dto.ProcessedDocument{
				Filename: base,
				Markdown: markdown,
				Pages:    strings.Count(markdown, "\f") + 1,
				Method:   "docling",
			}, nil
		}
		s.log.Warn("docling conversion failed, falling back to local extraction", "file", base, "error", err)
	}

	pages, err := s.pdf.ExtractPageTexts(data)
	if err != nil {
		return dto.ProcessedDocument{}, fmt.Errorf("PDF text extraction failed for %s: %w", base, err)
	}

	text := strings.Join(pages, "\n")
	if len(strings.TrimSpace(text)) >= s.minTextLen {
		return dto.ProcessedDocument{
			Filename: base,
			Markdown: renderMarkdown(pages),
			Pages:    countNonBlank(pages),
			Method:   "text-layer",
		}, nil
	}

	// Little to no text layer: treat as a scanned document and OCR
	// the embedded page images.
	s.log.Info("minimal text layer, attempting image-based OCR", "file", base)

	images, err := s.pdf.ExtractImages(data)
	if err != nil {
		return dto.ProcessedDocument{}, fmt.Errorf("failed to extract images from %s: %w", base, err)
	}
	if len(images) == 0 {
		return dto.ProcessedDocument{}, fmt.Errorf("no text layer and no page images in %s", base)
	}

	ocrPages := make([]string, 0, len(images))
	for i, img := range images {
		pageText, conf, err := s.ocr.ExtractTextFromImage(img)
		if err != nil {
			s.log.Warn("OCR failed for page", "file", base, "page", i+1, "error", err)
			continue
		}
		s.log.Debug("page OCR complete", "file", base, "page", i+1, "confidence", conf)
		ocrPages = append(ocrPages, pageText)
	}

	if len(ocrPages) == 0 {
		return dto.ProcessedDocument{}, fmt.Errorf("OCR produced no text for %s", base)
	}

	return dto.ProcessedDocument{
		Filename: base,
		Markdown: renderMarkdown(ocrPages),
		Pages:    len(ocrPages),
		Method:   "ocr",
	}, nil
}

// processImage OCRs a single uploaded receipt photo.
func (s *DocumentService) processImage(path, base string) (dto.ProcessedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return dto.ProcessedDocument{}, fmt.Errorf("failed to open %s: %w", base, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return dto.ProcessedDocument{}, fmt.Errorf("failed to decode image %s: %w", base, err)
	}

	text, conf, err := s.ocr.ExtractTextFromImage(img)
	if err != nil {
		return dto.ProcessedDocument{}, fmt.Errorf("OCR failed for %s: %w", base, err)
	}
	s.log.Debug("image OCR complete", "file", base, "confidence", conf)

	if strings.TrimSpace(text) == "" {
		return dto.ProcessedDocument{}, fmt.Errorf("OCR produced no text for %s", base)
	}

	return dto.ProcessedDocument{
		Filename: base,
		Markdown: strings.TrimSpace(text),
		Pages:    1,
		Method:   "ocr",
	}, nil
}

// countNonBlank returns the number of pages renderMarkdown keeps.
func countNonBlank(pages []string) int {
	n := 0
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			n++
		}
	}
	return n
}

// renderMarkdown joins page texts under page headings so downstream
// prompts can reference page boundaries.
func renderMarkdown(pages []string) string {
	if len(pages) == 1 {
		return strings.TrimSpace(pages[0])
	}

	var b strings.Builder
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		fmt.Fprintf(&b, "## Page %d\n\n%s\n\n", i+1, page)
	}
	return strings.TrimSpace(b.String())
}
