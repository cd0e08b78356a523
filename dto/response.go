package dto

import "errors"

var (
	ErrNoFiles             = errors.New("at least one PDF file is required")
	ErrUnsupportedFileType = errors.New("only PDF files are supported")
	ErrTemplateNotFound    = errors.New("expense workbook template not found")
)

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractResponse is returned by the single-document endpoint.
type ExtractResponse struct {
	Document ProcessedDocument `json:"document"`
}

// ProcessInvoicesResponse is returned by the batch endpoint after the
// pipeline has run.
type ProcessInvoicesResponse struct {
	Entities    []InvoiceEntity `json:"entities"`
	Summary     string          `json:"summary"`
	RateInfo    string          `json:"rate_info"`
	Workbook    string          `json:"workbook"`
	MergedPDF   string          `json:"merged_pdf"`
	ProcessedAt string          `json:"processed_at"`
}
