package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avosseler/reimbursement-copilot/dto"
	"github.com/avosseler/reimbursement-copilot/service"
)

// InvoiceHandler exposes the batch invoice processing endpoints.
type InvoiceHandler struct {
	pipeline  *service.Pipeline
	pdf       service.PDFProcessor
	outputDir string
	log       *slog.Logger
}

func NewInvoiceHandler(pipeline *service.Pipeline, pdf service.PDFProcessor, outputDir string, log *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		pipeline:  pipeline,
		pdf:       pdf,
		outputDir: outputDir,
		log:       log,
	}
}

// Process handles POST /invoices/process. It stages the uploaded
// PDFs, merges them for later review, runs the pipeline and returns
// the extracted entities together with the summary and workbook name.
func (h *InvoiceHandler) Process(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	request := &dto.ProcessInvoicesRequest{
		Files:      form.File["files[]"],
		OutputFile: c.PostForm("output_file"),
	}

	if metadata := c.PostForm("metadata"); metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &request.Metadata); err != nil {
			h.sendError(c, http.StatusBadRequest, "Invalid trip metadata JSON", err)
			return
		}
	}

	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	h.log.Info("processing invoice batch", "files", len(request.Files), "workbook", request.OutputFile)

	tempDir, err := os.MkdirTemp("", "invoices")
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to stage uploads", err)
		return
	}
	defer os.RemoveAll(tempDir)

	paths := make([]string, 0, len(request.Files))
	for i, fileHeader := range request.Files {
		// Uploads may share a base name; an index prefix keeps every
		// file in the batch.
		path := filepath.Join(tempDir, fmt.Sprintf("%d_%s", i, filepath.Base(fileHeader.Filename)))
		if err := c.SaveUploadedFile(fileHeader, path); err != nil {
			h.sendError(c, http.StatusInternalServerError, "Failed to save upload", err)
			return
		}
		paths = append(paths, path)
	}

	if err := os.MkdirAll(h.outputDir, 0o755); err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to create output dir", err)
		return
	}

	mergedName := strings.TrimSuffix(request.OutputFile, filepath.Ext(request.OutputFile)) + "_merged.pdf"
	if err := h.pdf.MergeFiles(paths, filepath.Join(h.outputDir, mergedName)); err != nil {
		// The merged PDF is a convenience artifact; keep going.
		h.log.Warn("failed to merge uploads", "error", err)
		mergedName = ""
	}

	result, err := h.pipeline.Run(c.Request.Context(), paths, request.Metadata, request.OutputFile, nil)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to process invoices", err)
		return
	}

	c.JSON(http.StatusOK, dto.ProcessInvoicesResponse{
		Entities:    result.Entities,
		Summary:     result.Summary,
		RateInfo:    result.RateInfo,
		Workbook:    filepath.Base(result.WorkbookPath),
		MergedPDF:   mergedName,
		ProcessedAt: time.Now().Format(time.RFC3339),
	})
}

// Download handles GET /invoices/files/:name and serves generated
// artifacts (workbooks, merged PDFs) from the output directory.
func (h *InvoiceHandler) Download(c *gin.Context) {
	name := c.Param("name")
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		h.sendError(c, http.StatusBadRequest, "Invalid file name", nil)
		return
	}

	path := filepath.Join(h.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		h.sendError(c, http.StatusNotFound, "File not found", nil)
		return
	}

	c.FileAttachment(path, name)
}

func (h *InvoiceHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.log.Error("invoice request failed", "message", message, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "PROCESSING_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
