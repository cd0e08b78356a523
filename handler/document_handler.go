package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avosseler/reimbursement-copilot/dto"
	"github.com/avosseler/reimbursement-copilot/service"
)

// DocumentHandler exposes single-document text extraction.
type DocumentHandler struct {
	documents *service.DocumentService
	log       *slog.Logger
}

func NewDocumentHandler(documents *service.DocumentService, log *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		log:       log,
	}
}

// Extract handles POST /documents/extract: one uploaded PDF or
// receipt photo in, its markdown rendition out.
func (h *DocumentHandler) Extract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "A document file is required", err)
		return
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
	default:
		h.sendError(c, http.StatusBadRequest, dto.ErrUnsupportedFileType.Error(), nil)
		return
	}

	tempDir, err := os.MkdirTemp("", "extract")
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to stage upload", err)
		return
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to save upload", err)
		return
	}

	doc, err := h.documents.Process(c.Request.Context(), tempPath)
	if err != nil {
		h.sendError(c, http.StatusUnprocessableEntity, "Failed to extract document text", err)
		return
	}

	h.log.Info("document extracted", "file", doc.Filename, "method", doc.Method, "pages", doc.Pages)
	c.JSON(http.StatusOK, dto.ExtractResponse{Document: doc})
}

func (h *DocumentHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.log.Error("extract request failed", "message", message, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
