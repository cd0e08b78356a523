package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DoclingClient talks to a docling-serve endpoint that runs the
// layout-analysis models and returns documents converted to markdown.
// It is optional: when no endpoint is configured the service falls
// back to local text-layer extraction and OCR.
type DoclingClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewDoclingClient(baseURL string, log *slog.Logger) *DoclingClient {
	return &DoclingClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *DoclingClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type doclingRequest struct {
	Options     doclingOptions      `json:"options"`
	FileSources []doclingFileSource `json:"file_sources"`
}

type doclingOptions struct {
	ToFormats []string `json:"to_formats"`
}

type doclingFileSource struct {
	Base64String string `json:"base64_string"`
	Filename     string `json:"filename"`
}

type doclingResponse struct {
	Status   string `json:"status"`
	Document struct {
		MDContent string `json:"md_content"`
	} `json:"document"`
	Errors []struct {
		ErrorMessage string `json:"error_message"`
	} `json:"errors"`
}

// ConvertPDF sends PDF bytes to docling-serve and returns the markdown
// rendition of the document.
func (c *DoclingClient) ConvertPDF(ctx context.Context, filename string, pdfBytes []byte) (string, error) {
	payload := doclingRequest{
		Options: doclingOptions{ToFormats: []string{"md"}},
		FileSources: []doclingFileSource{
			{
				Base64String: base64.StdEncoding.EncodeToString(pdfBytes),
				Filename:     filename,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal docling request: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1alpha/convert/source", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build docling request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("docling request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("docling returned status %d: %s", resp.StatusCode, string(b))
	}

	var out doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode docling response: %w", err)
	}

	if out.Status != "success" {
		msg := out.Status
		if len(out.Errors) > 0 {
			msg = out.Errors[0].ErrorMessage
		}
		return "", fmt.Errorf("docling conversion failed: %s", msg)
	}
	if out.Document.MDContent == "" {
		return "", fmt.Errorf("docling returned an empty document")
	}

	c.log.Debug("docling conversion complete",
		"file", filename,
		"duration", time.Since(start),
		"markdownLen", len(out.Document.MDContent))

	return out.Document.MDContent, nil
}
