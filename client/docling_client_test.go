package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoclingEnabled(t *testing.T) {
	var nilClient *DoclingClient
	assert.False(t, nilClient.Enabled())
	assert.False(t, NewDoclingClient("", newTestLogger()).Enabled())
	assert.True(t, NewDoclingClient("http://localhost:5001", newTestLogger()).Enabled())
}

func TestConvertPDF(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 stub")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1alpha/convert/source", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req doclingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"md"}, req.Options.ToFormats)
		require.Len(t, req.FileSources, 1)
		assert.Equal(t, "invoice.pdf", req.FileSources[0].Filename)

		decoded, err := base64.StdEncoding.DecodeString(req.FileSources[0].Base64String)
		require.NoError(t, err)
		assert.Equal(t, pdfBytes, decoded)

		fmt.Fprint(w, `{"status":"success","document":{"md_content":"# Hotel Adler\n\nTotal: 450.00 EUR"}}`)
	}))
	defer server.Close()

	c := NewDoclingClient(server.URL, newTestLogger())

	markdown, err := c.ConvertPDF(context.Background(), "invoice.pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "# Hotel Adler\n\nTotal: 450.00 EUR", markdown)
}

func TestConvertPDFServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewDoclingClient(server.URL, newTestLogger())

	_, err := c.ConvertPDF(context.Background(), "invoice.pdf", []byte("pdf"))
	assert.ErrorContains(t, err, "status 500")
}

func TestConvertPDFFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"failure","errors":[{"error_message":"unsupported encryption"}]}`)
	}))
	defer server.Close()

	c := NewDoclingClient(server.URL, newTestLogger())

	_, err := c.ConvertPDF(context.Background(), "invoice.pdf", []byte("pdf"))
	assert.ErrorContains(t, err, "unsupported encryption")
}

func TestConvertPDFEmptyDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","document":{"md_content":""}}`)
	}))
	defer server.Close()

	c := NewDoclingClient(server.URL, newTestLogger())

	_, err := c.ConvertPDF(context.Background(), "invoice.pdf", []byte("pdf"))
	assert.ErrorContains(t, err, "empty document")
}
