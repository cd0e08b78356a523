package dto

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// ProcessInvoicesRequest is the multipart payload of the batch
// processing endpoint.
type ProcessInvoicesRequest struct {
	Files      []*multipart.FileHeader
	OutputFile string
	Metadata   TripMetadata
}

// Validate checks the request before any file is touched.
func (r *ProcessInvoicesRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoFiles
	}
	for _, f := range r.Files {
		if !strings.EqualFold(filepath.Ext(f.Filename), ".pdf") {
			return ErrUnsupportedFileType
		}
	}
	if r.OutputFile == "" {
		r.OutputFile = "my_travel_expenses.xlsx"
	}
	if !strings.EqualFold(filepath.Ext(r.OutputFile), ".xlsx") {
		return errors.New("output file must have an .xlsx extension")
	}
	if filepath.Base(r.OutputFile) != r.OutputFile {
		return errors.New("output file must be a plain file name")
	}
	return nil
}
