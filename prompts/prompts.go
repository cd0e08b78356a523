// Package prompts holds the LLM prompt templates used by the invoice
// pipeline, embedded at build time.
package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.md
var promptsFS embed.FS

// Prompts contains all pipeline prompts loaded from embedded files.
type Prompts struct {
	Classify       string
	ExtractGeneral string
	ExtractHotel   string
	Summarize      string
}

// Load reads all prompt templates from the embedded filesystem.
func Load() (*Prompts, error) {
	p := &Prompts{}

	var err error
	if p.Classify, err = load("CLASSIFY.md"); err != nil {
		return nil, err
	}
	if p.ExtractGeneral, err = load("EXTRACT_GENERAL.md"); err != nil {
		return nil, err
	}
	if p.ExtractHotel, err = load("EXTRACT_HOTEL.md"); err != nil {
		return nil, err
	}
	if p.Summarize, err = load("SUMMARIZE.md"); err != nil {
		return nil, err
	}
	return p, nil
}

// Extract returns the extraction prompt registered under the given
// name. Unknown names fall back to the general prompt.
func (p *Prompts) Extract(name string) string {
	if name == "hotel" {
		return p.ExtractHotel
	}
	return p.ExtractGeneral
}

// Render substitutes {{KEY}} placeholders in a template.
func Render(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

func load(path string) (string, error) {
	data, err := promptsFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
