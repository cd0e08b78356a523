package config

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed invoices.yaml
var invoicesYAML []byte

//go:embed currencies.yaml
var currenciesYAML []byte

// InvoiceTypeSpec binds an invoice type to the prompt and output
// schema used when extracting its entities.
type InvoiceTypeSpec struct {
	Prompt string `yaml:"prompt"`
	Output string `yaml:"output"`
}

// Registry holds the static invoice type and currency tables shipped
// with the service.
type Registry struct {
	types      map[string]InvoiceTypeSpec
	currencies map[string]string
}

// LoadRegistry parses the embedded invoice and currency tables.
func LoadRegistry() (*Registry, error) {
	var inv struct {
		Types map[string]InvoiceTypeSpec `yaml:"types"`
	}
	if err := yaml.Unmarshal(invoicesYAML, &inv); err != nil {
		return nil, fmt.Errorf("parse invoices.yaml: %w", err)
	}
	if len(inv.Types) == 0 {
		return nil, fmt.Errorf("invoices.yaml defines no types")
	}

	var cur struct {
		Abbreviations map[string]string `yaml:"abbreviations"`
	}
	if err := yaml.Unmarshal(currenciesYAML, &cur); err != nil {
		return nil, fmt.Errorf("parse currencies.yaml: %w", err)
	}
	if len(cur.Abbreviations) == 0 {
		return nil, fmt.Errorf("currencies.yaml defines no abbreviations")
	}

	return &Registry{types: inv.Types, currencies: cur.Abbreviations}, nil
}

// InvoiceTypes returns the known invoice types, sorted.
func (r *Registry) InvoiceTypes() []string {
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SpecFor returns the extraction spec for an invoice type. Unknown
// types (including the classifier's "unknown" fallback) get the
// general spec.
func (r *Registry) SpecFor(invoiceType string) InvoiceTypeSpec {
	if spec, ok := r.types[invoiceType]; ok {
		return spec
	}
	return InvoiceTypeSpec{Prompt: "general", Output: "general"}
}

// HasType reports whether the invoice type is in the registry.
func (r *Registry) HasType(invoiceType string) bool {
	_, ok := r.types[invoiceType]
	return ok
}

// CurrencyCodes returns the supported ISO currency codes, sorted.
func (r *Registry) CurrencyCodes() []string {
	out := make([]string, 0, len(r.currencies))
	for c := range r.currencies {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// HasCurrency reports whether the currency code is supported.
func (r *Registry) HasCurrency(code string) bool {
	_, ok := r.currencies[code]
	return ok
}
