package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avosseler/reimbursement-copilot/client"
	"github.com/avosseler/reimbursement-copilot/config"
	"github.com/avosseler/reimbursement-copilot/dto"
	"github.com/avosseler/reimbursement-copilot/prompts"
	"github.com/avosseler/reimbursement-copilot/utils"
)

// InvoiceTypeUnknown is the classifier fallback when a document does
// not match any registered invoice type or classification fails.
const InvoiceTypeUnknown = "unknown"

// InvoiceClassifier assigns one of the registered invoice types to a
// converted document.
type InvoiceClassifier struct {
	llm      client.LLMClient
	prompts  *prompts.Prompts
	registry *config.Registry
	log      *slog.Logger
}

func NewInvoiceClassifier(llm client.LLMClient, p *prompts.Prompts, registry *config.Registry, log *slog.Logger) *InvoiceClassifier {
	return &InvoiceClassifier{
		llm:      llm,
		prompts:  p,
		registry: registry,
		log:      log,
	}
}

// Classify determines the invoice type of the document text. A
// malformed model response degrades to the unknown type rather than
// failing, so a single odd invoice cannot stop a batch.
func (c *InvoiceClassifier) Classify(ctx context.Context, markdown string) (dto.Classification, error) {
	systemPrompt := prompts.Render(c.prompts.Classify, map[string]string{
		"TYPES": strings.Join(c.registry.InvoiceTypes(), ", "),
	})

	response, err := c.llm.Complete(ctx, systemPrompt, markdown)
	if err != nil {
		return dto.Classification{}, fmt.Errorf("classification request failed: %w", err)
	}

	result, err := c.parse(response)
	if err != nil {
		c.log.Warn("classification parse failed, defaulting to unknown", "error", err)
		return dto.Classification{
			InvoiceType: InvoiceTypeUnknown,
			Reasoning:   "classification response could not be parsed",
		}, nil
	}

	c.log.Info("invoice classified", "type", result.InvoiceType)
	return result, nil
}

func (c *InvoiceClassifier) parse(response string) (dto.Classification, error) {
	jsonStr := utils.ExtractJSON(response)
	if jsonStr == "" {
		return dto.Classification{}, fmt.Errorf("no JSON found in response")
	}

	var result dto.Classification
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return dto.Classification{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	result.InvoiceType = strings.ToLower(strings.TrimSpace(result.InvoiceType))
	if result.InvoiceType != InvoiceTypeUnknown && !c.registry.HasType(result.InvoiceType) {
		return dto.Classification{}, fmt.Errorf("invalid invoice type: %s", result.InvoiceType)
	}

	return result, nil
}
