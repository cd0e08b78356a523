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

// EntityExtractor pulls the reimbursement-relevant fields out of a
// converted invoice, using the prompt and output schema registered for
// the invoice type.
type EntityExtractor struct {
	llm      client.LLMClient
	prompts  *prompts.Prompts
	registry *config.Registry
	log      *slog.Logger
}

func NewEntityExtractor(llm client.LLMClient, p *prompts.Prompts, registry *config.Registry, log *slog.Logger) *EntityExtractor {
	return &EntityExtractor{
		llm:      llm,
		prompts:  p,
		registry: registry,
		log:      log,
	}
}

// Extract returns the entity for a document of the given invoice
// type. The amount is normalized to the "1234.56" form and the
// currency upper-cased and checked against the supported list.
func (e *EntityExtractor) Extract(ctx context.Context, invoiceType, markdown string) (dto.InvoiceEntity, error) {
	spec := e.registry.SpecFor(invoiceType)

	systemPrompt := prompts.Render(e.prompts.Extract(spec.Prompt), map[string]string{
		"CURRENCY_LIST": strings.Join(e.registry.CurrencyCodes(), ", "),
	})

	response, err := e.llm.Complete(ctx, systemPrompt, markdown)
	if err != nil {
		return dto.InvoiceEntity{}, fmt.Errorf("extraction request failed: %w", err)
	}

	jsonStr := utils.ExtractJSON(response)
	if jsonStr == "" {
		return dto.InvoiceEntity{}, fmt.Errorf("no JSON found in extraction response")
	}

	var entity dto.InvoiceEntity
	if err := json.Unmarshal([]byte(jsonStr), &entity); err != nil {
		return dto.InvoiceEntity{}, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}

	amount, err := utils.ParseAmount(entity.TotalAmount)
	if err != nil {
		return dto.InvoiceEntity{}, fmt.Errorf("invalid total amount %q: %w", entity.TotalAmount, err)
	}
	entity.TotalAmount = utils.FormatAmount(amount)

	entity.Currency = strings.ToUpper(strings.TrimSpace(entity.Currency))
	if !e.registry.HasCurrency(entity.Currency) {
		return dto.InvoiceEntity{}, fmt.Errorf("unsupported currency %q", entity.Currency)
	}

	entity.InvoiceType = invoiceType
	e.log.Info("entities extracted", "type", invoiceType, "amount", entity.TotalAmount, "currency", entity.Currency)
	return entity, nil
}
