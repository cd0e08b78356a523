package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avosseler/reimbursement-copilot/client"
	"github.com/avosseler/reimbursement-copilot/dto"
	"github.com/avosseler/reimbursement-copilot/prompts"
	"github.com/avosseler/reimbursement-copilot/utils"
)

// DocumentProcessor converts an invoice file to text.
type DocumentProcessor interface {
	Process(ctx context.Context, path string) (dto.ProcessedDocument, error)
}

// Classifier assigns an invoice type to document text.
type Classifier interface {
	Classify(ctx context.Context, markdown string) (dto.Classification, error)
}

// Extractor pulls entity fields out of document text.
type Extractor interface {
	Extract(ctx context.Context, invoiceType, markdown string) (dto.InvoiceEntity, error)
}

// RateConverter converts amounts into EUR.
type RateConverter interface {
	Convert(ctx context.Context, amount float64, fromCurrency string) (dto.ConversionResult, error)
}

// WorkbookWriter persists the final expense workbook.
type WorkbookWriter interface {
	Fill(meta dto.TripMetadata, entities []dto.InvoiceEntity, rateInfo, outputFile string) (string, error)
}

// Stage identifies the pipeline step currently running.
type Stage string

const (
	StageProcessing  Stage = "processing"
	StageClassifying Stage = "classifying"
	StageExtracting  Stage = "extracting"
	StageSummarizing Stage = "summarizing"
	StageWriting     Stage = "writing"
	StageComplete    Stage = "complete"
)

// Progress reports pipeline execution state to the caller.
type Progress struct {
	Stage      Stage
	File       string
	FilesDone  int
	FilesTotal int
}

// ProgressCallback is invoked at each stage transition. May be nil.
type ProgressCallback func(Progress)

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Logger     *slog.Logger
	Documents  DocumentProcessor
	Classifier Classifier
	Extractor  Extractor
	Rates      RateConverter
	LLM        client.LLMClient
	Prompts    *prompts.Prompts
	Workbook   WorkbookWriter
}

// Pipeline orchestrates the multi-invoice processing run.
type Pipeline struct {
	cfg *PipelineConfig
	log *slog.Logger
}

// RunResult is the complete outcome of a pipeline run.
type RunResult struct {
	Entities         []dto.InvoiceEntity
	InferredTypes    []string
	SourceCurrencies []string
	Descriptions     []string
	Summary          string
	RateInfo         string
	WorkbookPath     string
}

func NewPipeline(cfg *PipelineConfig) (*Pipeline, error) {
	if cfg.Documents == nil {
		return nil, fmt.Errorf("document processor is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if cfg.Rates == nil {
		return nil, fmt.Errorf("rate converter is required")
	}
	if cfg.LLM == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if cfg.Prompts == nil {
		return nil, fmt.Errorf("prompts are required")
	}
	if cfg.Workbook == nil {
		return nil, fmt.Errorf("workbook writer is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, log: log}, nil
}

// Run processes the given invoice files end to end. A file that fails
// conversion, extraction or currency conversion yields a placeholder
// entity and the run continues; only summarization and workbook
// writing abort the run.
func (p *Pipeline) Run(ctx context.Context, files []string, meta dto.TripMetadata, outputFile string, onProgress ProgressCallback) (*RunResult, error) {
	if len(files) == 0 {
		return nil, dto.ErrNoFiles
	}

	report := func(stage Stage, file string, done int) {
		if onProgress != nil {
			onProgress(Progress{Stage: stage, File: file, FilesDone: done, FilesTotal: len(files)})
		}
	}

	result := &RunResult{}
	p.log.Info("pipeline started", "files", len(files))

	for i, file := range files {
		base := filepath.Base(file)
		p.log.Info("loading file", "index", i+1, "total", len(files), "file", base)

		report(StageProcessing, base, i)
		doc, err := p.cfg.Documents.Process(ctx, file)
		if err != nil {
			p.log.Error("document conversion failed", "file", base, "error", err)
			p.appendFailure(result, base, InvoiceTypeUnknown)
			continue
		}

		report(StageClassifying, base, i)
		invoiceType := InvoiceTypeUnknown
		cls, err := p.cfg.Classifier.Classify(ctx, doc.Markdown)
		if err != nil {
			// Still try to extract with the unknown type.
			p.log.Error("classification failed", "file", base, "error", err)
		} else {
			invoiceType = cls.InvoiceType
		}

		report(StageExtracting, base, i)
		entity, err := p.extractAndConvert(ctx, invoiceType, doc.Markdown)
		if err != nil {
			p.log.Error("entity extraction failed", "file", base, "error", err)
			p.appendFailure(result, base, invoiceType)
			continue
		}

		result.Entities = append(result.Entities, entity.entity)
		result.InferredTypes = append(result.InferredTypes, invoiceType)
		result.SourceCurrencies = append(result.SourceCurrencies, entity.sourceCurrency)
		result.Descriptions = append(result.Descriptions, entity.entity.Description)
	}

	report(StageSummarizing, "", len(files))

	rateInfo, err := p.conversionInfo(ctx, result.SourceCurrencies)
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate info: %w", err)
	}
	result.RateInfo = rateInfo

	summary, err := p.summarize(ctx, result.Entities, rateInfo)
	if err != nil {
		return nil, err
	}
	result.Summary = summary

	report(StageWriting, outputFile, len(files))
	path, err := p.cfg.Workbook.Fill(meta, result.Entities, rateInfo, outputFile)
	if err != nil {
		return nil, err
	}
	result.WorkbookPath = path

	report(StageComplete, "", len(files))
	p.log.Info("pipeline complete", "entities", len(result.Entities), "workbook", path)
	return result, nil
}

type convertedEntity struct {
	entity         dto.InvoiceEntity
	sourceCurrency string
}

// extractAndConvert pulls the entity fields and immediately converts
// the total to EUR.
func (p *Pipeline) extractAndConvert(ctx context.Context, invoiceType, markdown string) (convertedEntity, error) {
	entity, err := p.cfg.Extractor.Extract(ctx, invoiceType, markdown)
	if err != nil {
		return convertedEntity{}, err
	}

	amount, err := utils.ParseAmount(entity.TotalAmount)
	if err != nil {
		return convertedEntity{}, err
	}

	sourceCurrency := entity.Currency
	conv, err := p.cfg.Rates.Convert(ctx, amount, sourceCurrency)
	if err != nil {
		return convertedEntity{}, err
	}
	p.log.Info("amount converted", "amount", amount, "from", sourceCurrency, "eur", conv.EURAmount)

	entity.TotalAmount = utils.FormatAmount(conv.EURAmount)
	entity.Currency = "EUR"
	return convertedEntity{entity: entity, sourceCurrency: sourceCurrency}, nil
}

// appendFailure records a placeholder entity so the failed file still
// shows up in the summary and workbook.
func (p *Pipeline) appendFailure(result *RunResult, file, invoiceType string) {
	desc := "Failed to extract from: " + file
	result.Entities = append(result.Entities, dto.InvoiceEntity{
		InvoiceType: invoiceType,
		TotalAmount: "0.00",
		Currency:    "EUR",
		IssueDate:   "N/A",
		Description: desc,
	})
	result.InferredTypes = append(result.InferredTypes, invoiceType)
	result.SourceCurrencies = append(result.SourceCurrencies, "EUR")
	result.Descriptions = append(result.Descriptions, desc)
}

// conversionInfo builds the exchange rate note for the summary and the
// workbook, based on the first non-EUR currency seen in the batch.
func (p *Pipeline) conversionInfo(ctx context.Context, currencies []string) (string, error) {
	base := "EUR"
	for _, c := range currencies {
		if c != "EUR" {
			base = c
			break
		}
	}

	conv, err := p.cfg.Rates.Convert(ctx, 1, base)
	if err != nil {
		return "", err
	}

	rate := strconv.FormatFloat(conv.EURAmount, 'f', -1, 64)
	date := time.Now().Format("02.01.06")
	return fmt.Sprintf("Daily exchange rate: 1 %s = %s Euro (as of %s)", base, rate, date), nil
}

// summarize asks the LLM for a markdown table over the extracted
// entities.
func (p *Pipeline) summarize(ctx context.Context, entities []dto.InvoiceEntity, rateInfo string) (string, error) {
	if len(entities) == 0 {
		return "", fmt.Errorf("no entities to summarize")
	}

	payload, err := json.Marshal(entities)
	if err != nil {
		return "", fmt.Errorf("failed to marshal entities: %w", err)
	}

	systemPrompt := prompts.Render(p.cfg.Prompts.Summarize, map[string]string{
		"RATE_INFO": rateInfo,
	})

	response, err := p.cfg.LLM.Complete(ctx, systemPrompt, string(payload))
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}

	p.log.Info("summary generated")
	return strings.TrimSpace(response), nil
}
