package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"

	"github.com/avosseler/reimbursement-copilot/client"
	"github.com/avosseler/reimbursement-copilot/config"
	"github.com/avosseler/reimbursement-copilot/handler"
	"github.com/avosseler/reimbursement-copilot/prompts"
	"github.com/avosseler/reimbursement-copilot/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg.Verbose)

	// Tesseract v5 reads the data path from the environment as well.
	os.Setenv("TESSDATA_PREFIX", cfg.TesseractDataPath)

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	promptSet, err := prompts.Load()
	if err != nil {
		return err
	}

	// Clients
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, log)
	doclingClient := client.NewDoclingClient(cfg.DoclingURL, log)
	llmClient := client.NewAnthropicClient(cfg.AnthropicModel, cfg.LLMMaxTokens, log)
	rateClient := client.NewFrankfurterClient(cfg.FrankfurterURL, cfg.RateCacheTTL, log)
	defer rateClient.Stop()

	// Services
	pdfProcessor := service.NewPDFProcessor()
	documentService := service.NewDocumentService(pdfProcessor, tesseractClient, doclingClient, cfg.MinTextLayerLen, log)
	classifier := service.NewInvoiceClassifier(llmClient, promptSet, registry, log)
	extractor := service.NewEntityExtractor(llmClient, promptSet, registry, log)
	workbook := service.NewWorkbookService(cfg.TemplateFile, cfg.OutputDir, log)

	pipeline, err := service.NewPipeline(&service.PipelineConfig{
		Logger:     log,
		Documents:  documentService,
		Classifier: classifier,
		Extractor:  extractor,
		Rates:      rateClient,
		LLM:        llmClient,
		Prompts:    promptSet,
		Workbook:   workbook,
	})
	if err != nil {
		return err
	}

	// Handlers
	documentHandler := handler.NewDocumentHandler(documentService, log)
	invoiceHandler := handler.NewInvoiceHandler(pipeline, pdfProcessor, cfg.OutputDir, log)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadSize

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Reimbursement Copilot",
		})
	})

	api := router.Group("/api/v1")
	{
		documents := api.Group("/documents")
		{
			documents.POST("/extract", documentHandler.Extract)
		}
		invoices := api.Group("/invoices")
		{
			invoices.POST("/process", invoiceHandler.Process)
			invoices.GET("/files/:name", invoiceHandler.Download)
		}
	}

	log.Info("starting reimbursement copilot", "port", cfg.ServerPort, "model", cfg.AnthropicModel)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}
