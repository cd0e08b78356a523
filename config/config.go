package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort        string `env:"SERVER_PORT" envDefault:"8080"`
	MaxUploadSize     int64  `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MB
	TesseractDataPath string `env:"TESSDATA_PREFIX" envDefault:"/usr/share/tesseract-ocr/5/tessdata/"`

	// Optional docling-serve endpoint. When empty, documents are
	// converted locally (PDF text layer, OCR fallback).
	DoclingURL string `env:"DOCLING_URL"`

	AnthropicModel string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMMaxTokens   int64  `env:"LLM_MAX_TOKENS" envDefault:"4096"`

	FrankfurterURL string        `env:"FRANKFURTER_URL" envDefault:"https://api.frankfurter.app"`
	RateCacheTTL   time.Duration `env:"RATE_CACHE_TTL" envDefault:"1h"`

	TemplateFile string `env:"XLSX_TEMPLATE" envDefault:"data/travel_expense_template.xlsx"`
	OutputDir    string `env:"OUTPUT_DIR" envDefault:"output"`

	// PDFs whose text layer is shorter than this are treated as
	// scanned and sent through page-image OCR.
	MinTextLayerLen int `env:"MIN_TEXT_LAYER_LEN" envDefault:"20"`

	Verbose bool `env:"VERBOSE" envDefault:"false"`
}

// Load reads configuration from the environment, honoring a .env file
// in the working directory when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
