// Package bootstrap assembles the verification pipeline from configuration.
package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"erpverify/internal/classify"
	"erpverify/internal/config"
	"erpverify/internal/llm"
	_ "erpverify/internal/llm/claude"
	_ "erpverify/internal/llm/gemini"
	_ "erpverify/internal/llm/gigachat"
	_ "erpverify/internal/llm/openai"
	"erpverify/internal/matching"
	"erpverify/internal/metrics"
	"erpverify/internal/normalize"
	"erpverify/internal/normalize/fitz"
	"erpverify/internal/ocr"
	"erpverify/internal/ocr/tesseract"
	"erpverify/internal/pipeline"
	"erpverify/internal/port"
)

// Extras are the optional collaborators supplied by the caller.
type Extras struct {
	Model   port.LanguageModel
	Images  port.ImageStore
	Sink    port.ResultSink
	Metrics *metrics.Metrics
}

// NewOrchestrator builds an Orchestrator from cfg. The language model is
// built from cfg.LLM unless extras.Model is set.
func NewOrchestrator(cfg *config.Config, extras Extras, logger *zap.Logger) (*pipeline.Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := extras.Model
	if model == nil {
		var err error
		model, err = llm.Build(&cfg.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("building language model: %w", err)
		}
	}

	catalog := matching.DefaultCatalog()
	if cfg.Matching.FieldSetsFile != "" {
		var err error
		catalog, err = matching.LoadCatalog(cfg.Matching.FieldSetsFile)
		if err != nil {
			return nil, fmt.Errorf("loading field sets: %w", err)
		}
	}

	var renderer port.PageRenderer
	if cfg.Normalize.RenderPDF {
		renderer = fitz.NewRenderer()
	}

	deps := pipeline.Deps{
		Normalizer: normalize.New(&cfg.Normalize, renderer, logger),
		Classifier: classify.NewEngine(model, logger),
		Matcher:    matching.NewEngine(model, catalog, &cfg.Matching, logger),
		Images:     extras.Images,
		Sink:       extras.Sink,
		Metrics:    extras.Metrics,
	}
	if cfg.OCR.Enabled {
		deps.OCR = ocr.NewExtractor(tesseract.NewEngine(cfg.OCR.Languages), cfg.Pipeline.OcrTimeout, cfg.OCR.Concurrency, logger)
	}

	logger.Info("bootstrap: pipeline assembled",
		zap.Strings("providers", providerNames(&cfg.LLM)),
		zap.Bool("ocr", cfg.OCR.Enabled),
		zap.Bool("render_pdf", cfg.Normalize.RenderPDF),
	)
	return pipeline.NewOrchestrator(deps, pipeline.OptionsFromConfig(&cfg.Pipeline), logger), nil
}

func providerNames(cfg *config.LLMConfig) []string {
	var names []string
	for _, p := range cfg.Providers() {
		names = append(names, p.Provider)
	}
	return names
}
