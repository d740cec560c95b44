package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/llm"
	"erpverify/internal/port"
)

// minCorroborationLen keeps short values such as "1" from being
// corroborated by any transcript.
const minCorroborationLen = 3

// Input is one extraction and matching run.
type Input struct {
	JobNo        string
	DocumentType domain.DocumentType
	Images       []domain.DocumentImage
	ErpRecord    map[string]any
	OcrText      string
}

// Output is the matching outcome for one document.
type Output struct {
	Discrepancies     []domain.Discrepancy
	FieldConfidences  []domain.FieldConfidence
	OverallConfidence float64
	RawResponse       string
	ModelUsed         string
}

// Engine extracts ERP fields from document images and checks them against
// the ERP record.
type Engine struct {
	model    port.LanguageModel
	catalog  *Catalog
	policy   Policy
	weights  Weights
	ocrBoost float64
	logger   *zap.Logger
}

// NewEngine creates a matching Engine. A nil catalog uses the built-in field
// sets; a nil cfg uses the default policy constants.
func NewEngine(model port.LanguageModel, catalog *Catalog, cfg *config.MatchingConfig, logger *zap.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		model:    model,
		catalog:  catalog,
		policy:   Policy{MonetaryThreshold: 0.01},
		weights:  DefaultWeights(),
		ocrBoost: 0.05,
		logger:   logger,
	}
	if cfg != nil {
		e.policy.MonetaryThreshold = cfg.MonetaryThreshold
		e.weights = WeightsFromConfig(cfg)
		e.ocrBoost = cfg.OcrBoost
	}
	return e
}

// ExtractAndMatch makes one model call and matches the answer against the
// ERP slice for the document type. Transport failures are returned as they
// came from the model so callers can tell transient ones apart; an answer
// that cannot be read is a *domain.UnparseableResponseError.
func (e *Engine) ExtractAndMatch(ctx context.Context, in Input) (*Output, error) {
	targets := Targets(e.catalog, in.DocumentType, in.ErpRecord)

	out, err := e.model.Complete(ctx, port.Prompt{
		Purpose: port.PurposeExtraction,
		Text:    BuildPrompt(in.JobNo, in.DocumentType, targets, e.catalog.Fields(in.DocumentType)),
		Images:  in.Images,
		OcrText: in.OcrText,
	})
	if errors.Is(err, domain.ErrEmptyResponse) {
		return nil, &domain.UnparseableResponseError{Reason: "empty extraction response"}
	}
	if err != nil {
		return nil, fmt.Errorf("matching.Engine.ExtractAndMatch: %w", err)
	}

	fields, err := ParseExtraction(out.Text)
	if err != nil {
		e.logger.Warn("matching.Engine.ExtractAndMatch: unparseable response",
			zap.String("job_no", in.JobNo),
			zap.String("model", out.Model),
			zap.Error(err),
		)
		return nil, err
	}

	res := e.match(in, targets, fields)
	res.RawResponse = out.Text
	res.ModelUsed = out.Model

	e.logger.Info("matching.Engine.ExtractAndMatch: matched",
		zap.String("job_no", in.JobNo),
		zap.String("document_type", string(in.DocumentType)),
		zap.Int("targets", len(targets)),
		zap.Int("extracted", len(fields)),
		zap.Int("discrepancies", len(res.Discrepancies)),
		zap.Float64("overall_confidence", res.OverallConfidence),
	)
	return res, nil
}

// Match applies the matching policy to an already parsed extraction.
func (e *Engine) Match(in Input, fields []ExtractedField) *Output {
	return e.match(in, Targets(e.catalog, in.DocumentType, in.ErpRecord), fields)
}

func (e *Engine) match(in Input, targets []Target, fields []ExtractedField) *Output {
	byKey := make(map[string]ExtractedField, len(fields))
	for _, f := range fields {
		k := fieldKey(f.Name)
		if _, dup := byKey[k]; !dup {
			byKey[k] = f
		}
	}
	ocr := CanonicalAlnum(in.OcrText)
	label := in.DocumentType.Label()

	res := &Output{
		Discrepancies:    []domain.Discrepancy{},
		FieldConfidences: make([]domain.FieldConfidence, 0, len(targets)),
	}
	scores := make([]FieldScore, 0, len(targets))
	seen := make(map[string]bool, len(targets))

	for _, t := range targets {
		key := fieldKey(t.Path)
		seen[key] = true
		f, ok := byKey[key]

		if !ok || f.Value == nil {
			desc := fmt.Sprintf("%s vs ERP Mismatch: ERP %s ('%s') was not found on the document.", label, t.Path, t.ErpValue)
			if corroborated(ocr, t.ErpValue) {
				desc += " The value does appear in the OCR transcript."
			}
			res.Discrepancies = append(res.Discrepancies, domain.Discrepancy{
				FieldName:     t.Path,
				DocumentValue: "",
				ErpValue:      t.ErpValue,
				Severity:      domain.SeverityMedium,
				Type:          domain.DiscrepancyMissingInDocument,
				Description:   &desc,
			})
			res.FieldConfidences = append(res.FieldConfidences, domain.FieldConfidence{
				FieldName:  t.Path,
				Confidence: f.Confidence,
			})
			scores = append(scores, FieldScore{Missing: true})
			continue
		}

		fc := e.fieldConfidence(t.Path, f, ocr)
		outcome := e.policy.Compare(t.Spec.Kind, *f.Value, t.ErpValue)
		if outcome.Match {
			fc.Verified = true
			scores = append(scores, FieldScore{Confidence: fc.Confidence})
		} else {
			desc := fmt.Sprintf("%s vs ERP Mismatch: Document %s ('%s') != ERP %s ('%s').",
				label, t.Path, *f.Value, t.Path, t.ErpValue)
			res.Discrepancies = append(res.Discrepancies, domain.Discrepancy{
				FieldName:     t.Path,
				DocumentValue: *f.Value,
				ErpValue:      t.ErpValue,
				Severity:      outcome.Severity,
				Type:          outcome.Type,
				Description:   &desc,
			})
			scores = append(scores, FieldScore{Confidence: fc.Confidence, Severity: outcome.Severity})
		}
		res.FieldConfidences = append(res.FieldConfidences, fc)
	}

	var extracted []float64
	for _, f := range fields {
		extracted = append(extracted, f.Confidence)
		if seen[fieldKey(f.Name)] {
			continue
		}
		seen[fieldKey(f.Name)] = true
		res.FieldConfidences = append(res.FieldConfidences, e.fieldConfidence(f.Name, f, ocr))
	}

	res.OverallConfidence = Aggregate(scores, extracted, e.weights)
	return res
}

func (e *Engine) fieldConfidence(name string, f ExtractedField, ocr string) domain.FieldConfidence {
	fc := domain.FieldConfidence{
		FieldName:      name,
		Confidence:     llm.Clamp(f.Confidence),
		ExtractedValue: f.Value,
	}
	if f.Value != nil && corroborated(ocr, *f.Value) {
		fc.OcrCorroborated = true
		fc.Confidence = llm.Clamp(fc.Confidence + e.ocrBoost)
	}
	return fc
}

func corroborated(canonicalOcr, value string) bool {
	v := CanonicalAlnum(value)
	return len(v) >= minCorroborationLen && strings.Contains(canonicalOcr, v)
}
