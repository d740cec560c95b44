package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/matching"
	"erpverify/internal/metrics"
	"erpverify/internal/ocr"
	"erpverify/internal/port"
)

// NoteUnknownType is attached to runs whose document type could not be
// determined.
const NoteUnknownType = "document type could not be determined"

// ImageNormalizer turns inbound images into normalized pages.
type ImageNormalizer interface {
	NormalizeAll(raws []domain.RawImage) ([]domain.DocumentImage, error)
}

// TextExtractor produces the OCR transcript of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, images []domain.DocumentImage) (*ocr.Transcript, error)
}

// Classifier determines the document type.
type Classifier interface {
	Classify(ctx context.Context, jobNo string, images []domain.DocumentImage, ocrText string) (domain.ClassificationResult, error)
}

// Matcher extracts fields and checks them against ERP data.
type Matcher interface {
	ExtractAndMatch(ctx context.Context, in matching.Input) (*matching.Output, error)
}

// Deps are the collaborators of an Orchestrator. OCR, Images, Sink and
// Metrics are optional.
type Deps struct {
	Normalizer ImageNormalizer
	OCR        TextExtractor
	Classifier Classifier
	Matcher    Matcher
	Images     port.ImageStore
	Sink       port.ResultSink
	Metrics    *metrics.Metrics
}

// Options are the per-call timeouts and the retry policy.
type Options struct {
	ClassifyTimeout time.Duration
	ExtractTimeout  time.Duration
	OcrTimeout      time.Duration
	FetchTimeout    time.Duration
	SinkTimeout     time.Duration
	Retry           RetryConfig
}

// OptionsFromConfig builds Options from the pipeline config section.
func OptionsFromConfig(cfg *config.PipelineConfig) Options {
	return Options{
		ClassifyTimeout: cfg.ClassifyTimeout,
		ExtractTimeout:  cfg.ExtractTimeout,
		OcrTimeout:      cfg.OcrTimeout,
		Retry:           RetryConfigFromPipeline(cfg),
	}
}

func (o Options) withDefaults() Options {
	if o.ClassifyTimeout <= 0 {
		o.ClassifyTimeout = 30 * time.Second
	}
	if o.ExtractTimeout <= 0 {
		o.ExtractTimeout = 120 * time.Second
	}
	if o.OcrTimeout <= 0 {
		o.OcrTimeout = 30 * time.Second
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 30 * time.Second
	}
	if o.SinkTimeout <= 0 {
		o.SinkTimeout = 10 * time.Second
	}
	return o
}

// Orchestrator sequences one verification request through normalization,
// OCR, classification, extraction and aggregation.
type Orchestrator struct {
	deps   Deps
	opts   Options
	exec   *Executor
	logger *zap.Logger
	now    func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(deps Deps, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts.withDefaults(),
		exec:   NewExecutor(opts.Retry, logger, deps.Metrics.ObserveAttempt),
		logger: logger,
		now:    time.Now,
	}
}

// run carries the mutable state of one request until the result is handed off.
type run struct {
	sm     *machine
	result *domain.VerificationResult
	log    *zap.Logger
}

// Run verifies one request. It always returns a result in a terminal state;
// failures are recorded in the result, never returned or panicked.
func (o *Orchestrator) Run(ctx context.Context, req domain.VerificationRequest) (res *domain.VerificationResult) {
	started := o.now()
	o.deps.Metrics.StartRun()

	r := &run{
		sm: newMachine(),
		result: &domain.VerificationResult{
			ID:               uuid.New(),
			JobNo:            req.JobNo,
			DocumentID:       req.DocumentID,
			DocumentType:     domain.DocumentTypeUnknown,
			Discrepancies:    []domain.Discrepancy{},
			FieldConfidences: []domain.FieldConfidence{},
			State:            domain.StateReceived,
			StartedAt:        started,
		},
	}
	r.log = o.logger.With(
		zap.String("job_no", req.JobNo),
		zap.String("document_id", req.DocumentID),
		zap.String("run_id", r.result.ID.String()),
	)

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("pipeline.Orchestrator.Run: recovered panic", zap.Any("panic", p), zap.Stack("stack"))
			res = o.fail(r, fmt.Errorf("internal error: %v", p))
		}
		res.CompletedAt = o.now()
		o.deps.Metrics.FinishRun(res, res.CompletedAt.Sub(started))
		r.log.Info("pipeline.Orchestrator.Run: finished",
			zap.String("state", string(res.State)),
			zap.String("document_type", string(res.DocumentType)),
			zap.Int("discrepancies", len(res.Discrepancies)),
			zap.Float64("overall_confidence", res.OverallVerificationConfidence),
			zap.Duration("duration", res.CompletedAt.Sub(started)),
		)
		o.deliver(res, r.log)
	}()

	return o.execute(ctx, req, r)
}

func (o *Orchestrator) execute(ctx context.Context, req domain.VerificationRequest, r *run) *domain.VerificationResult {
	if ctx.Err() != nil {
		return o.fail(r, domain.ErrCancelled)
	}
	if err := validate(req); err != nil {
		return o.fail(r, err)
	}

	raws, err := o.resolveImages(ctx, req.Images)
	if err != nil {
		return o.failOrCancel(ctx, r, err)
	}
	images, err := o.deps.Normalizer.NormalizeAll(raws)
	if err != nil {
		return o.fail(r, err)
	}

	ocrText := o.transcribe(ctx, images, r)

	if ctx.Err() != nil {
		return o.fail(r, domain.ErrCancelled)
	}
	if err := o.advance(r, domain.StateClassifying); err != nil {
		return o.fail(r, err)
	}

	var cls domain.ClassificationResult
	err = o.exec.Execute(ctx, "classify", func() error {
		callCtx, cancel := callContext(ctx, o.opts.ClassifyTimeout)
		defer cancel()
		c, err := o.deps.Classifier.Classify(callCtx, req.JobNo, images, ocrText)
		if err != nil {
			return err
		}
		cls = c
		return nil
	})
	if err != nil {
		return o.failOrCancel(ctx, r, err)
	}

	res := r.result
	res.DocumentType = cls.DocumentType
	res.ClassificationConfidence = cls.Confidence
	res.ClassificationReasoning = cls.Reasoning
	res.ModelUsed = cls.ModelUsed
	if cls.ErrorMessage != nil {
		res.ErrorMessage = cls.ErrorMessage
		res.RawModelResponse = domain.StringPtr(cls.RawResponse)
	}

	if !cls.DocumentType.Known() {
		res.DocumentType = domain.DocumentTypeUnknown
		res.Notes = append(res.Notes, NoteUnknownType)
		if err := o.advance(r, domain.StateCompleted); err != nil {
			return o.fail(r, err)
		}
		return res
	}

	if ctx.Err() != nil {
		return o.fail(r, domain.ErrCancelled)
	}
	if err := o.advance(r, domain.StateExtracting); err != nil {
		return o.fail(r, err)
	}

	var out *matching.Output
	err = o.exec.Execute(ctx, "extract", func() error {
		callCtx, cancel := callContext(ctx, o.opts.ExtractTimeout)
		defer cancel()
		m, err := o.deps.Matcher.ExtractAndMatch(callCtx, matching.Input{
			JobNo:        req.JobNo,
			DocumentType: cls.DocumentType,
			Images:       images,
			ErpRecord:    req.ErpData,
			OcrText:      ocrText,
		})
		if err != nil {
			return err
		}
		out = m
		return nil
	})

	var unparseable *domain.UnparseableResponseError
	switch {
	case err == nil:
	case errors.As(err, &unparseable):
		r.log.Warn("pipeline.Orchestrator.Run: extraction response unparseable", zap.String("reason", unparseable.Reason))
		res.ErrorMessage = domain.StringPtr(err.Error())
		res.RawModelResponse = domain.StringPtr(unparseable.RawResponse)
	default:
		return o.failOrCancel(ctx, r, err)
	}

	if err := o.advance(r, domain.StateAggregating); err != nil {
		return o.fail(r, err)
	}
	if out != nil {
		res.Discrepancies = out.Discrepancies
		res.FieldConfidences = out.FieldConfidences
		res.OverallVerificationConfidence = out.OverallConfidence
		if out.ModelUsed != "" {
			res.ModelUsed = out.ModelUsed
		}
	}
	if err := o.advance(r, domain.StateCompleted); err != nil {
		return o.fail(r, err)
	}
	return res
}

func validate(req domain.VerificationRequest) error {
	if req.JobNo == "" {
		return &domain.ValidationError{Field: "jobNo", Reason: "must not be empty"}
	}
	if len(req.Images) == 0 {
		return &domain.ValidationError{Field: "documentImages", Reason: "at least one image is required"}
	}
	for i, img := range req.Images {
		if len(img.Data) == 0 && img.ObjectKey == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("documentImages[%d]", i), Reason: "image has neither data nor an object key"}
		}
	}
	if req.ErpData == nil {
		return &domain.ValidationError{Field: "erpData", Reason: "must be present"}
	}
	return nil
}

// resolveImages fetches images staged in object storage.
func (o *Orchestrator) resolveImages(ctx context.Context, raws []domain.RawImage) ([]domain.RawImage, error) {
	out := make([]domain.RawImage, len(raws))
	for i, raw := range raws {
		out[i] = raw
		if len(raw.Data) > 0 {
			continue
		}
		if o.deps.Images == nil {
			return nil, &domain.ValidationError{
				Field:  fmt.Sprintf("documentImages[%d]", i),
				Reason: "object key given but no image store is configured",
			}
		}
		key := raw.ObjectKey
		err := o.exec.Execute(ctx, "fetch_image", func() error {
			callCtx, cancel := callContext(ctx, o.opts.FetchTimeout)
			defer cancel()
			data, err := o.deps.Images.Fetch(callCtx, key)
			if err != nil {
				return err
			}
			out[i].Data = data
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fetching image %q: %w", key, err)
		}
	}
	return out, nil
}

// transcribe runs OCR once. A failure only adds a note; the run continues on
// the images alone.
func (o *Orchestrator) transcribe(ctx context.Context, images []domain.DocumentImage, r *run) string {
	if o.deps.OCR == nil {
		return ""
	}
	callCtx, cancel := callContext(ctx, o.opts.OcrTimeout)
	defer cancel()

	t, err := o.deps.OCR.ExtractText(callCtx, images)
	if err != nil {
		r.log.Warn("pipeline.Orchestrator.Run: ocr failed, continuing without transcript", zap.Error(err))
		r.result.Notes = append(r.result.Notes, "ocr unavailable: "+err.Error())
		return ""
	}
	return t.Text
}

func (o *Orchestrator) advance(r *run, to domain.PipelineState) error {
	from := r.sm.state
	if err := r.sm.advance(to); err != nil {
		return err
	}
	r.result.State = to
	r.log.Debug("pipeline.Orchestrator.Run: state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

func (o *Orchestrator) failOrCancel(ctx context.Context, r *run, err error) *domain.VerificationResult {
	if ctx.Err() != nil {
		return o.fail(r, domain.ErrCancelled)
	}
	return o.fail(r, err)
}

func (o *Orchestrator) fail(r *run, err error) *domain.VerificationResult {
	if !r.sm.state.Terminal() {
		_ = r.sm.advance(domain.StateFailed)
	}
	r.result.State = domain.StateFailed
	r.result.ErrorMessage = domain.StringPtr(err.Error())
	r.log.Warn("pipeline.Orchestrator.Run: run failed",
		zap.Strings("states", statesOf(r.sm.History())),
		zap.Bool("transient", domain.IsTransient(err)),
		zap.Error(err),
	)
	return r.result
}

// deliver hands the result to the sink. Sink failures are logged only.
func (o *Orchestrator) deliver(res *domain.VerificationResult, log *zap.Logger) {
	if o.deps.Sink == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error("pipeline.Orchestrator.deliver: sink panicked", zap.Any("panic", p))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.SinkTimeout)
	defer cancel()
	if err := o.deps.Sink.Save(ctx, res); err != nil {
		log.Error("pipeline.Orchestrator.deliver: result sink failed", zap.Error(err))
	}
}

// callContext bounds an external call by its own timeout. Cancelling the
// request does not interrupt a call already in flight.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func statesOf(states []domain.PipelineState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// FailedResult builds a terminal result for a request that never ran.
func FailedResult(req domain.VerificationRequest, err error) *domain.VerificationResult {
	now := time.Now()
	return &domain.VerificationResult{
		ID:               uuid.New(),
		JobNo:            req.JobNo,
		DocumentID:       req.DocumentID,
		DocumentType:     domain.DocumentTypeUnknown,
		Discrepancies:    []domain.Discrepancy{},
		FieldConfidences: []domain.FieldConfidence{},
		ErrorMessage:     domain.StringPtr(err.Error()),
		State:            domain.StateFailed,
		StartedAt:        now,
		CompletedAt:      now,
	}
}
