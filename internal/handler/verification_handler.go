package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"erpverify/internal/domain"
	"erpverify/internal/export"
	"erpverify/internal/middleware"
	"erpverify/internal/pipeline"
	"erpverify/internal/port"
)

// Verifier schedules verification runs.
type Verifier interface {
	Submit(ctx context.Context, req domain.VerificationRequest) <-chan *domain.VerificationResult
	VerifyBatch(ctx context.Context, reqs []domain.VerificationRequest) []*domain.VerificationResult
}

// BatchRequest is the body of POST /api/v1/verifications/batch.
type BatchRequest struct {
	Requests []domain.InboundRequest `json:"requests"`
}

const exportPageSize = 100

// VerificationHandler handles verification endpoints.
type VerificationHandler struct {
	verifier Verifier
	results  port.ResultReader
	maxBatch int
}

// NewVerificationHandler creates a new VerificationHandler. results may be nil
// when no database is configured; read endpoints then answer 503.
func NewVerificationHandler(verifier Verifier, results port.ResultReader, maxBatch int) *VerificationHandler {
	if maxBatch <= 0 {
		maxBatch = 20
	}
	return &VerificationHandler{verifier: verifier, results: results, maxBatch: maxBatch}
}

// Verify handles POST /api/v1/verifications
func (h *VerificationHandler) Verify(c *gin.Context) {
	var in domain.InboundRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON verification request")
		return
	}
	req, err := in.ToRequest()
	if err != nil {
		HandleError(c, err)
		return
	}

	res := <-h.verifier.Submit(c.Request.Context(), req)
	middleware.LoggerFrom(c).Info("handler.VerificationHandler.Verify: run finished",
		zap.String("job_no", res.JobNo),
		zap.String("id", res.ID.String()),
		zap.String("state", string(res.State)),
	)
	RespondOK(c, res)
}

// VerifyBatch handles POST /api/v1/verifications/batch
func (h *VerificationHandler) VerifyBatch(c *gin.Context) {
	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must contain a requests array")
		return
	}
	if len(body.Requests) == 0 {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "requests must not be empty")
		return
	}
	if len(body.Requests) > h.maxBatch {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("at most %d requests per batch", h.maxBatch))
		return
	}

	results := make([]*domain.VerificationResult, len(body.Requests))
	reqs := make([]domain.VerificationRequest, 0, len(body.Requests))
	slots := make([]int, 0, len(body.Requests))
	for i, in := range body.Requests {
		req, err := in.ToRequest()
		if err != nil {
			results[i] = pipeline.FailedResult(domain.VerificationRequest{JobNo: in.JobNo, DocumentID: in.DocumentID}, err)
			continue
		}
		reqs = append(reqs, req)
		slots = append(slots, i)
	}

	for j, res := range h.verifier.VerifyBatch(c.Request.Context(), reqs) {
		results[slots[j]] = res
	}
	RespondOK(c, results)
}

// GetByID handles GET /api/v1/verifications/:id
func (h *VerificationHandler) GetByID(c *gin.Context) {
	if !h.readable(c) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid verification ID")
		return
	}
	res, err := h.results.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// ListByJob handles GET /api/v1/jobs/:jobNo/verifications
func (h *VerificationHandler) ListByJob(c *gin.Context) {
	if !h.readable(c) {
		return
	}
	jobNo := strings.TrimSpace(c.Param("jobNo"))
	offset, limit := parsePagination(c)

	results, total, err := h.results.ListByJob(c.Request.Context(), jobNo, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if results == nil {
		results = []domain.VerificationResult{}
	}
	RespondPaginated(c, results, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// LatestByJob handles GET /api/v1/jobs/:jobNo/verifications/latest
func (h *VerificationHandler) LatestByJob(c *gin.Context) {
	if !h.readable(c) {
		return
	}
	res, err := h.results.LatestByJob(c.Request.Context(), strings.TrimSpace(c.Param("jobNo")))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// Export handles GET /api/v1/verifications/:id/export?format=csv|xlsx
func (h *VerificationHandler) Export(c *gin.Context) {
	if !h.readable(c) {
		return
	}
	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid verification ID")
		return
	}
	res, err := h.results.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.writeExport(c, format, export.BuildFilename(res.JobNo, res.ID.String(), format), []domain.VerificationResult{*res})
}

// ExportJob handles GET /api/v1/jobs/:jobNo/verifications/export?format=csv|xlsx
func (h *VerificationHandler) ExportJob(c *gin.Context) {
	if !h.readable(c) {
		return
	}
	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}
	jobNo := strings.TrimSpace(c.Param("jobNo"))

	var all []domain.VerificationResult
	for offset := 0; ; offset += exportPageSize {
		page, total, err := h.results.ListByJob(c.Request.Context(), jobNo, offset, exportPageSize)
		if err != nil {
			HandleError(c, err)
			return
		}
		all = append(all, page...)
		if len(page) < exportPageSize || len(all) >= total {
			break
		}
	}
	if len(all) == 0 {
		HandleError(c, domain.ErrNotFound)
		return
	}
	h.writeExport(c, format, export.BuildFilename(jobNo, all[0].CompletedAt.UTC().Format("2006-01-02"), format), all)
}

func (h *VerificationHandler) writeExport(c *gin.Context, format export.Format, filename string, results []domain.VerificationResult) {
	var buf bytes.Buffer
	var err error
	if format == export.FormatXLSX {
		err = export.WriteXLSX(&buf, results)
	} else {
		err = export.WriteCSV(&buf, results)
	}
	if err != nil {
		HandleError(c, fmt.Errorf("handler.VerificationHandler.writeExport: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *VerificationHandler) readable(c *gin.Context) bool {
	if h.results == nil {
		RespondError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "result store is not configured")
		return false
	}
	return true
}
