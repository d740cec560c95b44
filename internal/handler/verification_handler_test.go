package handler_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erpverify/internal/domain"
	"erpverify/internal/export"
	"erpverify/internal/handler"
	"erpverify/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubVerifier completes every request and records what it received.
type stubVerifier struct {
	mu   sync.Mutex
	seen []domain.VerificationRequest
}

func (s *stubVerifier) complete(req domain.VerificationRequest) *domain.VerificationResult {
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()
	now := time.Now()
	return &domain.VerificationResult{
		ID:           uuid.New(),
		JobNo:        req.JobNo,
		DocumentID:   req.DocumentID,
		DocumentType: domain.DocumentTypeSalesQuote,
		State:        domain.StateCompleted,
		StartedAt:    now,
		CompletedAt:  now,
	}
}

func (s *stubVerifier) Submit(_ context.Context, req domain.VerificationRequest) <-chan *domain.VerificationResult {
	out := make(chan *domain.VerificationResult, 1)
	out <- s.complete(req)
	close(out)
	return out
}

func (s *stubVerifier) VerifyBatch(_ context.Context, reqs []domain.VerificationRequest) []*domain.VerificationResult {
	out := make([]*domain.VerificationResult, len(reqs))
	for i, req := range reqs {
		out[i] = s.complete(req)
	}
	return out
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *handler.APIError `json:"error"`
	Meta    *handler.PagMeta  `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func inbound(jobNo, image string) domain.InboundRequest {
	return domain.InboundRequest{
		JobNo:          jobNo,
		DocumentImages: []domain.InboundImage{{ImageBase64: image, MimeType: "image/png"}},
		ErpData:        map[string]any{"Total_Price_LCY": 1000},
	}
}

func storedResult(jobNo string) *domain.VerificationResult {
	completed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.VerificationResult{
		ID:           uuid.MustParse("9b2e7d1c-3f4a-4b5c-8d6e-7f8091a2b3c4"),
		JobNo:        jobNo,
		DocumentType: domain.DocumentTypeSalesQuote,
		Discrepancies: []domain.Discrepancy{{
			FieldName:     "Total_Price_LCY",
			DocumentValue: "1200.00",
			ErpValue:      "1000.00",
			Severity:      domain.SeverityHigh,
			Type:          domain.DiscrepancyValueMismatch,
		}},
		FieldConfidences: []domain.FieldConfidence{},
		State:            domain.StateCompleted,
		StartedAt:        completed.Add(-3 * time.Second),
		CompletedAt:      completed,
	}
}

func TestVerificationHandler_Verify_Success(t *testing.T) {
	v := &stubVerifier{}
	h := handler.NewVerificationHandler(v, nil, 0)

	body, _ := json.Marshal(inbound("J-100", "aGVsbG8="))
	c, w := newContext(http.MethodPost, "/api/v1/verifications", body)
	h.Verify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var res domain.VerificationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "J-100", res.JobNo)
	assert.Equal(t, domain.StateCompleted, res.State)

	require.Len(t, v.seen, 1)
	require.Len(t, v.seen[0].Images, 1)
	assert.Equal(t, []byte("hello"), v.seen[0].Images[0].Data)
}

func TestVerificationHandler_Verify_InvalidJSON(t *testing.T) {
	h := handler.NewVerificationHandler(&stubVerifier{}, nil, 0)

	c, w := newContext(http.MethodPost, "/api/v1/verifications", []byte("{not json"))
	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestVerificationHandler_Verify_BadBase64(t *testing.T) {
	v := &stubVerifier{}
	h := handler.NewVerificationHandler(v, nil, 0)

	body, _ := json.Marshal(inbound("J-100", "!!!not base64!!!"))
	c, w := newContext(http.MethodPost, "/api/v1/verifications", body)
	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Message, "documentImages[0].imageBase64")
	assert.Empty(t, v.seen)
}

func TestVerificationHandler_VerifyBatch(t *testing.T) {
	v := &stubVerifier{}
	h := handler.NewVerificationHandler(v, nil, 5)

	body, _ := json.Marshal(handler.BatchRequest{Requests: []domain.InboundRequest{
		inbound("J-1", "aGVsbG8="),
		inbound("J-2", "%%%"),
		inbound("J-3", "aGVsbG8="),
	}})
	c, w := newContext(http.MethodPost, "/api/v1/verifications/batch", body)
	h.VerifyBatch(c)

	require.Equal(t, http.StatusOK, w.Code)
	var results []domain.VerificationResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &results))
	require.Len(t, results, 3)

	assert.Equal(t, "J-1", results[0].JobNo)
	assert.Equal(t, domain.StateCompleted, results[0].State)
	assert.Equal(t, "J-2", results[1].JobNo)
	assert.Equal(t, domain.StateFailed, results[1].State)
	require.NotNil(t, results[1].ErrorMessage)
	assert.Contains(t, *results[1].ErrorMessage, "imageBase64")
	assert.Equal(t, "J-3", results[2].JobNo)
	assert.Len(t, v.seen, 2)
}

func TestVerificationHandler_VerifyBatch_Limits(t *testing.T) {
	h := handler.NewVerificationHandler(&stubVerifier{}, nil, 1)

	tests := []struct {
		name string
		reqs []domain.InboundRequest
		msg  string
	}{
		{"empty", nil, "must not be empty"},
		{"too many", []domain.InboundRequest{inbound("a", "aGVsbG8="), inbound("b", "aGVsbG8=")}, "at most 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(handler.BatchRequest{Requests: tt.reqs})
			c, w := newContext(http.MethodPost, "/api/v1/verifications/batch", body)
			h.VerifyBatch(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			assert.Contains(t, env.Error.Message, tt.msg)
		})
	}
}

func TestVerificationHandler_GetByID(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	stored := storedResult("J-100")
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	c, w := newContext(http.MethodGet, "/api/v1/verifications/"+stored.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: stored.ID.String()}}
	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var res domain.VerificationResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, stored.ID, res.ID)
	repo.AssertExpectations(t)
}

func TestVerificationHandler_GetByID_Errors(t *testing.T) {
	missing := uuid.New()
	tests := []struct {
		name   string
		id     string
		err    error
		status int
		code   string
	}{
		{"invalid id", "not-a-uuid", nil, http.StatusBadRequest, "INVALID_ID"},
		{"not found", missing.String(), domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"store failure", missing.String(), errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockResultRepo)
			if tt.err != nil {
				repo.On("GetByID", mock.Anything, missing).Return(nil, tt.err)
			}
			h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)

			c, w := newContext(http.MethodGet, "/api/v1/verifications/"+tt.id, nil)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			h.GetByID(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeEnvelope(t, w).Error.Code)
		})
	}
}

func TestVerificationHandler_NoStore(t *testing.T) {
	h := handler.NewVerificationHandler(&stubVerifier{}, nil, 0)

	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-1/verifications", nil)
	c.Params = gin.Params{{Key: "jobNo", Value: "J-1"}}
	h.ListByJob(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", decodeEnvelope(t, w).Error.Code)
}

func TestVerificationHandler_ListByJob(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	repo.On("ListByJob", mock.Anything, "J-100", 10, 5).
		Return([]domain.VerificationResult{*storedResult("J-100")}, 11, nil)

	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-100/verifications?offset=10&limit=5", nil)
	c.Params = gin.Params{{Key: "jobNo", Value: "J-100"}}
	h.ListByJob(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, handler.PagMeta{Total: 11, Offset: 10, Limit: 5}, *env.Meta)
	repo.AssertExpectations(t)
}

func TestVerificationHandler_ListByJob_DefaultPagination(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	repo.On("ListByJob", mock.Anything, "J-100", 0, 20).Return(nil, 0, nil)

	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-100/verifications?limit=500&offset=-3", nil)
	c.Params = gin.Params{{Key: "jobNo", Value: "J-100"}}
	h.ListByJob(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(decodeEnvelope(t, w).Data))
	repo.AssertExpectations(t)
}

func TestVerificationHandler_LatestByJob(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	repo.On("LatestByJob", mock.Anything, "J-404").Return(nil, domain.ErrNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-404/verifications/latest", nil)
	c.Params = gin.Params{{Key: "jobNo", Value: "J-404"}}
	h.LatestByJob(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerificationHandler_Export_CSV(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	stored := storedResult("J-100")
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	c, w := newContext(http.MethodGet, "/api/v1/verifications/"+stored.ID.String()+"/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: stored.ID.String()}}
	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="J-100_`+stored.ID.String()+`.csv"`, w.Header().Get("Content-Disposition"))

	body := w.Body.Bytes()
	require.True(t, len(body) >= 3)
	assert.Equal(t, export.BOM, body[:3])

	records, err := csv.NewReader(strings.NewReader(string(body[3:]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[1], "Total_Price_LCY")
}

func TestVerificationHandler_Export_XLSX(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	stored := storedResult("J-100")
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	c, w := newContext(http.MethodGet, "/api/v1/verifications/"+stored.ID.String()+"/export?format=xlsx", nil)
	c.Params = gin.Params{{Key: "id", Value: stored.ID.String()}}
	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatXLSX.ContentType(), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, []byte("PK"), w.Body.Bytes()[:2])
}

func TestVerificationHandler_Export_BadFormat(t *testing.T) {
	h := handler.NewVerificationHandler(&stubVerifier{}, new(mocks.MockResultRepo), 0)

	c, w := newContext(http.MethodGet, "/api/v1/verifications/x/export?format=pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", decodeEnvelope(t, w).Error.Code)
}

func TestVerificationHandler_ExportJob(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	repo.On("ListByJob", mock.Anything, "J-100", 0, 100).
		Return([]domain.VerificationResult{*storedResult("J-100"), *storedResult("J-100")}, 2, nil)

	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-100/verifications/export", nil)
	c.Params = gin.Params{{Key: "jobNo", Value: "J-100"}}
	h.ExportJob(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="J-100_2026-03-01.csv"`, w.Header().Get("Content-Disposition"))
	records, err := csv.NewReader(strings.NewReader(w.Body.String()[3:])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
	repo.AssertExpectations(t)
}

func TestVerificationHandler_ExportJob_Empty(t *testing.T) {
	repo := new(mocks.MockResultRepo)
	h := handler.NewVerificationHandler(&stubVerifier{}, repo, 0)
	repo.On("ListByJob", mock.Anything, "J-0", 0, 100).Return(nil, 0, nil)

	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-0/verifications/export", nil)
	c.Params = gin.Params{{Key: "jobNo", Value: "J-0"}}
	h.ExportJob(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
