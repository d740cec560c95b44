package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erpverify/internal/domain"
	"erpverify/internal/handler"
	"erpverify/internal/metrics"
	"erpverify/internal/router"
	"erpverify/mocks"
)

type echoVerifier struct{}

func (echoVerifier) Submit(_ context.Context, req domain.VerificationRequest) <-chan *domain.VerificationResult {
	out := make(chan *domain.VerificationResult, 1)
	out <- &domain.VerificationResult{ID: uuid.New(), JobNo: req.JobNo, State: domain.StateCompleted, CompletedAt: time.Now()}
	close(out)
	return out
}

func (v echoVerifier) VerifyBatch(ctx context.Context, reqs []domain.VerificationRequest) []*domain.VerificationResult {
	out := make([]*domain.VerificationResult, len(reqs))
	for i, req := range reqs {
		out[i] = <-v.Submit(ctx, req)
	}
	return out
}

func setup(t *testing.T) (*gin.Engine, *mocks.MockResultRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := new(mocks.MockResultRepo)
	r := router.Setup(nil, []string{"*"}, metrics.New("test"),
		handler.NewVerificationHandler(echoVerifier{}, repo, 10),
		handler.NewHealthHandler(nil),
	)
	return r, repo
}

func TestRouter_Routes(t *testing.T) {
	r, repo := setup(t)
	repo.On("LatestByJob", mock.Anything, "J-7").Return(nil, domain.ErrNotFound)
	repo.On("ListByJob", mock.Anything, "J-7", 0, 20).Return([]domain.VerificationResult{}, 0, nil)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/api/v1/jobs/J-7/verifications", "", http.StatusOK},
		{http.MethodGet, "/api/v1/jobs/J-7/verifications/latest", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/verifications/nope", "", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/verifications", `{"jobNo":"J-7","documentImages":[{"imageBase64":"aGVsbG8=","mimeType":"image/png"}],"erpData":{}}`, http.StatusOK},
		{http.MethodPost, "/api/v1/verifications/batch", `{"requests":[]}`, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_VerifyRoundTrip(t *testing.T) {
	r, _ := setup(t)

	body, _ := json.Marshal(map[string]any{
		"jobNo":          "J-9",
		"documentImages": []map[string]string{{"imageBase64": "aGVsbG8=", "mimeType": "image/png"}},
		"erpData":        map[string]any{"Quote_No": "Q-1"},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verifications", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool                      `json:"success"`
		Data    domain.VerificationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "J-9", env.Data.JobNo)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := setup(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `erpverify_http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}
