package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"erpverify/internal/handler"
	"erpverify/internal/metrics"
	"erpverify/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware. m may be
// nil, in which case /metrics is not served.
func Setup(
	logger *zap.Logger,
	corsOrigins []string,
	m *metrics.Metrics,
	verificationH *handler.VerificationHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))
	if m != nil {
		r.Use(middleware.Metrics(m))
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	verifications := v1.Group("/verifications")
	verifications.POST("", verificationH.Verify)
	verifications.POST("/batch", verificationH.VerifyBatch)
	verifications.GET("/:id", verificationH.GetByID)
	verifications.GET("/:id/export", verificationH.Export)

	jobs := v1.Group("/jobs/:jobNo/verifications")
	jobs.GET("", verificationH.ListByJob)
	jobs.GET("/latest", verificationH.LatestByJob)
	jobs.GET("/export", verificationH.ExportJob)

	return r
}
