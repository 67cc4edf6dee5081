package router

import (
	"github.com/gin-gonic/gin"

	"superca/internal/config"
	"superca/internal/handler"
	"superca/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	docH *handler.DocumentHandler,
	itrH *handler.ITRHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(&cfg.JWT))

	// Document routes
	docs := protected.Group("/documents")
	docs.GET("", docH.ListDocuments)
	docs.GET("/:id", docH.GetDocument)

	// Return lifecycle routes
	itr := protected.Group("/itr")
	itr.POST("/process-documents", docH.ProcessDocuments)
	itr.POST("/calculate-tax", itrH.CalculateTax)
	itr.POST("/calculate-with-reconciliation", itrH.CalculateWithReconciliation)
	itr.GET("/draft", itrH.GetDraft)
	itr.GET("/history", itrH.History)
	itr.GET("/rule-versions", itrH.RuleVersions)
	itr.PUT("/overrides", itrH.SetOverride)
	itr.DELETE("/overrides", itrH.ClearOverride)

	itr.GET("/:id", itrH.GetReturn)
	itr.GET("/:id/audit", itrH.AuditTrail)
	itr.POST("/:id/reconcile", itrH.Reconcile)
	itr.POST("/:id/compute", itrH.Compute)
	itr.POST("/:id/confirm", itrH.Confirm)
	itr.POST("/:id/file", itrH.File)
	itr.POST("/:id/reject", itrH.Reject)
	itr.POST("/:id/reopen", itrH.Reopen)
	itr.GET("/:id/generate-pdf", itrH.GeneratePDF)
	itr.GET("/:id/export", itrH.Export)

	return r
}
