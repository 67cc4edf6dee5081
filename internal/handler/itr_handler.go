package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superca/internal/domain"
	"superca/internal/middleware"
	"superca/internal/port"
	"superca/internal/service"
	"superca/internal/xlsxexport"
)

// ITRHandler handles the return lifecycle endpoints.
type ITRHandler struct {
	returnService service.ReturnService
	taxService    service.TaxService
	renderer      port.ArtifactRenderer
}

// NewITRHandler creates a new ITRHandler.
func NewITRHandler(returnService service.ReturnService, taxService service.TaxService, renderer port.ArtifactRenderer) *ITRHandler {
	return &ITRHandler{
		returnService: returnService,
		taxService:    taxService,
		renderer:      renderer,
	}
}

type calculateTaxRequest struct {
	FilingPeriod string            `json:"filing_period" binding:"required"`
	Fields       map[string]string `json:"fields" binding:"required"`
}

// CalculateTax handles POST /api/v1/itr/calculate-tax.
// Direct computation from manually entered figures; nothing is stored.
func (h *ITRHandler) CalculateTax(c *gin.Context) {
	if _, ok := extractAuthContext(c); !ok {
		return
	}

	var req calculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filing_period and fields are required")
		return
	}
	if !filingPeriodRe.MatchString(req.FilingPeriod) {
		HandleError(c, domain.ErrInvalidFilingPeriod)
		return
	}

	comp, err := h.taxService.Calculate(c.Request.Context(), &service.CalculateTaxInput{
		FilingPeriod: req.FilingPeriod,
		Fields:       req.Fields,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, comp)
}

type calculateWithReconRequest struct {
	FilingPeriod string `json:"filing_period" binding:"required"`
}

// CalculateWithReconciliation handles POST /api/v1/itr/calculate-with-reconciliation.
// Runs reconcile then compute on the period's return in one call.
func (h *ITRHandler) CalculateWithReconciliation(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var req calculateWithReconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filing_period is required")
		return
	}
	if !filingPeriodRe.MatchString(req.FilingPeriod) {
		HandleError(c, domain.ErrInvalidFilingPeriod)
		return
	}

	rec, err := h.taxService.ReconcileAndCompute(c.Request.Context(), taxpayerID, req.FilingPeriod, taxpayerID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// GetDraft handles GET /api/v1/itr/draft?filing_period=2024-25, creating the
// period's return on first access.
func (h *ITRHandler) GetDraft(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	period := c.Query("filing_period")
	if !filingPeriodRe.MatchString(period) {
		HandleError(c, domain.ErrInvalidFilingPeriod)
		return
	}

	rec, err := h.returnService.GetOrCreateDraft(c.Request.Context(), taxpayerID, period)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// GetReturn handles GET /api/v1/itr/:id
func (h *ITRHandler) GetReturn(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	rec, err := h.returnService.GetByID(c.Request.Context(), taxpayerID, returnID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// History handles GET /api/v1/itr/history?offset=0&limit=20
func (h *ITRHandler) History(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	recs, total, err := h.returnService.History(c.Request.Context(), taxpayerID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// AuditTrail handles GET /api/v1/itr/:id/audit
func (h *ITRHandler) AuditTrail(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	entries, err := h.returnService.AuditTrail(c.Request.Context(), taxpayerID, returnID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entries)
}

// Reconcile handles POST /api/v1/itr/:id/reconcile
func (h *ITRHandler) Reconcile(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	rec, err := h.returnService.Reconcile(c.Request.Context(), taxpayerID, returnID, taxpayerID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

type computeRequest struct {
	Regime string `json:"regime"`
}

// Compute handles POST /api/v1/itr/:id/compute. An empty regime accepts the
// engine's recommendation.
func (h *ITRHandler) Compute(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}

	var req computeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be JSON")
			return
		}
	}

	rec, err := h.returnService.Compute(c.Request.Context(), &service.ComputeInput{
		TaxpayerID: taxpayerID,
		ReturnID:   returnID,
		Actor:      taxpayerID,
		Regime:     req.Regime,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Confirm handles POST /api/v1/itr/:id/confirm
func (h *ITRHandler) Confirm(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	rec, err := h.returnService.Confirm(c.Request.Context(), taxpayerID, returnID, taxpayerID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// File handles POST /api/v1/itr/:id/file
func (h *ITRHandler) File(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	rec, err := h.returnService.File(c.Request.Context(), taxpayerID, returnID, taxpayerID, middleware.GetEmail(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject handles POST /api/v1/itr/:id/reject
func (h *ITRHandler) Reject(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "reason is required")
		return
	}
	rec, err := h.returnService.Reject(c.Request.Context(), taxpayerID, returnID, taxpayerID, req.Reason, middleware.GetEmail(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Reopen handles POST /api/v1/itr/:id/reopen
func (h *ITRHandler) Reopen(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "reason is required")
		return
	}
	rec, err := h.returnService.Reopen(c.Request.Context(), taxpayerID, returnID, taxpayerID, req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// GeneratePDF handles GET /api/v1/itr/:id/generate-pdf. The return must be
// computed (or later); earlier states get a state error.
func (h *ITRHandler) GeneratePDF(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}

	payload, err := h.returnService.BuildArtifact(c.Request.Context(), taxpayerID, returnID)
	if err != nil {
		HandleError(c, err)
		return
	}

	rendered, err := h.renderer.Render(c.Request.Context(), payload, fmt.Sprintf("return-%s", returnID))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.FileName))
	c.Data(http.StatusOK, rendered.ContentType, rendered.Bytes)
}

// Export handles GET /api/v1/itr/:id/export, returning the review workbook.
func (h *ITRHandler) Export(c *gin.Context) {
	taxpayerID, returnID, ok := h.returnParams(c)
	if !ok {
		return
	}

	rec, err := h.returnService.GetByID(c.Request.Context(), taxpayerID, returnID)
	if err != nil {
		HandleError(c, err)
		return
	}

	data, err := xlsxexport.Export(rec)
	if err != nil {
		HandleError(c, err)
		return
	}

	fileName := fmt.Sprintf("return-%s-%s.xlsx", rec.FilingPeriod, returnID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

type overrideRequest struct {
	FilingPeriod string `json:"filing_period" binding:"required"`
	Field        string `json:"field" binding:"required"`
	Value        string `json:"value" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

// SetOverride handles PUT /api/v1/itr/overrides. The override takes effect
// on the next reconcile.
func (h *ITRHandler) SetOverride(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filing_period, field, value and reason are required")
		return
	}
	if !filingPeriodRe.MatchString(req.FilingPeriod) {
		HandleError(c, domain.ErrInvalidFilingPeriod)
		return
	}

	err := h.returnService.SetOverride(c.Request.Context(), &service.OverrideInput{
		TaxpayerID:   taxpayerID,
		FilingPeriod: req.FilingPeriod,
		Field:        req.Field,
		Value:        req.Value,
		Reason:       req.Reason,
		Actor:        taxpayerID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"field": req.Field, "filing_period": req.FilingPeriod})
}

// ClearOverride handles DELETE /api/v1/itr/overrides?filing_period=2024-25&field=gross_salary
func (h *ITRHandler) ClearOverride(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	period := c.Query("filing_period")
	field := c.Query("field")
	if !filingPeriodRe.MatchString(period) || field == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filing_period and field query parameters are required")
		return
	}

	if err := h.returnService.ClearOverride(c.Request.Context(), taxpayerID, period, field); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"field": field, "filing_period": period})
}

// RuleVersions handles GET /api/v1/itr/rule-versions
func (h *ITRHandler) RuleVersions(c *gin.Context) {
	if _, ok := extractAuthContext(c); !ok {
		return
	}
	RespondOK(c, h.taxService.RuleVersions())
}

func (h *ITRHandler) returnParams(c *gin.Context) (taxpayerID, returnID uuid.UUID, ok bool) {
	taxpayerID, ok = extractAuthContext(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid return id")
		return uuid.Nil, uuid.Nil, false
	}
	return taxpayerID, returnID, true
}
