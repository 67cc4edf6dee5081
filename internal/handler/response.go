package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superca/internal/domain"
	"superca/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response. Fields carries the affected
// profile or schema fields for field-addressable errors.
type APIError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found"
	case errors.Is(err, domain.ErrReturnNotFound):
		return http.StatusNotFound, "RETURN_NOT_FOUND", "return not found"
	case errors.Is(err, domain.ErrOverrideNotFound):
		return http.StatusNotFound, "OVERRIDE_NOT_FOUND", "no active override for this field"
	case errors.Is(err, domain.ErrRuleTableNotFound):
		return http.StatusNotFound, "RULE_TABLE_NOT_FOUND", "no rule table covers this filing period"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrInvalidFilingPeriod):
		return http.StatusBadRequest, "INVALID_FILING_PERIOD", "filing period must look like 2024-25"
	case errors.Is(err, domain.ErrNoExtractionInputs):
		return http.StatusBadRequest, "NO_EXTRACTION_INPUTS", "no extracted documents for this filing period"
	case errors.Is(err, domain.ErrUnextractedDocument):
		return http.StatusUnprocessableEntity, "UNEXTRACTED_DOCUMENT", "no provider could extract this document"
	case errors.Is(err, domain.ErrUnresolvedConflict):
		return http.StatusConflict, "UNRESOLVED_CONFLICT", "profile has unresolved conflicts; resolve or override them first"
	case errors.Is(err, domain.ErrReconInProgress):
		return http.StatusConflict, "RECON_IN_PROGRESS", "a reconciliation is already running for this period"
	case errors.Is(err, domain.ErrIneligibleRegime):
		return http.StatusBadRequest, "INELIGIBLE_REGIME", "the requested regime is not available for this profile"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", "operation not allowed in the return's current state"
	case errors.Is(err, domain.ErrStateConflict):
		return http.StatusConflict, "STATE_CONFLICT", "the return changed underneath this request; re-read and retry"
	case errors.Is(err, domain.ErrNotConfirmed):
		return http.StatusConflict, "NOT_CONFIRMED", "the return must be confirmed before filing"
	case errors.Is(err, domain.ErrSchemaMapping):
		return http.StatusUnprocessableEntity, "SCHEMA_MAPPING", "profile is missing fields the return form requires"
	case errors.Is(err, domain.ErrFilingRejected):
		return http.StatusUnprocessableEntity, "FILING_REJECTED", "the filing authority rejected the return"
	case errors.Is(err, domain.ErrFilingFailed):
		return http.StatusBadGateway, "FILING_FAILED", "submission to the filing authority failed; the return is unchanged"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// extractAuthContext extracts the taxpayer identity from the request context.
// Returns false if auth context is missing (error response already written).
func extractAuthContext(c *gin.Context) (taxpayerID uuid.UUID, ok bool) {
	taxpayerID, err := middleware.GetTaxpayerID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing taxpayer context")
		return uuid.Nil, false
	}
	return taxpayerID, true
}

// HandleError maps a domain error and sends the appropriate error response.
// Field-addressable errors carry their field lists into the envelope.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}

	apiErr := &APIError{Code: code, Message: msg}
	var schemaErr *domain.SchemaMappingError
	var conflictErr *domain.ConflictError
	var regimeErr *domain.IneligibleRegimeError
	switch {
	case errors.As(err, &schemaErr):
		apiErr.Fields = schemaErr.Fields
	case errors.As(err, &conflictErr):
		apiErr.Fields = conflictErr.Fields
	case errors.As(err, &regimeErr):
		apiErr.Fields = regimeErr.MissingFields
		if len(regimeErr.Reasons) > 0 {
			apiErr.Message = msg + ": " + strings.Join(regimeErr.Reasons, "; ")
		}
	}

	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}
