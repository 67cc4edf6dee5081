package handler

import (
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superca/internal/domain"
	"superca/internal/service"
)

// Filing periods look like "2024-25".
var filingPeriodRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// DocumentHandler handles document upload and inspection endpoints.
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// ProcessDocuments handles POST /api/v1/itr/process-documents.
// Multipart form: filing_period, plus repeated file parts whose form names
// carry the document type (form16, bank_statement, ais, other).
func (h *DocumentHandler) ProcessDocuments(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}

	period := c.PostForm("filing_period")
	if !filingPeriodRe.MatchString(period) {
		HandleError(c, domain.ErrInvalidFilingPeriod)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart form with at least one file is required")
		return
	}

	var files []service.UploadFile
	for field, headers := range form.File {
		docType, known := domain.KnownDocumentTypes[field]
		if !known {
			RespondError(c, http.StatusBadRequest, "UNKNOWN_DOCUMENT_TYPE",
				"file fields must be named form16, bank_statement, ais or other")
			return
		}
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				RespondError(c, http.StatusBadRequest, "MISSING_FILE", "could not read uploaded file")
				return
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				RespondError(c, http.StatusBadRequest, "MISSING_FILE", "could not read uploaded file")
				return
			}
			files = append(files, service.UploadFile{
				Name:         header.Filename,
				ContentType:  header.Header.Get("Content-Type"),
				Data:         data,
				DocumentType: docType,
			})
		}
	}

	outcomes, err := h.docService.ProcessDocuments(c.Request.Context(), &service.ProcessDocumentsInput{
		TaxpayerID:   taxpayerID,
		FilingPeriod: period,
		Files:        files,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, outcomes)
}

// GetDocument handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	doc, err := h.docService.GetByID(c.Request.Context(), taxpayerID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// ListDocuments handles GET /api/v1/documents?filing_period=2024-25
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	taxpayerID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	period := c.Query("filing_period")
	if !filingPeriodRe.MatchString(period) {
		HandleError(c, domain.ErrInvalidFilingPeriod)
		return
	}

	docs, err := h.docService.ListByPeriod(c.Request.Context(), taxpayerID, period)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, docs)
}
