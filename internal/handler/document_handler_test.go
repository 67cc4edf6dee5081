package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
	"superca/internal/handler"
	"superca/internal/service"
	"superca/mocks"
)

func newDocumentHandler() (*handler.DocumentHandler, *mocks.MockDocumentService) {
	mockSvc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(mockSvc)
	return h, mockSvc
}

func multipartBody(t *testing.T, period string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if period != "" {
		assert.NoError(t, writer.WriteField("filing_period", period))
	}
	for field, data := range files {
		part, err := writer.CreateFormFile(field, field+".pdf")
		assert.NoError(t, err)
		_, err = part.Write(data)
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

// --- ProcessDocuments ---

func TestDocumentHandler_ProcessDocuments_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	taxpayerID := uuid.New()
	outcomes := []service.DocumentOutcome{
		{Document: &domain.Document{ID: uuid.New(), TaxpayerID: taxpayerID, ExtractionStatus: domain.ExtractionStatusExtracted}},
	}
	mockSvc.On("ProcessDocuments", mock.Anything, mock.MatchedBy(func(input *service.ProcessDocumentsInput) bool {
		return input.TaxpayerID == taxpayerID &&
			input.FilingPeriod == "2024-25" &&
			len(input.Files) == 1 &&
			input.Files[0].DocumentType == domain.DocTypeForm16
	})).Return(outcomes, nil)

	body, contentType := multipartBody(t, "2024-25", map[string][]byte{
		"form16": []byte("%PDF-1.7 form16 bytes"),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/itr/process-documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, taxpayerID)

	h.ProcessDocuments(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_ProcessDocuments_MissingPeriod(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	body, contentType := multipartBody(t, "", map[string][]byte{
		"form16": []byte("%PDF-1.7"),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/itr/process-documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, uuid.New())

	h.ProcessDocuments(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_FILING_PERIOD", resp.Error.Code)
	mockSvc.AssertNotCalled(t, "ProcessDocuments")
}

func TestDocumentHandler_ProcessDocuments_UnknownFieldName(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	body, contentType := multipartBody(t, "2024-25", map[string][]byte{
		"payslip": []byte("%PDF-1.7"),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/itr/process-documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, uuid.New())

	h.ProcessDocuments(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_DOCUMENT_TYPE", resp.Error.Code)
	mockSvc.AssertNotCalled(t, "ProcessDocuments")
}

func TestDocumentHandler_ProcessDocuments_NoFiles(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	taxpayerID := uuid.New()
	mockSvc.On("ProcessDocuments", mock.Anything, mock.Anything).Return(nil, domain.ErrNoExtractionInputs)

	body, contentType := multipartBody(t, "2024-25", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/itr/process-documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, taxpayerID)

	h.ProcessDocuments(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_EXTRACTION_INPUTS", resp.Error.Code)
}

// --- GetDocument ---

func TestDocumentHandler_GetDocument_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	taxpayerID := uuid.New()
	docID := uuid.New()
	expected := &domain.Document{ID: docID, TaxpayerID: taxpayerID, ExtractionStatus: domain.ExtractionStatusExtracted}
	mockSvc.On("GetByID", mock.Anything, taxpayerID, docID).Return(expected, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: docID.String()}}
	setAuthContext(c, taxpayerID)

	h.GetDocument(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_GetDocument_NotFound(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	taxpayerID := uuid.New()
	docID := uuid.New()
	mockSvc.On("GetByID", mock.Anything, taxpayerID, docID).Return(nil, domain.ErrDocumentNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: docID.String()}}
	setAuthContext(c, taxpayerID)

	h.GetDocument(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DOCUMENT_NOT_FOUND", resp.Error.Code)
}

// --- ListDocuments ---

func TestDocumentHandler_ListDocuments_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	taxpayerID := uuid.New()
	docs := []domain.Document{
		{ID: uuid.New(), TaxpayerID: taxpayerID, FilingPeriod: "2024-25"},
		{ID: uuid.New(), TaxpayerID: taxpayerID, FilingPeriod: "2024-25"},
	}
	mockSvc.On("ListByPeriod", mock.Anything, taxpayerID, "2024-25").Return(docs, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents?filing_period=2024-25", http.NoBody)
	setAuthContext(c, taxpayerID)

	h.ListDocuments(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}
