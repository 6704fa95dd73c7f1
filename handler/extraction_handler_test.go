package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/service"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/deliverynote"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
)

type fakeExtractor struct {
	text      string
	err       error
	forwarded bool
	lastReq   dto.ExtractRequest
}

func (f *fakeExtractor) ExtractInvoice(_ context.Context, req dto.ExtractRequest) (*dto.ExtractionOutcome, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	rec := invoice.Parse(f.text)
	return &dto.ExtractionOutcome{Kind: dto.KindInvoice, Invoice: &rec, Forwarded: f.forwarded}, nil
}

func (f *fakeExtractor) ExtractDeliveryNote(_ context.Context, req dto.ExtractRequest) (*dto.ExtractionOutcome, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	rec := deliverynote.Parse(f.text)
	return &dto.ExtractionOutcome{Kind: dto.KindDeliveryNote, DeliveryNote: &rec, Forwarded: f.forwarded}, nil
}

func (f *fakeExtractor) InvoiceFromText(text string) dto.InvoiceRecord { return invoice.Parse(text) }

func (f *fakeExtractor) DeliveryNoteFromText(text string) dto.DeliveryNoteRecord {
	return deliverynote.Parse(text)
}

func newTestRouter(ex Extractor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewExtractionHandler(ex, service.NewExportService(nil)))
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const wzText = "DOKUMENT DOSTAWY 80012345\n1 20.483.639 5 5 Papier"

func TestHealth(t *testing.T) {
	w := do(newTestRouter(&fakeExtractor{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestExtractDeliveryNote(t *testing.T) {
	ex := &fakeExtractor{text: wzText}
	w := do(newTestRouter(ex), http.MethodPost, "/api/v1/extract_wz", `{"file_url": "http://files/wz.pdf"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var rec dto.DeliveryNoteRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "80012345", rec.DocumentNumber)
	assert.Len(t, rec.Items, 1)
	assert.Equal(t, "http://files/wz.pdf", ex.lastReq.FileURL)
}

func TestExtractForwarded(t *testing.T) {
	ex := &fakeExtractor{text: wzText, forwarded: true}
	w := do(newTestRouter(ex), http.MethodPost, "/api/v1/extract_fv",
		`{"file_url": "http://files/fv.pdf", "forward_url": "http://erp/hook"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Data    dto.InvoiceRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp.Status)
	assert.Equal(t, "Result is being forwarded asynchronously", resp.Message)
	assert.Equal(t, wzText, resp.Data.UncleanedText)
}

func TestExtractBadRequest(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})

	for _, body := range []string{``, `{}`, `{"file_url": "not a url"}`, `{"file_url": "http://files/a.pdf", "forward_url": "nope"}`} {
		w := do(router, http.MethodPost, "/api/v1/extract_wz", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_REQUEST", resp.Error)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	}
}

func TestExtractErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"fetch status", &service.ExtractionError{Stage: service.StageFetch, Err: &client.StatusError{StatusCode: 404}}, http.StatusBadGateway, "FETCH_FAILED"},
		{"fetch network", &service.ExtractionError{Stage: service.StageFetch, Err: errors.New("dial tcp: refused")}, http.StatusBadGateway, "FETCH_FAILED"},
		{"unsupported", &service.ExtractionError{Stage: service.StageRecognize, Err: service.ErrUnsupportedDocument}, http.StatusUnsupportedMediaType, "UNSUPPORTED_DOCUMENT"},
		{"no pages", &service.ExtractionError{Stage: service.StageRecognize, Err: service.ErrNoPages}, http.StatusUnprocessableEntity, "NO_PAGES"},
		{"ocr", &service.ExtractionError{Stage: service.StageRecognize, Err: service.ErrOCRFailed}, http.StatusInternalServerError, "EXTRACTION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newTestRouter(&fakeExtractor{err: tt.err}), http.MethodPost, "/api/v1/extract_wz",
				`{"file_url": "http://files/wz.pdf"}`)

			assert.Equal(t, tt.want, w.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestExtractXLSX(t *testing.T) {
	w := do(newTestRouter(&fakeExtractor{text: wzText}), http.MethodPost, "/api/v1/extract_wz?format=xlsx",
		`{"file_url": "http://files/wz.pdf"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="wz-80012345.xlsx"`)
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestFromText(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})

	w := do(router, http.MethodPost, "/api/v1/text/wz", `{"text": "DOKUMENT DOSTAWY 80012345"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var note map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note))
	assert.Equal(t, "80012345", note["document_number"])
	assert.Equal(t, []any{}, note["items"])
	assert.NotContains(t, note, "source")

	w = do(router, http.MethodPost, "/api/v1/text/fv", `{"text": ""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, dto.ValidateRecord(dto.KindInvoice, w.Body.Bytes()))

	w = do(router, http.MethodPost, "/api/v1/text/fv", `{"text": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchema(t *testing.T) {
	router := newTestRouter(&fakeExtractor{})

	w := do(router, http.MethodGet, "/api/v1/schema/wz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, json.Valid(w.Body.Bytes()))

	w = do(router, http.MethodGet, "/api/v1/schema/pz", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
