package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/logging"
	"github.com/Aashish23092/ocr-invoice-extraction/service"
)

// Extractor is the extraction pipeline used by the handlers.
type Extractor interface {
	ExtractInvoice(ctx context.Context, req dto.ExtractRequest) (*dto.ExtractionOutcome, error)
	ExtractDeliveryNote(ctx context.Context, req dto.ExtractRequest) (*dto.ExtractionOutcome, error)
	InvoiceFromText(text string) dto.InvoiceRecord
	DeliveryNoteFromText(text string) dto.DeliveryNoteRecord
}

// Exporter renders records as spreadsheets.
type Exporter interface {
	InvoiceXLSX(rec *dto.InvoiceRecord) ([]byte, error)
	DeliveryNoteXLSX(rec *dto.DeliveryNoteRecord) ([]byte, error)
}

type ExtractionHandler struct {
	extractor Extractor
	exporter  Exporter
}

func NewExtractionHandler(extractor Extractor, exporter Exporter) *ExtractionHandler {
	return &ExtractionHandler{
		extractor: extractor,
		exporter:  exporter,
	}
}

// RegisterRoutes mounts the extraction endpoints on an /api/v1 group.
func (h *ExtractionHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/extract_fv", h.ExtractInvoice)
	api.POST("/extract_wz", h.ExtractDeliveryNote)
	api.POST("/text/fv", h.InvoiceFromText)
	api.POST("/text/wz", h.DeliveryNoteFromText)
	api.GET("/schema/:kind", h.Schema)
}

// ExtractInvoice handles the POST /extract_fv endpoint
func (h *ExtractionHandler) ExtractInvoice(c *gin.Context) {
	h.extract(c, h.extractor.ExtractInvoice)
}

// ExtractDeliveryNote handles the POST /extract_wz endpoint
func (h *ExtractionHandler) ExtractDeliveryNote(c *gin.Context) {
	h.extract(c, h.extractor.ExtractDeliveryNote)
}

func (h *ExtractionHandler) extract(c *gin.Context, run func(context.Context, dto.ExtractRequest) (*dto.ExtractionOutcome, error)) {
	var req dto.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "file_url must be a valid URL", err)
		return
	}

	ctx := c.Request.Context()
	logging.FromContext(ctx).Info("extraction requested", "path", c.FullPath(), "file_url", req.FileURL,
		"forward", req.ForwardURL != "")

	outcome, err := run(ctx, req)
	if err != nil {
		status, code := classify(err)
		h.sendError(c, status, code, "Failed to extract document", err)
		return
	}

	if c.Query("format") == "xlsx" {
		h.sendWorkbook(c, outcome)
		return
	}

	if req.ForwardURL != "" {
		message := "Result is being forwarded asynchronously"
		if !outcome.Forwarded {
			message = "Result could not be queued for forwarding"
		}
		c.JSON(http.StatusOK, dto.ForwardedResponse{
			Status:  "processed",
			Message: message,
			Data:    outcome.Record(),
		})
		return
	}

	c.JSON(http.StatusOK, outcome.Record())
}

// InvoiceFromText handles the POST /text/fv endpoint
func (h *ExtractionHandler) InvoiceFromText(c *gin.Context) {
	var req dto.TextExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "Body must be {\"text\": \"...\"}", err)
		return
	}
	rec := h.extractor.InvoiceFromText(req.Text)
	if c.Query("format") == "xlsx" {
		h.sendWorkbook(c, &dto.ExtractionOutcome{Kind: dto.KindInvoice, Invoice: &rec})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeliveryNoteFromText handles the POST /text/wz endpoint
func (h *ExtractionHandler) DeliveryNoteFromText(c *gin.Context) {
	var req dto.TextExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "Body must be {\"text\": \"...\"}", err)
		return
	}
	rec := h.extractor.DeliveryNoteFromText(req.Text)
	if c.Query("format") == "xlsx" {
		h.sendWorkbook(c, &dto.ExtractionOutcome{Kind: dto.KindDeliveryNote, DeliveryNote: &rec})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Schema handles the GET /schema/:kind endpoint
func (h *ExtractionHandler) Schema(c *gin.Context) {
	schema, ok := dto.RecordSchema(dto.RecordKind(c.Param("kind")))
	if !ok {
		h.sendError(c, http.StatusNotFound, "UNKNOWN_KIND", "kind must be fv or wz", nil)
		return
	}
	c.Data(http.StatusOK, "application/schema+json", schema)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (h *ExtractionHandler) sendWorkbook(c *gin.Context, outcome *dto.ExtractionOutcome) {
	var (
		data   []byte
		err    error
		number string
	)
	switch outcome.Kind {
	case dto.KindInvoice:
		data, err = h.exporter.InvoiceXLSX(outcome.Invoice)
		number = outcome.Invoice.Invoice.Number
	default:
		data, err = h.exporter.DeliveryNoteXLSX(outcome.DeliveryNote)
		number = outcome.DeliveryNote.DocumentNumber
	}
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build workbook", err)
		return
	}

	name := string(outcome.Kind)
	if number = unsafeFileChars.ReplaceAllString(number, "_"); number != "" {
		name += "-" + number
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	c.Data(http.StatusOK, service.XLSXContentType, data)
}

// classify maps a pipeline error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_DOCUMENT"
	case errors.Is(err, service.ErrNoPages):
		return http.StatusUnprocessableEntity, "NO_PAGES"
	}

	var extErr *service.ExtractionError
	if errors.As(err, &extErr) && extErr.Stage == service.StageFetch {
		return http.StatusBadGateway, "FETCH_FAILED"
	}
	return http.StatusInternalServerError, "EXTRACTION_FAILED"
}

// sendError sends a structured error response
func (h *ExtractionHandler) sendError(c *gin.Context, statusCode int, code, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		logging.FromContext(c.Request.Context()).Warn(message, "status", statusCode, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    statusCode,
	})
}
