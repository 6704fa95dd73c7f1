package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/logging"
	"github.com/Aashish23092/ocr-invoice-extraction/utils"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/deliverynote"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
)

// Fetcher downloads a source document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*dto.FetchedDocument, error)
}

// Recognizer turns a source document into text.
type Recognizer interface {
	Recognize(ctx context.Context, doc *dto.FetchedDocument) (*OCRResult, error)
}

// ResultForwarder delivers finished records in the background.
type ResultForwarder interface {
	Enqueue(job ForwardJob) bool
}

type ExtractionService struct {
	fetcher    Fetcher
	recognizer Recognizer
	forwarder  ResultForwarder
	logger     *slog.Logger
}

// NewExtractionService wires the pipeline. forwarder may be nil, in which case
// forward URLs are ignored.
func NewExtractionService(fetcher Fetcher, recognizer Recognizer, forwarder ResultForwarder, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		fetcher:    fetcher,
		recognizer: recognizer,
		forwarder:  forwarder,
		logger:     logger,
	}
}

// InvoiceFromText parses already recognized invoice text.
func (s *ExtractionService) InvoiceFromText(text string) dto.InvoiceRecord {
	return invoice.Parse(text)
}

// DeliveryNoteFromText parses already recognized delivery note text.
func (s *ExtractionService) DeliveryNoteFromText(text string) dto.DeliveryNoteRecord {
	return deliverynote.Parse(text)
}

// ExtractInvoice downloads, recognizes and parses an invoice.
func (s *ExtractionService) ExtractInvoice(ctx context.Context, req dto.ExtractRequest) (*dto.ExtractionOutcome, error) {
	ocr, err := s.recognize(ctx, req.FileURL)
	if err != nil {
		return nil, err
	}

	rec, fields := invoice.ParseDetailed(ocr.result.Text)
	rec.Source = ocr.source()

	logging.WithFields(ctx, "kind", dto.KindInvoice).Info("invoice parsed",
		"fields_found", utils.CountFound(fields), "fields_total", len(fields), "items", rec.TotalItems)

	outcome := &dto.ExtractionOutcome{Kind: dto.KindInvoice, Invoice: &rec}
	outcome.Forwarded = s.forward(ctx, req.ForwardURL, dto.KindInvoice, &rec)
	return outcome, nil
}

// ExtractDeliveryNote downloads, recognizes and parses a delivery note.
func (s *ExtractionService) ExtractDeliveryNote(ctx context.Context, req dto.ExtractRequest) (*dto.ExtractionOutcome, error) {
	ocr, err := s.recognize(ctx, req.FileURL)
	if err != nil {
		return nil, err
	}

	rec, report := deliverynote.ParseDetailed(ocr.result.Text)
	rec.Source = ocr.source()
	for _, line := range report.Table.Rejected {
		rec.Source.Warnings = append(rec.Source.Warnings,
			fmt.Sprintf("line %d skipped (%s): %s", line.Number, line.Reason, line.Text))
	}

	logging.WithFields(ctx, "kind", dto.KindDeliveryNote).Info("delivery note parsed",
		"fields_found", utils.CountFound(report.Fields), "fields_total", len(report.Fields),
		"items", rec.TotalItems, "rejected_lines", len(report.Table.Rejected), "table_mode", report.Table.Mode.String())

	outcome := &dto.ExtractionOutcome{Kind: dto.KindDeliveryNote, DeliveryNote: &rec}
	outcome.Forwarded = s.forward(ctx, req.ForwardURL, dto.KindDeliveryNote, &rec)
	return outcome, nil
}

type recognized struct {
	doc    *dto.FetchedDocument
	result *OCRResult
}

func (r recognized) source() *dto.SourceInfo {
	return &dto.SourceInfo{
		URL:         r.doc.URL,
		ContentType: r.doc.ContentType,
		Pages:       r.result.Pages,
		Method:      r.result.Method,
		Engine:      r.result.Engine,
		Confidence:  r.result.Confidence,
		Barcodes:    r.result.Barcodes,
		Warnings:    r.result.Warnings,
	}
}

func (s *ExtractionService) recognize(ctx context.Context, url string) (recognized, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return recognized{}, &ExtractionError{Stage: StageFetch, Err: err}
	}
	result, err := s.recognizer.Recognize(ctx, doc)
	if err != nil {
		return recognized{}, &ExtractionError{Stage: StageRecognize, Err: err}
	}
	return recognized{doc: doc, result: result}, nil
}

func (s *ExtractionService) forward(ctx context.Context, url string, kind dto.RecordKind, record any) bool {
	if url == "" {
		return false
	}
	if s.forwarder == nil {
		logging.FromContext(ctx).Warn("forward URL given but forwarding is disabled", "url", url)
		return false
	}
	return s.forwarder.Enqueue(ForwardJob{
		URL:       url,
		Kind:      kind,
		Record:    record,
		RequestID: logging.RequestID(ctx),
	})
}
