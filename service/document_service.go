package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/logging"
)

// Recognition methods reported in dto.SourceInfo.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)

// minTextLayerChars is the amount of non-space text a PDF text layer must
// have before it is trusted instead of OCR.
const minTextLayerChars = 20

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

// PageConditioner prepares a page image for OCR.
type PageConditioner interface {
	Condition(img image.Image) *image.NRGBA
}

// BarcodeScanner decodes symbols printed on a page.
type BarcodeScanner interface {
	Scan(img image.Image) []string
}

// OCRResult is the recognized text of a whole document.
type OCRResult struct {
	Text       string
	Pages      int
	Method     string
	Engine     string
	Confidence float64
	Barcodes   []string
	Warnings   []string
}

// DocumentOptions tunes recognition.
type DocumentOptions struct {
	Languages    []string
	UseTextLayer bool
}

type DocumentService struct {
	pdf         PDFProcessor
	engine      client.OCREngine
	conditioner PageConditioner
	barcodes    BarcodeScanner
	opts        DocumentOptions
	logger      *slog.Logger
}

// NewDocumentService wires the recognizer. conditioner and barcodes may be nil.
func NewDocumentService(pdf PDFProcessor, engine client.OCREngine, conditioner PageConditioner,
	barcodes BarcodeScanner, opts DocumentOptions, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		pdf:         pdf,
		engine:      engine,
		conditioner: conditioner,
		barcodes:    barcodes,
		opts:        opts,
		logger:      logger,
	}
}

// Recognize turns a fetched PDF or image into text. Page texts are joined
// with a blank line, NFC-normalized and trimmed.
func (s *DocumentService) Recognize(ctx context.Context, doc *dto.FetchedDocument) (*OCRResult, error) {
	logger := logging.WithFields(ctx, "url", doc.URL, "ext", doc.Extension)

	switch {
	case doc.IsPDF():
		return s.recognizePDF(ctx, doc, logger)
	case imageExtensions[doc.Extension]:
		img, err := DecodeImage(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
		}
		return s.recognizePages(ctx, []image.Image{img}, MethodImageOCR, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDocument, doc.Extension)
	}
}

func (s *DocumentService) recognizePDF(ctx context.Context, doc *dto.FetchedDocument, logger *slog.Logger) (*OCRResult, error) {
	if s.opts.UseTextLayer {
		text, err := s.pdf.ExtractText(doc.Data)
		switch {
		case err != nil:
			logger.Warn("PDF text layer unavailable", "error", err)
		case countNonSpace(text) >= minTextLayerChars:
			result := &OCRResult{Text: cleanText(text), Method: MethodPDFText, Confidence: 100}
			pages, err := s.pdf.PageCount(doc.Data)
			if err != nil || pages < 1 {
				logger.Debug("PDF page count unavailable", "error", err)
				pages = 1
				result.Warnings = append(result.Warnings, "page count unavailable, assuming 1")
			}
			result.Pages = pages
			logger.Info("using PDF text layer", "pages", pages, "chars", len(text))
			return result, nil
		default:
			logger.Info("PDF text layer too short, falling back to OCR", "chars", countNonSpace(text))
		}
	}

	images, err := s.pdf.RenderPages(ctx, doc.Data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNoPages, err)
	}
	if len(images) == 0 {
		return nil, ErrNoPages
	}
	return s.recognizePages(ctx, images, MethodPDFOCR, logger)
}

func (s *DocumentService) recognizePages(ctx context.Context, pages []image.Image, method string, logger *slog.Logger) (*OCRResult, error) {
	result := &OCRResult{Pages: len(pages), Method: method}

	var (
		texts   []string
		engines []string
		confSum float64
		lastErr error
	)
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var prepared image.Image = page
		if s.conditioner != nil {
			prepared = s.conditioner.Condition(page)
		}
		if s.barcodes != nil {
			result.Barcodes = append(result.Barcodes, s.barcodes.Scan(prepared)...)
		}

		res, err := s.engine.ExtractText(ctx, prepared, s.opts.Languages)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			result.Warnings = append(result.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			logger.Warn("OCR failed for page", "page", i+1, "error", err)
			continue
		}

		texts = append(texts, res.Text)
		confSum += res.Confidence
		if !slices.Contains(engines, res.Engine) {
			engines = append(engines, res.Engine)
		}
		logger.Debug("page recognized", "page", i+1, "engine", res.Engine, "confidence", res.Confidence)
	}

	if len(texts) == 0 {
		if lastErr == nil {
			lastErr = errors.New("no page produced text")
		}
		return nil, fmt.Errorf("%w: %v", ErrOCRFailed, lastErr)
	}

	result.Text = cleanText(strings.Join(texts, "\n\n"))
	result.Engine = strings.Join(engines, ",")
	result.Confidence = confSum / float64(len(texts))

	logger.Info("document recognized", "pages", result.Pages, "method", method,
		"chars", len(result.Text), "confidence", result.Confidence, "barcodes", len(result.Barcodes))
	return result, nil
}

func cleanText(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
