package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

type fakePDF struct {
	text      string
	textErr   error
	pages     []image.Image
	renderErr error
	rendered  int
	countErr  error
}

func (f *fakePDF) ExtractText([]byte) (string, error) { return f.text, f.textErr }

func (f *fakePDF) ExtractImages([]byte) ([]image.Image, error) { return f.pages, f.renderErr }

func (f *fakePDF) RenderPages(context.Context, []byte) ([]image.Image, error) {
	f.rendered++
	return f.pages, f.renderErr
}

func (f *fakePDF) PageCount([]byte) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return 3, nil
}

// pageEngine answers with the text registered for the page width.
type pageEngine struct {
	byWidth map[int]string
	errs    map[int]error
	langs   []string
}

func (e *pageEngine) Name() string { return "fake" }

func (e *pageEngine) ExtractText(ctx context.Context, img image.Image, languages []string) (client.OCRText, error) {
	e.langs = languages
	w := img.Bounds().Dx()
	if err := e.errs[w]; err != nil {
		return client.OCRText{}, err
	}
	return client.OCRText{Text: e.byWidth[w], Confidence: 90, Engine: "fake"}, nil
}

type fakeBarcodes struct{ codes []string }

func (f fakeBarcodes) Scan(image.Image) []string { return f.codes }

func page(width int) image.Image {
	return image.NewGray(image.Rect(0, 0, width, 4))
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecognizeImage(t *testing.T) {
	engine := &pageEngine{byWidth: map[int]string{7: "  Nabywca: Café \n"}}
	svc := NewDocumentService(&fakePDF{}, engine, nil, fakeBarcodes{codes: []string{"80012345"}},
		DocumentOptions{Languages: []string{"pol", "eng"}}, nil)

	doc := &dto.FetchedDocument{URL: "http://files/wz.png", Data: pngBytes(t, page(7)), Extension: ".png"}
	res, err := svc.Recognize(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "Nabywca: Café", res.Text)
	assert.Equal(t, MethodImageOCR, res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "fake", res.Engine)
	assert.Equal(t, []string{"80012345"}, res.Barcodes)
	assert.Equal(t, []string{"pol", "eng"}, engine.langs)
}

func TestRecognizePDFPages(t *testing.T) {
	pdf := &fakePDF{text: "short", pages: []image.Image{page(1), page(2)}}
	engine := &pageEngine{byWidth: map[int]string{1: "DOKUMENT DOSTAWY 80012345", 2: "UWAGA: koniec"}}
	svc := NewDocumentService(pdf, engine, nil, nil, DocumentOptions{UseTextLayer: true}, nil)

	res, err := svc.Recognize(context.Background(), &dto.FetchedDocument{Extension: ".pdf"})

	require.NoError(t, err)
	assert.Equal(t, "DOKUMENT DOSTAWY 80012345\n\nUWAGA: koniec", res.Text)
	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, pdf.rendered)
}

func TestRecognizePDFTextLayer(t *testing.T) {
	pdf := &fakePDF{text: "\nDOKUMENT DOSTAWY 80012345\nNr Klienta 778899\n"}
	svc := NewDocumentService(pdf, &pageEngine{}, nil, nil, DocumentOptions{UseTextLayer: true}, nil)

	res, err := svc.Recognize(context.Background(), &dto.FetchedDocument{Extension: ".pdf"})

	require.NoError(t, err)
	assert.Equal(t, "DOKUMENT DOSTAWY 80012345\nNr Klienta 778899", res.Text)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 0, pdf.rendered)
}

func TestRecognizePDFTextLayerWithoutPageCount(t *testing.T) {
	pdf := &fakePDF{text: "DOKUMENT DOSTAWY 80012345\nNr Klienta 778899", countErr: errors.New("broken xref")}
	svc := NewDocumentService(pdf, &pageEngine{}, nil, nil, DocumentOptions{UseTextLayer: true}, nil)

	res, err := svc.Recognize(context.Background(), &dto.FetchedDocument{Extension: ".pdf"})

	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Warnings, "page count unavailable, assuming 1")
}

func TestRecognizeTextLayerDisabled(t *testing.T) {
	pdf := &fakePDF{text: "DOKUMENT DOSTAWY 80012345 with plenty of text", pages: []image.Image{page(1)}}
	engine := &pageEngine{byWidth: map[int]string{1: "from OCR"}}
	svc := NewDocumentService(pdf, engine, nil, nil, DocumentOptions{}, nil)

	res, err := svc.Recognize(context.Background(), &dto.FetchedDocument{Extension: ".pdf"})

	require.NoError(t, err)
	assert.Equal(t, "from OCR", res.Text)
}

func TestRecognizePartialFailure(t *testing.T) {
	pdf := &fakePDF{pages: []image.Image{page(1), page(2)}}
	engine := &pageEngine{
		byWidth: map[int]string{2: "page two"},
		errs:    map[int]error{1: errors.New("tesseract crashed")},
	}
	svc := NewDocumentService(pdf, engine, nil, nil, DocumentOptions{}, nil)

	res, err := svc.Recognize(context.Background(), &dto.FetchedDocument{Extension: ".pdf"})

	require.NoError(t, err)
	assert.Equal(t, "page two", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 1")
}

func TestRecognizeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported extension", func(t *testing.T) {
		svc := NewDocumentService(&fakePDF{}, &pageEngine{}, nil, nil, DocumentOptions{}, nil)
		_, err := svc.Recognize(ctx, &dto.FetchedDocument{Extension: ".docx"})
		assert.ErrorIs(t, err, ErrUnsupportedDocument)
	})

	t.Run("undecodable image", func(t *testing.T) {
		svc := NewDocumentService(&fakePDF{}, &pageEngine{}, nil, nil, DocumentOptions{}, nil)
		_, err := svc.Recognize(ctx, &dto.FetchedDocument{Extension: ".jpg", Data: []byte("not a jpeg")})
		assert.ErrorIs(t, err, ErrUnsupportedDocument)
	})

	t.Run("no pages", func(t *testing.T) {
		svc := NewDocumentService(&fakePDF{renderErr: ErrNoImages}, &pageEngine{}, nil, nil, DocumentOptions{}, nil)
		_, err := svc.Recognize(ctx, &dto.FetchedDocument{Extension: ".pdf"})
		assert.ErrorIs(t, err, ErrNoPages)
	})

	t.Run("every page fails", func(t *testing.T) {
		engine := &pageEngine{errs: map[int]error{1: errors.New("boom")}}
		svc := NewDocumentService(&fakePDF{pages: []image.Image{page(1)}}, engine, nil, nil, DocumentOptions{}, nil)
		_, err := svc.Recognize(ctx, &dto.FetchedDocument{Extension: ".pdf"})
		assert.ErrorIs(t, err, ErrOCRFailed)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		svc := NewDocumentService(&fakePDF{pages: []image.Image{page(1)}}, &pageEngine{}, nil, nil, DocumentOptions{}, nil)
		_, err := svc.Recognize(cctx, &dto.FetchedDocument{Extension: ".pdf"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRecognizeConditionsPages(t *testing.T) {
	conditioner := client.NewImageConditioner(30, 0, 128)
	engine := &pageEngine{byWidth: map[int]string{5: "ok"}}
	svc := NewDocumentService(&fakePDF{pages: []image.Image{page(5)}}, engine, conditioner, nil, DocumentOptions{}, nil)

	res, err := svc.Recognize(context.Background(), &dto.FetchedDocument{Extension: ".pdf"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
}
