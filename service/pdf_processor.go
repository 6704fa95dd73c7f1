package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoImages is returned when a PDF has neither renderable pages nor
// embedded page scans.
var ErrNoImages = errors.New("no page images in PDF")

type PDFProcessor interface {
	// ExtractText returns the text layer, one line per text row, pages
	// separated by a blank line.
	ExtractText(pdfData []byte) (string, error)
	// ExtractImages returns the embedded raster images ordered by page.
	ExtractImages(pdfData []byte) ([]image.Image, error)
	// RenderPages rasterizes every page, falling back to ExtractImages when
	// the renderer is unavailable.
	RenderPages(ctx context.Context, pdfData []byte) ([]image.Image, error)
	PageCount(pdfData []byte) (int, error)
}

type pdfProcessor struct {
	runner       Runner
	pdftoppmPath string
	dpi          int
	logger       *slog.Logger
}

func NewPDFProcessor(runner Runner, pdftoppmPath string, dpi int, logger *slog.Logger) PDFProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &pdfProcessor{runner: runner, pdftoppmPath: pdftoppmPath, dpi: dpi, logger: logger}
}

func (p *pdfProcessor) PageCount(pdfData []byte) (n int, err error) {
	defer recoverPDF(&err)

	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r.NumPage(), nil
}

func (p *pdfProcessor) ExtractText(pdfData []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer recoverPDF(&err)

	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			p.logger.Warn("text layer unreadable", "page", pageIndex, "error", err)
			continue
		}

		var lines []string
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			lines = append(lines, strings.Join(words, " "))
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.Join(pages, "\n\n"), nil
}

func (p *pdfProcessor) ExtractImages(pdfData []byte) ([]image.Image, error) {
	// Create a temporary directory for extraction
	tempDir, err := os.MkdirTemp("", "pdf_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	outDir := filepath.Join(tempDir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	// nil selects every page
	if err := api.ExtractImagesFile(pdfPath, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	images, err := p.readImages(outDir, extractedPageNumber)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

func (p *pdfProcessor) RenderPages(ctx context.Context, pdfData []byte) ([]image.Image, error) {
	images, err := p.renderWithPdftoppm(ctx, pdfData)
	if err == nil && len(images) > 0 {
		return images, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	p.logger.Warn("pdftoppm rendering failed, using embedded images", "error", err)

	return p.ExtractImages(pdfData)
}

func (p *pdfProcessor) renderWithPdftoppm(ctx context.Context, pdfData []byte) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "pdf_pages")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	prefix := filepath.Join(tempDir, "page")
	_, stderr, err := p.runner.Run(ctx, p.pdftoppmPath, "-r", strconv.Itoa(p.dpi), "-png", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(strings.TrimSpace(string(stderr)), 512))
	}

	return p.readImages(tempDir, renderedPageNumber)
}

var (
	// pdftoppm writes page-1.png or page-01.png depending on the page count.
	renderedPagePattern = regexp.MustCompile(`^page-(\d+)\.png$`)
	// pdfcpu names extracted images <file>_<page>_<id>.<ext>.
	extractedPagePattern = regexp.MustCompile(`_(\d+)_[^_]*\.\w+$`)
)

func renderedPageNumber(name string) (int, bool) {
	return pageNumber(renderedPagePattern, name)
}

func extractedPageNumber(name string) (int, bool) {
	return pageNumber(extractedPagePattern, name)
}

func pageNumber(re *regexp.Regexp, name string) (int, bool) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

type pageFile struct {
	name string
	page int
}

// readImages decodes every image in dir ordered by page number, then name.
// Files that are not page images are skipped.
func (p *pdfProcessor) readImages(dir string, pageOf func(string) (int, bool)) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}

	var files []pageFile
	for _, entry := range entries {
		if entry.IsDir() || strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		page, ok := pageOf(entry.Name())
		if !ok {
			page = 1 << 30
		}
		files = append(files, pageFile{name: entry.Name(), page: page})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].page != files[j].page {
			return files[i].page < files[j].page
		}
		return files[i].name < files[j].name
	})

	images := make([]image.Image, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			continue
		}
		img, err := DecodeImage(data)
		if err != nil {
			p.logger.Debug("skipping undecodable image", "file", f.name, "error", err)
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

// DecodeImage decodes PNG, JPEG, GIF, TIFF, BMP or WEBP data.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func recoverPDF(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF: %v", r)
	}
}
