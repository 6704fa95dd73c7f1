package client

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"unicode"
)

// OCRText is the recognized text of one page image.
type OCRText struct {
	Text string
	// Confidence is the mean word confidence in the range 0-100.
	Confidence float64
	Engine     string
}

// OCREngine turns a page image into text.
type OCREngine interface {
	Name() string
	ExtractText(ctx context.Context, img image.Image, languages []string) (OCRText, error)
}

// MinUsefulChars is the amount of non-space text below which a primary
// engine result is considered empty and the fallback engine is asked.
const MinUsefulChars = 10

// FallbackEngine asks the secondary engine when the primary one fails or
// returns (almost) nothing. A nil fallback makes it a plain pass-through.
type FallbackEngine struct {
	primary  OCREngine
	fallback OCREngine
	logger   *slog.Logger
}

// NewFallbackEngine combines two engines.
func NewFallbackEngine(primary, fallback OCREngine, logger *slog.Logger) *FallbackEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackEngine{primary: primary, fallback: fallback, logger: logger}
}

func (e *FallbackEngine) Name() string {
	if e.fallback == nil {
		return e.primary.Name()
	}
	return e.primary.Name() + "+" + e.fallback.Name()
}

// ExtractText runs the primary engine and, when needed, the fallback. The
// better of the two results is returned; an error only when both fail.
func (e *FallbackEngine) ExtractText(ctx context.Context, img image.Image, languages []string) (OCRText, error) {
	res, err := e.primary.ExtractText(ctx, img, languages)
	if e.fallback == nil || (err == nil && usefulChars(res.Text) >= MinUsefulChars) {
		return res, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return OCRText{}, ctxErr
	}

	if err != nil {
		e.logger.Warn("primary OCR engine failed, trying fallback", "engine", e.primary.Name(), "error", err)
	} else {
		e.logger.Info("primary OCR result too short, trying fallback", "engine", e.primary.Name(), "chars", usefulChars(res.Text))
	}

	alt, altErr := e.fallback.ExtractText(ctx, img, languages)
	if altErr != nil {
		e.logger.Warn("fallback OCR engine failed", "engine", e.fallback.Name(), "error", altErr)
		if err != nil {
			return OCRText{}, err
		}
		return res, nil
	}
	if err == nil && usefulChars(alt.Text) <= usefulChars(res.Text) {
		return res, nil
	}
	return alt, nil
}

func usefulChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// joinLanguages renders languages the way tesseract expects them ("pol+eng").
func joinLanguages(languages []string) string {
	return strings.Join(languages, "+")
}
