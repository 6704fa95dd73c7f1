package client

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

type TesseractClient struct {
	dataPath      string
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewTesseractClient(dataPath string, logger *slog.Logger) *TesseractClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractClient{
		dataPath:      dataPath,
		clientFactory: gosseract.NewClient,
		logger:        logger,
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

// ExtractText recognizes one page image with the given tesseract languages.
func (tc *TesseractClient) ExtractText(ctx context.Context, img image.Image, languages []string) (OCRText, error) {
	if err := ctx.Err(); err != nil {
		return OCRText{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return OCRText{}, fmt.Errorf("failed to encode page image: %w", err)
	}

	client := tc.clientFactory()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return OCRText{}, fmt.Errorf("failed to set language %s: %w", joinLanguages(languages), err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return OCRText{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return OCRText{}, fmt.Errorf("failed to extract text: %w", err)
	}

	conf := tc.meanConfidence(client)
	tc.logger.Debug("tesseract page done", "chars", len(text), "confidence", conf)

	return OCRText{Text: text, Confidence: conf, Engine: tc.Name()}, nil
}

func (tc *TesseractClient) meanConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		// If bounding boxes fail, the text is still usable
		return 0
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	return total / float64(len(boxes))
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	tc.logger.Info("tesseract client closed")
}
