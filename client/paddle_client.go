package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// PaddleClient calls a PaddleOCR serving endpoint
// (e.g. http://paddleocr:8866/predict/ocr_system). It is only used as the
// fallback engine when PADDLEOCR_API_URL is configured.
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPaddleClient creates a new PaddleOCR HTTP client
func NewPaddleClient(apiURL string, timeout time.Duration, logger *slog.Logger) *PaddleClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (p *PaddleClient) Name() string { return "paddleocr" }

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleResponse struct {
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// ExtractText sends the page as a base64 PNG and joins the recognized lines.
// PaddleOCR picks its model server side, so languages are ignored.
func (p *PaddleClient) ExtractText(ctx context.Context, img image.Image, _ []string) (OCRText, error) {
	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, img); err != nil {
		return OCRText{}, fmt.Errorf("failed to encode page image: %w", err)
	}

	payloadBytes, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(imgBuf.Bytes())},
	})
	if err != nil {
		return OCRText{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return OCRText{}, fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return OCRText{}, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return OCRText{}, fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return OCRText{}, fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	var (
		lines []string
		total float64
	)
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			lines = append(lines, line.Text)
			total += line.Confidence
		}
	}
	if len(lines) == 0 {
		return OCRText{}, fmt.Errorf("PaddleOCR extracted no text from image")
	}

	// Paddle reports 0-1, tesseract 0-100.
	conf := total / float64(len(lines)) * 100
	p.logger.Debug("PaddleOCR page done", "lines", len(lines), "confidence", conf)

	return OCRText{Text: strings.Join(lines, "\n"), Confidence: conf, Engine: p.Name()}, nil
}
