package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

var (
	// ErrFetchFailed is returned when the document server answers with a
	// non-2xx status.
	ErrFetchFailed = errors.New("document download failed")
	// ErrFileTooLarge is returned when the body exceeds the size limit.
	ErrFileTooLarge = errors.New("document exceeds size limit")
)

// StatusError carries the HTTP status of a failed download.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrFetchFailed }

// HTTPFetcher downloads source documents.
type HTTPFetcher struct {
	httpClient *http.Client
	maxSize    int64
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher with a per-request timeout and body limit.
func NewHTTPFetcher(timeout time.Duration, maxSize int64, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxSize:    maxSize,
		logger:     logger,
	}
}

// Fetch downloads rawURL and resolves the file extension from, in order, the
// Content-Type header, the URL path and the content itself, else ".bin".
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*dto.FetchedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", rawURL, ErrFileTooLarge, f.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	doc := &dto.FetchedDocument{
		URL:         rawURL,
		Data:        data,
		ContentType: contentType,
		Extension:   ResolveExtension(contentType, rawURL, data),
	}
	f.logger.Debug("document fetched", "url", rawURL, "bytes", len(data), "ext", doc.Extension)
	return doc, nil
}

var preferredExt = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/tiff":      ".tiff",
	"image/gif":       ".gif",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
}

// ResolveExtension picks the file extension of a downloaded document.
func ResolveExtension(contentType, rawURL string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := preferredExt[mediaType]; ok {
			return ext
		}
		if mediaType != "application/octet-stream" {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				return exts[0]
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
			return ext
		}
	}

	if len(data) > 0 {
		detected := mimetype.Detect(data)
		if ext, ok := preferredExt[detected.String()]; ok {
			return ext
		}
		if ext := detected.Extension(); ext != "" {
			return ext
		}
	}

	return ".bin"
}
