package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	ServerPort  string
	MaxFileSize int64
	LogLevel    string
	LogFormat   string

	OCR     OCRConfig
	PDF     PDFConfig
	Image   ImageConfig
	Fetch   FetchConfig
	Forward ForwardConfig
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	TesseractDataPath string
	Languages         []string
	PaddleOCRURL      string
}

// PDFConfig holds rasterization configuration
type PDFConfig struct {
	PdftoppmPath string
	RenderDPI    int
	UseTextLayer bool
}

// ImageConfig holds the page conditioning parameters
type ImageConfig struct {
	Contrast  float64
	Sharpen   float64
	// Threshold is the binarization luma cutoff, 0-255.
	Threshold int
}

// FetchConfig holds document download configuration
type FetchConfig struct {
	Timeout time.Duration
}

// ForwardConfig holds result forwarding configuration
type ForwardConfig struct {
	Timeout   time.Duration
	Workers   int
	QueueSize int
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 20*1024*1024), // 20 MB
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		OCR: OCRConfig{
			TesseractDataPath: getEnv("TESSDATA_PREFIX", ""),
			Languages:         getEnvAsList("OCR_LANGUAGES", "+", []string{"pol", "eng"}),
			PaddleOCRURL:      getEnv("PADDLEOCR_API_URL", ""),
		},
		PDF: PDFConfig{
			PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),
			RenderDPI:    getEnvAsInt("RENDER_DPI", 300),
			UseTextLayer: getEnvAsBool("PDF_TEXT_LAYER", false),
		},
		Image: ImageConfig{
			Contrast:  getEnvAsFloat("IMAGE_CONTRAST", 30),
			Sharpen:   getEnvAsFloat("IMAGE_SHARPEN", 1.5),
			Threshold: getEnvAsInt("IMAGE_THRESHOLD", 160),
		},
		Fetch: FetchConfig{
			Timeout: getEnvAsDuration("FETCH_TIMEOUT", 60*time.Second),
		},
		Forward: ForwardConfig{
			Timeout:   getEnvAsDuration("FORWARD_TIMEOUT", 30*time.Second),
			Workers:   getEnvAsInt("FORWARD_WORKERS", 4),
			QueueSize: getEnvAsInt("FORWARD_QUEUE_SIZE", 128),
		},
	}
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	} else if _, err := strconv.Atoi(c.ServerPort); err != nil {
		errs = append(errs, fmt.Errorf("SERVER_PORT %q is not a number", c.ServerPort))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE must be positive"))
	}
	if len(c.OCR.Languages) == 0 {
		errs = append(errs, errors.New("OCR_LANGUAGES must name at least one language"))
	}
	if c.PDF.RenderDPI < 72 || c.PDF.RenderDPI > 1200 {
		errs = append(errs, fmt.Errorf("RENDER_DPI %d out of range 72-1200", c.PDF.RenderDPI))
	}
	if c.Image.Contrast < -100 || c.Image.Contrast > 100 {
		errs = append(errs, fmt.Errorf("IMAGE_CONTRAST %.1f out of range -100..100", c.Image.Contrast))
	}
	if c.Image.Threshold < 0 || c.Image.Threshold > 255 {
		errs = append(errs, fmt.Errorf("IMAGE_THRESHOLD %d out of range 0-255", c.Image.Threshold))
	}
	if c.Image.Sharpen < 0 {
		errs = append(errs, errors.New("IMAGE_SHARPEN must not be negative"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT must be positive"))
	}
	if c.Forward.Timeout <= 0 {
		errs = append(errs, errors.New("FORWARD_TIMEOUT must be positive"))
	}
	if c.Forward.Workers < 1 {
		errs = append(errs, errors.New("FORWARD_WORKERS must be at least 1"))
	}
	if c.Forward.QueueSize < 1 {
		errs = append(errs, errors.New("FORWARD_QUEUE_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := getEnv(key, ""); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := getEnv(key, ""); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key, sep string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
