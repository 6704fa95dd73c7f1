package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/config"
	"github.com/Aashish23092/ocr-invoice-extraction/handler"
	"github.com/Aashish23092/ocr-invoice-extraction/logging"
	"github.com/Aashish23092/ocr-invoice-extraction/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// Initialize configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()

	// Initialize OCR engines
	tesseractClient := client.NewTesseractClient(cfg.OCR.TesseractDataPath, logger)
	defer tesseractClient.Close()

	var engine client.OCREngine = tesseractClient
	if cfg.OCR.PaddleOCRURL != "" {
		paddle := client.NewPaddleClient(cfg.OCR.PaddleOCRURL, cfg.Fetch.Timeout, logger)
		engine = client.NewFallbackEngine(tesseractClient, paddle, logger)
		logger.Info("PaddleOCR fallback enabled", "url", cfg.OCR.PaddleOCRURL)
	}

	// Initialize PDF processor
	pdfProcessor := service.NewPDFProcessor(service.ExecRunner{Logger: logger}, cfg.PDF.PdftoppmPath, cfg.PDF.RenderDPI, logger)

	// Initialize service layer
	documentService := service.NewDocumentService(
		pdfProcessor,
		engine,
		client.NewImageConditioner(cfg.Image.Contrast, cfg.Image.Sharpen, uint8(cfg.Image.Threshold)),
		client.NewBarcodeReader(),
		service.DocumentOptions{Languages: cfg.OCR.Languages, UseTextLayer: cfg.PDF.UseTextLayer},
		logger,
	)
	forwarder := service.NewForwarder(logger,
		service.WithForwardWorkers(cfg.Forward.Workers),
		service.WithForwardQueueSize(cfg.Forward.QueueSize),
		service.WithForwardTimeout(cfg.Forward.Timeout),
	)
	fetcher := client.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.MaxFileSize, logger)
	extractionService := service.NewExtractionService(fetcher, documentService, forwarder, logger)

	// Initialize handler layer
	extractionHandler := handler.NewExtractionHandler(extractionService, service.NewExportService(logger))

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(extractionHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting OCR invoice extraction service", "port", cfg.ServerPort, "languages", cfg.OCR.Languages)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Forward.Timeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	forwarder.Close(ctx)
}
