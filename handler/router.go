package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with middleware, health check and the
// /api/v1 routes.
func NewRouter(extraction *ExtractionHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "OCR Invoice Extraction",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	extraction.RegisterRoutes(api)

	return router
}
