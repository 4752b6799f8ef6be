// Package handler wires the HTTP surface of the letter server onto gin.
package handler

import (
	"context"
	"net/http"
	"time"

	"valentine-server/internal/service"
	"valentine-server/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ResponsePath  = "/api/response"
	WebSocketPath = "/ws/letter"

	// IdempotencyKeyHeader carries the client's retry key for POST /api/response.
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

type LetterHandler struct {
	responseService service.ResponseService
	logger          *zap.Logger
}

func NewLetterHandler(responseService service.ResponseService, logger *zap.Logger) *LetterHandler {
	return &LetterHandler{
		responseService: responseService,
		logger:          logger.Named("LetterHandler"),
	}
}

// RegisterRoutes registers the page, the API and the health check.
// rateLimit guards only the write endpoint; ws may be nil when sessions are disabled.
func (h *LetterHandler) RegisterRoutes(router *gin.Engine, rateLimit gin.HandlerFunc, ws gin.HandlerFunc) {
	router.GET("/", h.letterPage)
	if ws != nil {
		router.GET(WebSocketPath, ws)
	}

	api := router.Group("/api")
	if rateLimit != nil {
		api.POST("/response", rateLimit, h.submitResponse)
	} else {
		api.POST("/response", h.submitResponse)
	}

	router.GET("/health", h.health)
	router.HEAD("/health", h.health)

	router.NoRoute(h.notFound)
}

func (h *LetterHandler) letterPage(c *gin.Context) {
	letterPageViewsTotal.Inc()
	c.HTML(http.StatusOK, web.LetterPage, web.NewLetterPageData(WebSocketPath))
}

func (h *LetterHandler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, web.NotFoundPage, web.NotFoundPageData{
		Title: "Page not found",
		Path:  c.Request.URL.Path,
	})
}

func (h *LetterHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.responseService.Health(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
