package handler

import (
	"fmt"
	"net/http"

	"valentine-server/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// submitResponse handles POST /api/response.
func (h *LetterHandler) submitResponse(c *gin.Context) {
	var req domain.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid response body", zap.Error(err))
		responseRequestsTotal.WithLabelValues("invalid").Inc()
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.ErrorResponse{Message: "answer: Expected boolean"})
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		responseRequestsTotal.WithLabelValues("invalid").Inc()
		handleServiceError(c, fmt.Errorf("%w: %s header is longer than %d characters", domain.ErrInvalidInput, IdempotencyKeyHeader, maxIdempotencyKeyLen))
		return
	}

	resp, replayed, err := h.responseService.SubmitResponse(c.Request.Context(), *req.Answer, key)
	if err != nil {
		responseRequestsTotal.WithLabelValues("error").Inc()
		handleServiceError(c, err)
		return
	}

	if replayed {
		responseRequestsTotal.WithLabelValues("replayed").Inc()
		c.JSON(http.StatusOK, resp)
		return
	}
	responseRequestsTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, resp)
}
