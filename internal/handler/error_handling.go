package handler

import (
	"errors"
	"net/http"

	"valentine-server/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp domain.ErrorResponse

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = domain.ErrorResponse{Message: err.Error()}
	case errors.Is(err, domain.ErrSubmissionInFlight):
		statusCode = http.StatusConflict
		errResp = domain.ErrorResponse{Message: "A response with this idempotency key is still being saved"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = domain.ErrorResponse{Message: "Failed to save response"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
