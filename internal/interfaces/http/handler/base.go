package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// domainErrorCodes maps domain error codes to transport error codes
var domainErrorCodes = map[string]string{
	"NOT_FOUND":            dto.ErrCodeNotFound,
	"COLLECTION_NOT_FOUND": dto.ErrCodeNotFound,
	"INVALID_INPUT":        dto.ErrCodeInvalidInput,
	"UNAUTHORIZED":         dto.ErrCodeUnauthorized,
	"SESSION_REQUIRED":     dto.ErrCodeSessionRequired,
	"UPSTREAM_FAILURE":     dto.ErrCodeUpstream,
}

// HandleError converts application errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, cart.ErrSessionExpired):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Session with the commerce platform has expired")
		return
	case errors.Is(err, cart.ErrGatewayUnavailable):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, "Commerce platform is unreachable")
		return
	case errors.Is(err, cart.ErrGatewayRequestFailed), errors.Is(err, cart.ErrGatewayInvalidResponse):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, "Commerce platform request failed")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, ok := domainErrorCodes[domainErr.Code]
		if !ok {
			code = dto.ErrCodeInternal
		}
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
