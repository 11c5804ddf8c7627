package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/secu-devis/internal/application/service"
	"github.com/garyjia/secu-devis/internal/infrastructure/external/htmlpdf"
	"github.com/garyjia/secu-devis/internal/infrastructure/external/openai"
	"github.com/garyjia/secu-devis/internal/render"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrQuoteNotFound), errors.Is(err, service.ErrLayoutNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr), errors.Is(err, render.ErrInvalidLayout):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, htmlpdf.ErrConversionFailed), errors.Is(err, openai.ErrEmptyResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal errors are logged and
// their message is not exposed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)

	resp := Response{Success: false, Error: err.Error()}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		resp.Data = gin.H{"fields": validationErr.Fields}
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		resp.Error = "internal error"
	}

	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
