package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/httputil"
	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/service"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeSessionClosed   = "session_closed"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
	ErrCodeUpstreamDown    = "comparator_unavailable"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondDomainError maps service and store errors to HTTP responses.
// Unrecognized errors are logged and surfaced as 500.
func respondDomainError(c *gin.Context, log *logrus.Logger, err error, action string) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
	case errors.Is(err, models.ErrRoundNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "round not found")
	case errors.Is(err, models.ErrChangeNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "change not found")
	case errors.Is(err, models.ErrSessionClosed):
		respondError(c, http.StatusConflict, ErrCodeSessionClosed, "session is closed to further rounds")
	case errors.Is(err, models.ErrChangeResolved):
		respondError(c, http.StatusConflict, ErrCodeConflict, "change is already resolved")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "resource already exists")
	case errors.Is(err, service.ErrCircuitOpen):
		respondError(c, http.StatusServiceUnavailable, ErrCodeUpstreamDown, "redline comparator is unavailable, retry later")
	default:
		log.WithError(err).Error(action)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
