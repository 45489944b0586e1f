package handlers

import (
	"errors"
	"net/http"

	"vitals_overlay/internal/feed"

	"github.com/gin-gonic/gin"
)

// statusFor maps the feed error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, feed.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrAuthentication):
		return http.StatusUnprocessableEntity
	case errors.Is(err, feed.ErrUpstream), errors.Is(err, feed.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondFeedError writes a feed failure. Taxonomy errors are shown to the
// caller; anything else is hidden behind fallback.
func (h *Handler) respondFeedError(c *gin.Context, err error, fallback, logKey string) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = fallback
	}
	h.logAndJSONError(c, code, msg, logKey, err)
}
