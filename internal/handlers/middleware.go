package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminIDKey = "adminId"

func (h *Handler) adminMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	adminID, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(adminIDKey, adminID)
	c.Next()
}

// signUpGuard lets anyone create the first admin. Once one exists and auth
// is enabled, only an admin may add more.
func (h *Handler) signUpGuard(c *gin.Context) {
	if !h.cfg.AuthEnabled {
		c.Next()
		return
	}
	exists, err := h.services.HasAdmin()
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to check admin accounts", "admin_count_failed", err)
		c.Abort()
		return
	}
	if !exists {
		c.Next()
		return
	}
	h.adminMiddleware(c)
}
