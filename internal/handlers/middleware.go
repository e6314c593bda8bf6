package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "x-api-key"

// apiKeyGuard protects the ingestion endpoint with a static key. A server
// with no key configured is an operator error, reported as 500 — distinct
// from a caller presenting the wrong key (401).
func (h *Handler) apiKeyGuard(c *gin.Context) {
	if h.apiKey == "" {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "server API key not configured",
		})
		return
	}

	if c.GetHeader(apiKeyHeader) != h.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"ok":    false,
			"error": "Unauthorized",
		})
		return
	}

	c.Next()
}
