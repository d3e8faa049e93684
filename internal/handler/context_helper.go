package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/the-local-guys/testtag-api/internal/middleware"
	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
	"github.com/the-local-guys/testtag-api/pkg/response"
)

// claimsFromContext returns the authenticated user's claims, or nil on
// routes reached without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requestMeta captures the caller's address and agent for audit records.
func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// bindJSON decodes the request body into dest, writing a 400 response on
// failure. It reports whether binding succeeded.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
