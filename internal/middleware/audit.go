package middleware

import (
	"net/http"

	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OperatorAudit logs write operations performed by authenticated operators.
// It must run after AuthMiddleware.
func OperatorAudit(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		c.Next()

		fields := []zap.Field{
			zap.String("resource", resource),
			zap.String("resource_id", c.Param("id")),
			zap.String("action", mapHTTPMethodToAction(method)),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("ip_address", c.ClientIP()),
		}
		if claims, err := GetClaims(c); err == nil {
			subject, _ := claims.GetSubject()
			fields = append(fields,
				zap.String("operator", subject),
				zap.String("operator_email", observability.MaskEmail(claims.Email)))
		}

		observability.Logger().With(zap.String("component", "audit")).Info("operator action", fields...)
	}
}

func mapHTTPMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "unknown"
	}
}
