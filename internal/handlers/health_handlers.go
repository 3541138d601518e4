package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheckFunc probes one dependency
type HealthCheckFunc func(ctx context.Context) error

// HealthHandlers reports dependency health
type HealthHandlers struct {
	logger *logging.SafeLogger
	checks map[string]HealthCheckFunc
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(logger *logging.SafeLogger, checks map[string]HealthCheckFunc) *HealthHandlers {
	return &HealthHandlers{logger: logger, checks: checks}
}

// HealthCheck godoc
// @Summary Verificação de saúde
// @Description Verifica a conectividade com as dependências do serviço
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Todos os serviços estão saudáveis"
// @Failure 503 {object} HealthResponse "Um ou mais serviços estão indisponíveis"
// @Router /health [get]
func (h *HealthHandlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	ctx, span, done := utils.TraceOperation(ctx, "health_check", nil)
	defer done()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			utils.RecordError(span, err)
			h.logger.Warn("health check failed", zap.String("service", name), zap.Error(err))
			health.Status = "unhealthy"
			health.Services[name] = "unhealthy"
			continue
		}
		health.Services[name] = "healthy"
	}

	if health.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}
