package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "Erro interno do servidor"

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports the state of the service dependencies
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// statusForError maps domain errors to an HTTP status and a user-facing
// message. ok is false for unexpected errors.
func statusForError(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, models.ErrInvalidAddress):
		return http.StatusBadRequest, "Número de telefone inválido", true
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "Dados inválidos: " + err.Error(), true
	case errors.Is(err, models.ErrLeadNotFound):
		return http.StatusNotFound, "Lead não encontrado", true
	case errors.Is(err, models.ErrChallengeNotFound):
		return http.StatusNotFound, "Nenhum código pendente para este telefone", true
	case errors.Is(err, models.ErrChallengeExpired):
		return http.StatusGone, "Código de verificação expirado", true
	case errors.Is(err, models.ErrCodeMismatch):
		return http.StatusUnauthorized, "Código de verificação inválido", true
	case errors.Is(err, models.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Muitas tentativas, solicite um novo código", true
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests, "Muitas solicitações de código, tente novamente mais tarde", true
	case errors.Is(err, models.ErrDeliveryFailed):
		return http.StatusBadGateway, "Não foi possível enviar o código de verificação", true
	default:
		return http.StatusInternalServerError, internalErrorMessage, false
	}
}

// respondError writes the mapped error. Storage and unexpected errors are
// logged and replaced by a generic message.
func respondError(c *gin.Context, logger *logging.SafeLogger, operation string, err error) {
	status, message, ok := statusForError(err)
	if !ok || status >= http.StatusInternalServerError {
		logger.Error(operation+" failed",
			zap.String("request_id", c.GetString("RequestID")),
			zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: message})
}
