package handlers

import (
	"context"
	"net/http"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/gin-gonic/gin"
)

// VerificationAPI issues and checks download verification codes
type VerificationAPI interface {
	Issue(ctx context.Context, req models.IssueCodeRequest) (*models.IssueCodeResponse, error)
	Verify(ctx context.Context, req models.VerifyCodeRequest) (*models.VerifyCodeResponse, error)
}

// VerificationHandlers gates downloads behind phone verification
type VerificationHandlers struct {
	logger       *logging.SafeLogger
	verification VerificationAPI
}

// NewVerificationHandlers creates a new verification handlers instance
func NewVerificationHandlers(logger *logging.SafeLogger, verification VerificationAPI) *VerificationHandlers {
	return &VerificationHandlers{logger: logger, verification: verification}
}

// IssueCode godoc
// @Summary Solicitar código de verificação
// @Description Gera um código de 6 dígitos e o envia ao telefone informado. Um novo pedido invalida o código anterior.
// @Tags Downloads
// @Accept json
// @Produce json
// @Param request body models.IssueCodeRequest true "Telefone e nome"
// @Success 200 {object} models.IssueCodeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /downloads/otp [post]
func (h *VerificationHandlers) IssueCode(c *gin.Context) {
	var req models.IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Dados inválidos: " + err.Error()})
		return
	}

	resp, err := h.verification.Issue(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "issue verification code", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyCode godoc
// @Summary Validar código de verificação
// @Description Valida o código recebido. Um código correto só pode ser usado uma vez.
// @Tags Downloads
// @Accept json
// @Produce json
// @Param request body models.VerifyCodeRequest true "Telefone e código"
// @Success 200 {object} models.VerifyCodeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Código incorreto"
// @Failure 404 {object} ErrorResponse "Nenhum código pendente"
// @Failure 410 {object} ErrorResponse "Código expirado"
// @Failure 429 {object} ErrorResponse "Muitas tentativas"
// @Failure 500 {object} ErrorResponse
// @Router /downloads/otp/verify [post]
func (h *VerificationHandlers) VerifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Dados inválidos: " + err.Error()})
		return
	}

	resp, err := h.verification.Verify(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "verify code", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
