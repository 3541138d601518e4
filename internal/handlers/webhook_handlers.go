package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxWebhookBody        = 1 << 20
	leadSourceHeader      = "X-Lead-Source"
	metaSignatureHeader   = "X-Hub-Signature-256"
	googleKeyHeader       = "X-Goog-Key"
	metaSignaturePrefix   = "sha256="
	webhookForbiddenError = "Webhook não autorizado"
)

// WebhookConfig holds the shared secrets of the ad platforms
type WebhookConfig struct {
	VerifyToken   string
	MetaAppSecret string
	GoogleKey     string
}

// WebhookHandlers receives ad platform lead webhooks
type WebhookHandlers struct {
	logger     *logging.SafeLogger
	leads      LeadAPI
	cfg        WebhookConfig
	normalizer *services.WebhookNormalizer
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(logger *logging.SafeLogger, leads LeadAPI, cfg WebhookConfig) *WebhookHandlers {
	return &WebhookHandlers{
		logger:     logger,
		leads:      leads,
		cfg:        cfg,
		normalizer: services.NewWebhookNormalizer(),
	}
}

// VerifySubscription godoc
// @Summary Verificar assinatura do webhook
// @Description Handshake de assinatura da Meta: devolve hub.challenge quando hub.verify_token confere
// @Tags Webhooks
// @Produce plain
// @Param hub.mode query string true "Deve ser 'subscribe'"
// @Param hub.verify_token query string true "Token de verificação compartilhado"
// @Param hub.challenge query string true "Valor a ser devolvido"
// @Success 200 {string} string "hub.challenge"
// @Failure 403 {object} ErrorResponse
// @Router /webhooks/leads [get]
func (h *WebhookHandlers) VerifySubscription(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || h.cfg.VerifyToken == "" ||
		!hmac.Equal([]byte(token), []byte(h.cfg.VerifyToken)) {
		h.logger.Warn("webhook subscription verification rejected", zap.String("mode", mode))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: webhookForbiddenError})
		return
	}

	c.String(http.StatusOK, challenge)
}

// ReceiveLeads godoc
// @Summary Receber leads por webhook
// @Description Recebe payloads da Meta (leadgen), do Google Ads ou genéricos e registra um lead por alteração
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Lead-Source header string false "Dica de origem (meta, google)"
// @Param X-Hub-Signature-256 header string false "Assinatura HMAC da Meta"
// @Param payload body object true "Payload do webhook"
// @Success 200 {object} models.WebhookIngestResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /webhooks/leads [post]
func (h *WebhookHandlers) ReceiveLeads(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Não foi possível ler o corpo da requisição"})
		return
	}
	if len(body) > maxWebhookBody {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Payload muito grande"})
		return
	}

	hint := c.GetHeader(leadSourceHeader)
	if !h.authorized(c, hint, body) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: webhookForbiddenError})
		return
	}

	result, err := h.leads.IngestWebhook(c.Request.Context(), hint, body)
	if err != nil {
		respondError(c, h.logger, "ingest webhook", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// authorized checks the optional platform secrets. Bodies that are not JSON
// objects carry no platform credentials and are only checked by signature.
func (h *WebhookHandlers) authorized(c *gin.Context, hint string, body []byte) bool {
	signature := c.GetHeader(metaSignatureHeader)

	kind := services.PayloadGeneric
	payload, err := services.DecodePayload(body)
	if err == nil {
		kind = h.normalizer.Classify(hint, payload)
	}

	if h.cfg.MetaAppSecret != "" && (kind == services.PayloadMeta || signature != "") {
		if !validMetaSignature(h.cfg.MetaAppSecret, signature, body) {
			h.logger.Warn("webhook rejected: invalid meta signature")
			return false
		}
	}

	if h.cfg.GoogleKey != "" {
		provided := c.GetHeader(googleKeyHeader)
		if provided == "" && payload != nil {
			if key, ok := payload["google_key"].(string); ok {
				provided = key
			}
		}
		if (kind == services.PayloadGoogle || provided != "") &&
			!hmac.Equal([]byte(provided), []byte(h.cfg.GoogleKey)) {
			h.logger.Warn("webhook rejected: invalid google key")
			return false
		}
	}

	return true
}

// validMetaSignature checks "sha256=<hex hmac of body>"
func validMetaSignature(secret, header string, body []byte) bool {
	if !strings.HasPrefix(header, metaSignaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, metaSignaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
