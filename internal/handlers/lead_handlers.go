package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/gin-gonic/gin"
)

// LeadAPI is the lead functionality exposed over HTTP
type LeadAPI interface {
	Submit(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error)
	IngestWebhook(ctx context.Context, hint string, body []byte) (*models.WebhookIngestResult, error)
	List(ctx context.Context, query models.LeadListQuery) (*models.LeadListResponse, error)
	Update(ctx context.Context, id string, patch models.UpdateLeadRequest) (*models.Lead, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// LeadHandlers serves lead submission and the operator lead listing
type LeadHandlers struct {
	logger *logging.SafeLogger
	leads  LeadAPI
}

// NewLeadHandlers creates a new lead handlers instance
func NewLeadHandlers(logger *logging.SafeLogger, leads LeadAPI) *LeadHandlers {
	return &LeadHandlers{logger: logger, leads: leads}
}

// CreateLead godoc
// @Summary Enviar lead
// @Description Registra um lead enviado pelo formulário do site. O e-mail é obrigatório e a origem padrão é "website".
// @Tags Leads
// @Accept json
// @Produce json
// @Param lead body models.CreateLeadRequest true "Dados do lead"
// @Success 201 {object} models.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads [post]
func (h *LeadHandlers) CreateLead(c *gin.Context) {
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Dados inválidos: " + err.Error()})
		return
	}

	lead, err := h.leads.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "create lead", err)
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// ListLeads godoc
// @Summary Listar leads
// @Description Lista leads do mais recente para o mais antigo, com filtros opcionais de status e origem (apenas administradores)
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página (padrão: 1)"
// @Param limit query int false "Itens por página (padrão: 20, máximo: 100)"
// @Param all query bool false "Retorna todos os leads filtrados, sem paginação"
// @Param status query string false "Filtro de status (ou 'all')"
// @Param source query string false "Filtro de origem (ou 'all')"
// @Success 200 {object} models.LeadListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads [get]
func (h *LeadHandlers) ListLeads(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Parâmetro 'page' inválido"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Parâmetro 'limit' inválido"})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	all := false
	if raw := c.Query("all"); raw != "" {
		all, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Parâmetro 'all' inválido"})
			return
		}
	}

	result, err := h.leads.List(c.Request.Context(), models.LeadListQuery{
		Filter: models.LeadFilter{
			Status: strings.TrimSpace(c.Query("status")),
			Source: strings.TrimSpace(c.Query("source")),
		},
		All:      all,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		respondError(c, h.logger, "list leads", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateLead godoc
// @Summary Atualizar lead
// @Description Atualiza status, notas ou dados de contato de um lead (apenas administradores)
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do lead"
// @Param lead body models.UpdateLeadRequest true "Campos a atualizar"
// @Success 200 {object} models.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{id} [patch]
func (h *LeadHandlers) UpdateLead(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ID do lead é obrigatório"})
		return
	}

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Dados inválidos: " + err.Error()})
		return
	}

	lead, err := h.leads.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, "update lead", err)
		return
	}

	c.JSON(http.StatusOK, lead)
}
