package v1

import (
	"io"
	"net/http"

	"github.com/academyhub/paycore/internal/api/dto"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/service"
	"github.com/gin-gonic/gin"
)

// maxWebhookBodyBytes bounds inbound callback bodies
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives payment gateway callbacks
type WebhookHandler struct {
	service service.WebhookService
	logger  *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// @Summary Handle gateway webhook
// @Description Verifies and applies a payment gateway callback for a tenant
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param gateway path string true "Gateway name (paymob, easykash, tap)"
// @Param tenant_id path string true "Tenant ID"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /webhooks/{gateway}/{tenant_id} [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	gatewayName := c.Param("gateway")
	tenantID := c.Param("tenant_id")
	if gatewayName == "" || tenantID == "" {
		c.Error(ierr.NewError("gateway and tenant are required").
			WithHint("Webhook URL must include the gateway and tenant").
			Mark(ierr.ErrValidation))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Could not read webhook body").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.HandleWebhook(c.Request.Context(), gatewayName, tenantID, &gateway.WebhookRequest{
		Body:    body,
		Query:   c.Request.URL.Query(),
		Headers: c.Request.Header,
	})
	if err != nil {
		h.logger.Warnw("webhook rejected",
			"gateway", gatewayName,
			"tenant_id", tenantID,
			"error", err,
		)
		if ierr.IsSignature(err) || ierr.IsValidation(err) {
			c.JSON(http.StatusBadRequest, dto.WebhookResponse{Status: dto.WebhookStatusError, Message: "invalid webhook"})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
