package cron

import (
	"net/http"
	"time"

	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/service"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment related cron jobs
type PaymentHandler struct {
	paymentService       service.PaymentService
	paymentMethodService service.PaymentMethodService
	logger               *logger.Logger
}

func NewPaymentHandler(
	paymentService service.PaymentService,
	paymentMethodService service.PaymentMethodService,
	logger *logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService:       paymentService,
		paymentMethodService: paymentMethodService,
		logger:               logger,
	}
}

// ExpireStalePaymentsRequest optionally overrides the configured staleness window
type ExpireStalePaymentsRequest struct {
	OlderThan string `json:"older_than,omitempty" form:"older_than"`
}

// ExpireStalePayments expires pending payments across all tenants
func (h *PaymentHandler) ExpireStalePayments(c *gin.Context) {
	h.logger.Infow("starting expire stale payments cron job", "time", time.Now().UTC().Format(time.RFC3339))

	var req ExpireStalePaymentsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			h.logger.Errorw("failed to parse request parameters", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request parameters"})
			return
		}
	}

	var olderThan time.Duration
	if req.OlderThan != "" {
		d, err := time.ParseDuration(req.OlderThan)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "older_than must be a positive duration such as 24h"})
			return
		}
		olderThan = d
	}

	expired, err := h.paymentService.ExpireStalePayments(c.Request.Context(), olderThan)
	if err != nil {
		h.logger.Errorw("expire stale payments failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to expire stale payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

// CleanupExpiredPaymentMethods deactivates expired saved cards across all tenants
func (h *PaymentHandler) CleanupExpiredPaymentMethods(c *gin.Context) {
	h.logger.Infow("starting expired payment method cleanup cron job", "time", time.Now().UTC().Format(time.RFC3339))

	deactivated, err := h.paymentMethodService.CleanupExpiredAllTenants(c.Request.Context())
	if err != nil {
		h.logger.Errorw("expired payment method cleanup finished with errors",
			"deactivated", deactivated,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"deactivated": deactivated,
			"error":       "some users could not be processed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": deactivated})
}
