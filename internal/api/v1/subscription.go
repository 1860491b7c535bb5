package v1

import (
	"net/http"

	"github.com/academyhub/paycore/internal/api/dto"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	renewalService service.RenewalService
}

func NewSubscriptionHandler(renewalService service.RenewalService) *SubscriptionHandler {
	return &SubscriptionHandler{renewalService: renewalService}
}

// RenewalResponse reports a renewal attempt, refusals carry an error code
type RenewalResponse struct {
	Success      bool                 `json:"success"`
	ErrorCode    string               `json:"error_code,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Payment      *dto.PaymentResponse `json:"payment,omitempty"`
}

// @Summary Charge a subscription renewal with the saved payment method
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param renewal body dto.RenewSubscriptionRequest false "Renewal"
// @Success 200 {object} RenewalResponse
// @Router /subscriptions/{id}/renew [post]
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	var req dto.RenewSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	result, err := h.renewalService.ProcessAutoRenewal(c.Request.Context(), &service.RenewalRequest{
		SubscriptionID: c.Param("id"),
		Amount:         req.Amount,
		Gateway:        req.Gateway,
	})
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, RenewalResponse{
		Success:      result.Success,
		ErrorCode:    result.ErrorCode.String(),
		ErrorMessage: result.ErrorMessage,
		Payment:      dto.NewPaymentResponse(result.Payment),
	})
}
