package v1

import (
	"net/http"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	"github.com/academyhub/paycore/internal/service"
	"github.com/academyhub/paycore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type PaymentMethodHandler struct {
	service service.PaymentMethodService
}

func NewPaymentMethodHandler(service service.PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{service: service}
}

// @Summary List saved payment methods of a user
// @Tags PaymentMethods
// @Produce json
// @Param user_id path string true "User ID"
// @Param gateway query string false "Gateway"
// @Success 200 {object} dto.ListPaymentMethodsResponse
// @Router /users/{user_id}/payment-methods [get]
func (h *PaymentMethodHandler) ListPaymentMethods(c *gin.Context) {
	filter := &types.PaymentMethodFilter{UserID: c.Param("user_id")}
	if g := c.Query("gateway"); g != "" {
		filter.Gateway = lo.ToPtr(types.ParsePaymentGatewayType(g))
	}

	methods, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	now := time.Now().UTC()
	c.JSON(http.StatusOK, dto.ListPaymentMethodsResponse{
		Items: lo.Map(methods, func(m *paymentmethod.SavedPaymentMethod, _ int) *dto.PaymentMethodResponse {
			return dto.NewPaymentMethodResponse(m, now)
		}),
	})
}

// @Summary Make a saved payment method the default
// @Tags PaymentMethods
// @Produce json
// @Param user_id path string true "User ID"
// @Param id path string true "Payment method ID"
// @Success 200 {object} dto.PaymentMethodResponse
// @Router /users/{user_id}/payment-methods/{id}/default [post]
func (h *PaymentMethodHandler) MarkAsDefault(c *gin.Context) {
	m, err := h.service.MarkAsDefault(c.Request.Context(), c.Param("user_id"), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaymentMethodResponse(m, time.Now().UTC()))
}

// @Summary Delete a saved payment method
// @Tags PaymentMethods
// @Param user_id path string true "User ID"
// @Param id path string true "Payment method ID"
// @Success 204
// @Router /users/{user_id}/payment-methods/{id} [delete]
func (h *PaymentMethodHandler) DeletePaymentMethod(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("user_id"), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
