package v1

import (
	"net/http"

	"github.com/academyhub/paycore/internal/api/dto"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/service"
	"github.com/academyhub/paycore/internal/types"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService  service.PaymentService
	checkoutService service.CheckoutService
	refundService   service.RefundService
	invoiceService  service.InvoiceService
	log             *logger.Logger
}

func NewPaymentHandler(
	paymentService service.PaymentService,
	checkoutService service.CheckoutService,
	refundService service.RefundService,
	invoiceService service.InvoiceService,
	log *logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		checkoutService: checkoutService,
		refundService:   refundService,
		invoiceService:  invoiceService,
		log:             log,
	}
}

// @Summary Initiate a payment
// @Description Creates a payment and returns where the payer should complete it
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment body dto.InitiatePaymentRequest true "Payment"
// @Success 201 {object} dto.InitiatePaymentResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /payments [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	resp, err := h.checkoutService.InitiatePayment(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a payment by ID
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	resp, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List payments
// @Tags Payments
// @Produce json
// @Param filter query types.PaymentFilter false "Filter"
// @Success 200 {object} dto.ListPaymentsResponse
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	filter := types.NewPaymentFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Refund a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param refund body dto.RefundPaymentRequest true "Refund"
// @Success 200 {object} dto.RefundPaymentResponse
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req dto.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.refundService.RefundPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

// @Summary Generate the invoice of a paid payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.InvoiceResponse
// @Router /payments/{id}/invoice [post]
func (h *PaymentHandler) GenerateInvoice(c *gin.Context) {
	resp, err := h.invoiceService.GenerateInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Retry a failed or expired payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{id}/retry [post]
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	resp, err := h.paymentService.RetryPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
