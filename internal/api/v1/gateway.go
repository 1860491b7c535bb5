package v1

import (
	"net/http"

	"github.com/academyhub/paycore/internal/service"
	"github.com/academyhub/paycore/internal/types"
	"github.com/gin-gonic/gin"
)

type GatewayHandler struct {
	resolver service.GatewayResolver
}

func NewGatewayHandler(resolver service.GatewayResolver) *GatewayHandler {
	return &GatewayHandler{resolver: resolver}
}

// ListGateways returns the gateways the tenant enabled with their capabilities
func (h *GatewayHandler) ListGateways(c *gin.Context) {
	ctx := c.Request.Context()
	gateways, err := h.resolver.AvailableGateways(ctx, types.GetTenantID(ctx))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": gateways})
}
