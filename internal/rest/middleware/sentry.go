package middleware

import (
	"time"

	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/types"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware attaches a hub to each request and reports panics
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryScopeMiddleware tags the request hub with tenant and request ids.
// It must run after TenantMiddleware.
func SentryScopeMiddleware(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		ctx := c.Request.Context()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("tenant_id", types.GetTenantID(ctx))
			scope.SetTag("request_id", types.GetRequestID(ctx))
		})
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(ctx, hub))
	}
	c.Next()
}
