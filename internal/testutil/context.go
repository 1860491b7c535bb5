package testutil

import (
	"context"

	"github.com/academyhub/paycore/internal/types"
)

// TestTenantID is free of dashes so merchant references built for it parse back
const TestTenantID = "tenant_academy1"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, TestTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
