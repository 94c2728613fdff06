package middleware

import "context"

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxTenantID    contextKey = "tenant_id"
	ctxWarehouseID contextKey = "warehouse_id"
	ctxUserEmail   contextKey = "user_email"
	ctxRole        contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func TenantIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxTenantID)
}

func WarehouseIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxWarehouseID)
}

func UserEmailFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserEmail)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithTenantID injects the tenant identifier into the context for downstream handlers.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenantID, tenantID)
}
