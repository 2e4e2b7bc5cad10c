package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/loophq/loop360/pkg/constants"
)

var ErrNoTenantID = errors.New("no tenant id found in context")

// WithTenantID scopes the context to one tenant. Set once per request by the
// tenant-resolution middleware.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return tenantID, nil
}
