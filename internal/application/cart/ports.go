package cart

import (
	"context"

	"github.com/yutashop/storefront/internal/domain/auth"
)

// SessionReader reports the current authentication state. Cart mutation is
// gated here, not in the store itself.
type SessionReader interface {
	Current(ctx context.Context) auth.Session
}
