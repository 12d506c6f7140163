package amqp

import (
	"context"

	applog "walletstats/internal/log"
)

// Invalidator drops cached state derived from one user's ledger.
type Invalidator interface {
	InvalidateUser(userID string) int
}

// CacheInvalidationHandler returns a Handler that invalidates the user's cached
// reports for every ledger change.
func CacheInvalidationHandler(inv Invalidator, logger *applog.Logger) Handler {
	if logger == nil {
		logger = applog.Nop()
	}
	logger = logger.WithComponent(applog.ComponentCache)
	return func(ctx context.Context, msg *LedgerChangedMessage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := inv.InvalidateUser(msg.UserID)
		logger.DebugContext(ctx, "Invalidated cached reports",
			applog.FieldUserID, msg.UserID,
			applog.FieldOperation, applog.OpInvalidate,
			"entries", n)
		return nil
	}
}
