// Package notify is the user-feedback collaborator: every non-fatal failure
// of an attempted action ends up here, never as a fatal error.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log surfaces notifications as structured log lines. The dashboard front-end
// renders these as toasts; the gateway's concern ends at emitting them.
type Log struct {
	Logger *zap.SugaredLogger
}

func (n *Log) Notify(_ context.Context, orderID, message string) {
	n.Logger.Infow("notification", "order_id", orderID, "message", message)
}
