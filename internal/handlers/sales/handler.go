// Package sales serves customers, their products and orders.
package sales

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/sms"
)

// Handler holds dependencies for sales handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}

// notifyOrder texts the order's customer its new status as the notification
// rules allow. Delivery problems are logged only.
func (h *Handler) notifyOrder(ctx context.Context, orderID int64) {
	msg, err := h.SMS.OrderStatusChanged(ctx, orderID, auth.UserID(ctx))
	switch {
	case errors.Is(err, sms.ErrNoRecipient), errors.Is(err, sms.ErrSuppressed):
		h.Log.Debug("order notification skipped", zap.Int64("order_id", orderID), zap.Error(err))
	case err != nil:
		h.Log.Warn("order notification failed", zap.Int64("order_id", orderID), zap.Error(err))
	default:
		h.Log.Info("order notification", zap.Int64("order_id", orderID), zap.Int64("sms_id", msg.ID), zap.String("status", msg.Status))
	}
}
