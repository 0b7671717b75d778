// Package manufacturing serves the shop-floor records: job orders, the rolls
// extruded for them and the finished goods they produce.
package manufacturing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/sms"
)

// Handler holds dependencies for manufacturing handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}

// notifyJobOrder texts the customer about a job order change as the
// notification rules allow. Delivery problems are logged only.
func (h *Handler) notifyJobOrder(ctx context.Context, jobOrderID int64) {
	msg, err := h.SMS.JobOrderStatusChanged(ctx, jobOrderID, auth.UserID(ctx))
	switch {
	case errors.Is(err, sms.ErrNoRecipient), errors.Is(err, sms.ErrSuppressed):
		h.Log.Debug("job order update skipped", zap.Int64("job_order_id", jobOrderID), zap.Error(err))
	case err != nil:
		h.Log.Warn("job order update failed", zap.Int64("job_order_id", jobOrderID), zap.Error(err))
	default:
		h.Log.Info("job order update", zap.Int64("job_order_id", jobOrderID), zap.Int64("sms_id", msg.ID), zap.String("status", msg.Status))
	}
}
