package notifications

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/sms"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

type orderNotificationRequest struct {
	OrderID int64 `json:"order_id" validate:"required"`
}

type jobOrderUpdateRequest struct {
	JobOrderID int64 `json:"job_order_id" validate:"required"`
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListSmsMessages(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get SMS messages", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Store.GetSmsMessage(r.Context(), id)
	if !common.Found(w, h.Log, "SMS message", err) {
		return
	}
	response.OK(w, m)
}

// MessagesByOrder handles GET /api/sms-messages/order/{orderId}.
func (h *Handler) MessagesByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := common.PathID(w, r, "orderId")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetOrder(ctx, orderID); !common.Found(w, h.Log, "Order", err) {
		return
	}
	list, err := h.Store.ListSmsMessagesByOrder(ctx, orderID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get SMS messages", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteSmsMessage(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "SMS message", "delete SMS message", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleSMS, id, fmt.Sprintf("Deleted SMS message %d", id))
	response.NoContent(w)
}

// sent writes the outcome of an explicit send. The message is stored even
// when the provider rejects it, so a failed delivery is still a 201 whose
// status says "failed".
func (h *Handler) sent(w http.ResponseWriter, r *http.Request, m models.SmsMessage, err error) {
	switch {
	case errors.Is(err, sms.ErrNoRecipient):
		response.Err(w, "Customer has no phone number", http.StatusBadRequest)
		return
	case err != nil:
		response.Internal(w, h.Log, "Failed to send SMS", err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionCreate, auth.ModuleSMS, m.ID,
		fmt.Sprintf("SMS %s to %s: %s", m.MessageType, m.Recipient, m.Status))
	response.Created(w, m)
}

// SendOrderNotification handles POST /api/sms-messages/order-notification.
func (h *Handler) SendOrderNotification(w http.ResponseWriter, r *http.Request) {
	var req orderNotificationRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetOrder(ctx, req.OrderID); !common.Found(w, h.Log, "Order", err) {
		return
	}
	m, err := h.SMS.SendOrderNotification(ctx, req.OrderID, auth.UserID(ctx))
	h.sent(w, r, m, err)
}

// SendJobOrderUpdate handles POST /api/sms-messages/job-order-update.
func (h *Handler) SendJobOrderUpdate(w http.ResponseWriter, r *http.Request) {
	var req jobOrderUpdateRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJobOrder(ctx, req.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	m, err := h.SMS.SendJobOrderUpdate(ctx, req.JobOrderID, auth.UserID(ctx))
	h.sent(w, r, m, err)
}

// SendCustomMessage handles POST /api/sms-messages/custom.
func (h *Handler) SendCustomMessage(w http.ResponseWriter, r *http.Request) {
	var req sms.CustomMessage
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if req.CustomerID != nil {
		if _, err := h.Store.GetCustomer(ctx, *req.CustomerID); !common.Found(w, h.Log, "Customer", err) {
			return
		}
	}
	if req.OrderID != nil {
		if _, err := h.Store.GetOrder(ctx, *req.OrderID); !common.Found(w, h.Log, "Order", err) {
			return
		}
	}
	if req.JobOrderID != nil {
		if _, err := h.Store.GetJobOrder(ctx, *req.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
			return
		}
	}
	if validation.SanitizeText(req.Message) == "" {
		response.Err(w, "Message is empty after removing markup", http.StatusBadRequest)
		return
	}
	m, err := h.SMS.SendCustomMessage(ctx, req, auth.UserID(ctx))
	h.sent(w, r, m, err)
}

// ResendMessage handles POST /api/sms-messages/{id}/resend.
func (h *Handler) ResendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	m, err := h.SMS.Resend(ctx, id)
	if !common.Found(w, h.Log, "SMS message", err) {
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleSMS, id,
		fmt.Sprintf("Resent SMS %d (attempt %d): %s", id, m.RetryCount+1, m.Status))
	response.OK(w, m)
}
