package sales

import (
	"fmt"
	"net/http"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// OrderLine is one job order requested together with a new order.
type OrderLine struct {
	CustomerProductID int64   `json:"customer_product_id" validate:"required"`
	Quantity          float64 `json:"quantity" validate:"gt=0"`
}

// OrderRequest is the body of POST /api/orders.
type OrderRequest struct {
	Date       string      `json:"date"`
	CustomerID string      `json:"customer_id" validate:"required"`
	Note       string      `json:"note" validate:"max=1000"`
	Status     string      `json:"status" validate:"omitempty,order_status"`
	UserID     *int64      `json:"user_id"`
	JobOrders  []OrderLine `json:"job_orders" validate:"omitempty,dive"`
}

// OrderResponse is an order with the job orders created alongside it.
type OrderResponse struct {
	models.Order
	JobOrders []models.JobOrder `json:"job_orders"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// validDate accepts an empty value, a date or a full timestamp.
func validDate(s string) bool {
	if s == "" {
		return true
	}
	if _, err := time.Parse(models.TimeLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

func invalidDate(w http.ResponseWriter) {
	ve := &validation.ValidationErrors{}
	ve.Add("date", "must be a valid date (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)")
	response.Invalid(w, ve)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListOrders(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get orders", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.Store.GetOrder(r.Context(), id)
	if !common.Found(w, h.Log, "Order", err) {
		return
	}
	response.OK(w, o)
}

// OrderJobOrders handles GET /api/orders/{id}/job-orders.
func (h *Handler) OrderJobOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetOrder(ctx, id); !common.Found(w, h.Log, "Order", err) {
		return
	}
	list, err := h.Store.ListJobOrdersByOrder(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get job orders", err)
		return
	}
	response.OK(w, list)
}

// CreateOrder creates an order and any job orders in the body in one
// transaction. Every job order's product must belong to the order's customer.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if !validDate(req.Date) {
		invalidDate(w)
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetCustomer(ctx, req.CustomerID); !common.Found(w, h.Log, "Customer", err) {
		return
	}
	lines := make([]models.JobOrder, 0, len(req.JobOrders))
	for i, l := range req.JobOrders {
		p, err := h.Store.GetCustomerProduct(ctx, l.CustomerProductID)
		if !common.Found(w, h.Log, "Customer product", err) {
			return
		}
		if p.CustomerID != req.CustomerID {
			ve := &validation.ValidationErrors{}
			ve.Add(fmt.Sprintf("job_orders[%d].customer_product_id", i), "must belong to the order's customer")
			response.Invalid(w, ve)
			return
		}
		lines = append(lines, models.JobOrder{CustomerProductID: l.CustomerProductID, Quantity: l.Quantity})
	}

	o := models.Order{
		Date:       req.Date,
		CustomerID: req.CustomerID,
		Note:       validation.SanitizeText(req.Note),
		Status:     req.Status,
		UserID:     req.UserID,
	}
	if o.UserID == nil {
		o.UserID = auth.UserID(ctx)
	}
	created, err := h.Store.CreateOrder(ctx, &o, lines)
	if err != nil {
		response.StoreErr(w, h.Log, "Order", "create order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleOrders, o.ID,
		fmt.Sprintf("Created order %d for customer %s with %d job orders", o.ID, o.CustomerID, len(created)))
	response.Created(w, OrderResponse{Order: o, JobOrders: created})
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var o models.Order
	if !common.DecodeUpdate(w, r, &o, func() { o.ID = id }) {
		return
	}
	if !validDate(o.Date) {
		invalidDate(w)
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetOrder(ctx, id)
	if !common.Found(w, h.Log, "Order", err) {
		return
	}
	if _, err := h.Store.GetCustomer(ctx, o.CustomerID); !common.Found(w, h.Log, "Customer", err) {
		return
	}
	if o.Date == "" {
		o.Date = existing.Date
	}
	if o.Status == "" {
		o.Status = existing.Status
	}
	o.Note = validation.SanitizeText(o.Note)
	if err := h.Store.UpdateOrder(ctx, &o); err != nil {
		response.StoreErr(w, h.Log, "Order", "update order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleOrders, id, fmt.Sprintf("Updated order %d", id))
	if o.Status != existing.Status {
		h.notifyOrder(ctx, id)
	}
	response.OK(w, o)
}

// UpdateOrderStatus handles PATCH /api/orders/{id}/status and texts the
// customer about the change.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateOrderStatus(ctx, id, req.Status); err != nil {
		response.StoreErr(w, h.Log, "Order", "update order status", err)
		return
	}
	o, err := h.Store.GetOrder(ctx, id)
	if err != nil {
		response.StoreErr(w, h.Log, "Order", "load order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleOrders, id, fmt.Sprintf("Order %d status set to %s", id, req.Status))
	h.notifyOrder(ctx, id)
	response.OK(w, o)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteOrder(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Order", "delete order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleOrders, id, fmt.Sprintf("Deleted order %d", id))
	response.NoContent(w)
}
