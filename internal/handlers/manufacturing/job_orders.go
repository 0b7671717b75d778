package manufacturing

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

type jobOrderStatusRequest struct {
	Status string `json:"status" validate:"required,job_order_status"`
}

func (h *Handler) ListJobOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListJobOrders(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get job orders", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetJobOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	jo, err := h.Store.GetJobOrder(r.Context(), id)
	if !common.Found(w, h.Log, "Job order", err) {
		return
	}
	response.OK(w, jo)
}

// JobOrderRolls handles GET /api/job-orders/{id}/rolls.
func (h *Handler) JobOrderRolls(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJobOrder(ctx, id); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	rolls, err := h.Store.ListRollsByJobOrder(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get rolls", err)
		return
	}
	response.OK(w, rolls)
}

// JobOrderFinalProducts handles GET /api/job-orders/{id}/final-products.
func (h *Handler) JobOrderFinalProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJobOrder(ctx, id); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	list, err := h.Store.ListFinalProductsByJobOrder(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get final products", err)
		return
	}
	response.OK(w, list)
}

// resolveJobOrderRefs checks the order and customer product, and copies the
// order's customer onto the job order.
func (h *Handler) resolveJobOrderRefs(w http.ResponseWriter, r *http.Request, jo *models.JobOrder) bool {
	ctx := r.Context()
	o, err := h.Store.GetOrder(ctx, jo.OrderID)
	if !common.Found(w, h.Log, "Order", err) {
		return false
	}
	p, err := h.Store.GetCustomerProduct(ctx, jo.CustomerProductID)
	if !common.Found(w, h.Log, "Customer product", err) {
		return false
	}
	if p.CustomerID != o.CustomerID {
		response.Err(w, "Customer product does not belong to the order's customer", http.StatusBadRequest)
		return false
	}
	jo.CustomerID = o.CustomerID
	return true
}

func (h *Handler) CreateJobOrder(w http.ResponseWriter, r *http.Request) {
	var jo models.JobOrder
	if !response.Decode(w, r, &jo) {
		return
	}
	if !h.resolveJobOrderRefs(w, r, &jo) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateJobOrder(ctx, &jo); err != nil {
		response.StoreErr(w, h.Log, "Job order", "create job order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleJobOrders, jo.ID,
		fmt.Sprintf("Created job order %d for order %d", jo.ID, jo.OrderID))
	response.Created(w, jo)
}

func (h *Handler) UpdateJobOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var jo models.JobOrder
	if !common.DecodeUpdate(w, r, &jo, func() { jo.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetJobOrder(ctx, id)
	if !common.Found(w, h.Log, "Job order", err) {
		return
	}
	if !h.resolveJobOrderRefs(w, r, &jo) {
		return
	}
	if jo.Status == "" {
		jo.Status = existing.Status
	}
	if err := h.Store.UpdateJobOrder(ctx, &jo); err != nil {
		response.StoreErr(w, h.Log, "Job order", "update job order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleJobOrders, id, fmt.Sprintf("Updated job order %d", id))
	if jo.Status != existing.Status {
		h.notifyJobOrder(ctx, id)
	}
	response.OK(w, jo)
}

// UpdateJobOrderStatus handles PATCH /api/job-orders/{id}/status and texts
// the customer about the change.
func (h *Handler) UpdateJobOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req jobOrderStatusRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateJobOrderStatus(ctx, id, req.Status); err != nil {
		response.StoreErr(w, h.Log, "Job order", "update job order status", err)
		return
	}
	jo, err := h.Store.GetJobOrder(ctx, id)
	if err != nil {
		response.StoreErr(w, h.Log, "Job order", "load job order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleJobOrders, id, fmt.Sprintf("Job order %d status set to %s", id, req.Status))
	h.notifyJobOrder(ctx, id)
	response.OK(w, jo)
}

func (h *Handler) DeleteJobOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteJobOrder(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Job order", "delete job order", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleJobOrders, id, fmt.Sprintf("Deleted job order %d", id))
	response.NoContent(w)
}
