package sales

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListCustomerProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListCustomerProducts(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get customer products", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetCustomerProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.GetCustomerProduct(r.Context(), id)
	if !common.Found(w, h.Log, "Customer product", err) {
		return
	}
	response.OK(w, p)
}

// checkProductRefs looks up the customer, category, item and master batch
// in that order; the first missing one is reported.
func (h *Handler) checkProductRefs(w http.ResponseWriter, r *http.Request, p *models.CustomerProduct) bool {
	ctx := r.Context()
	if _, err := h.Store.GetCustomer(ctx, p.CustomerID); !common.Found(w, h.Log, "Customer", err) {
		return false
	}
	if _, err := h.Store.GetCategory(ctx, p.CategoryID); !common.Found(w, h.Log, "Category", err) {
		return false
	}
	item, err := h.Store.GetItem(ctx, p.ItemID)
	if !common.Found(w, h.Log, "Item", err) {
		return false
	}
	if item.CategoryID != p.CategoryID {
		response.Err(w, "Item does not belong to the selected category", http.StatusBadRequest)
		return false
	}
	if p.MasterBatchID != nil && *p.MasterBatchID != "" {
		if _, err := h.Store.GetMasterBatch(ctx, *p.MasterBatchID); !common.Found(w, h.Log, "Master batch", err) {
			return false
		}
	}
	return true
}

func (h *Handler) CreateCustomerProduct(w http.ResponseWriter, r *http.Request) {
	var p models.CustomerProduct
	if !response.Decode(w, r, &p) {
		return
	}
	if !h.checkProductRefs(w, r, &p) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateCustomerProduct(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Customer product", "create customer product", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleCustomerProducts, p.ID,
		fmt.Sprintf("Created product %s for customer %s", p.ItemID, p.CustomerID))
	response.Created(w, p)
}

func (h *Handler) UpdateCustomerProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var p models.CustomerProduct
	if !common.DecodeUpdate(w, r, &p, func() { p.ID = id }) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetCustomerProduct(ctx, id); !common.Found(w, h.Log, "Customer product", err) {
		return
	}
	if !h.checkProductRefs(w, r, &p) {
		return
	}
	if err := h.Store.UpdateCustomerProduct(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Customer product", "update customer product", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleCustomerProducts, id, fmt.Sprintf("Updated customer product %d", id))
	response.OK(w, p)
}

func (h *Handler) DeleteCustomerProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteCustomerProduct(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Customer product", "delete customer product", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleCustomerProducts, id, fmt.Sprintf("Deleted customer product %d", id))
	response.NoContent(w)
}
