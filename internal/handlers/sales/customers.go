package sales

import (
	"net/http"
	"strings"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get customers", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetCustomer(r.Context(), id)
	if !common.Found(w, h.Log, "Customer", err) {
		return
	}
	response.OK(w, c)
}

// SearchCustomers handles GET /api/customers/search?q=&limit=. Matches are
// ranked by edit distance so typos and partial names still hit.
func (h *Handler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.Err(w, "Search query is required", http.StatusBadRequest)
		return
	}
	matches, err := h.Store.SearchCustomers(r.Context(), q, common.QueryInt(r, "limit", 20))
	if err != nil {
		response.Internal(w, h.Log, "Failed to search customers", err)
		return
	}
	response.OK(w, matches)
}

// CustomerProducts handles GET /api/customers/{id}/products.
func (h *Handler) CustomerProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetCustomer(ctx, id); !common.Found(w, h.Log, "Customer", err) {
		return
	}
	list, err := h.Store.ListCustomerProductsByCustomer(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get customer products", err)
		return
	}
	response.OK(w, list)
}

func sanitizeCustomer(c *models.Customer) {
	c.Name = validation.SanitizeText(c.Name)
	c.NameAr = validation.SanitizeText(c.NameAr)
	c.Address = validation.SanitizeText(c.Address)
}

// checkUser verifies an optional linked account.
func (h *Handler) checkUser(w http.ResponseWriter, r *http.Request, id *int64) bool {
	if id == nil {
		return true
	}
	_, err := h.Store.GetUser(r.Context(), *id)
	return common.Found(w, h.Log, "User", err)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if !response.Decode(w, r, &c) {
		return
	}
	sanitizeCustomer(&c)
	if !h.checkUser(w, r, c.UserID) {
		return
	}
	ctx := r.Context()
	taken, err := h.Store.CustomerCodeTaken(ctx, c.Code, c.ID)
	if !common.Unique(w, h.Log, "Customer code already exists", taken, err) {
		return
	}
	if err := h.Store.CreateCustomer(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "Customer", "create customer", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleCustomers, c.ID, "Created customer "+c.Name)
	response.Created(w, c)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var c models.Customer
	if !common.DecodeUpdate(w, r, &c, func() { c.ID = id }) {
		return
	}
	sanitizeCustomer(&c)
	ctx := r.Context()
	if _, err := h.Store.GetCustomer(ctx, id); !common.Found(w, h.Log, "Customer", err) {
		return
	}
	if !h.checkUser(w, r, c.UserID) {
		return
	}
	taken, err := h.Store.CustomerCodeTaken(ctx, c.Code, id)
	if !common.Unique(w, h.Log, "Customer code already exists", taken, err) {
		return
	}
	if err := h.Store.UpdateCustomer(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "Customer", "update customer", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleCustomers, id, "Updated customer "+c.Name)
	response.OK(w, c)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteCustomer(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Customer", "delete customer", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleCustomers, id, "Deleted customer "+id)
	response.NoContent(w)
}
