package engineering

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/pricing"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListPlateCalculations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListPlateCalculations(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get plate calculations", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetPlateCalculation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetPlateCalculation(r.Context(), id)
	if !common.Found(w, h.Log, "Plate calculation", err) {
		return
	}
	response.OK(w, c)
}

// quote decodes a pricing request, checks its customer and prices it with
// the current parameters.
func (h *Handler) quote(w http.ResponseWriter, r *http.Request) (models.PlateCalculation, bool) {
	var req pricing.Request
	if !response.Decode(w, r, &req) {
		return models.PlateCalculation{}, false
	}
	ctx := r.Context()
	if req.CustomerID != nil && *req.CustomerID != "" {
		if _, err := h.Store.GetCustomer(ctx, *req.CustomerID); !common.Found(w, h.Log, "Customer", err) {
			return models.PlateCalculation{}, false
		}
	}
	c, err := pricing.Quote(ctx, h.Store, req)
	if err != nil {
		response.Internal(w, h.Log, "Failed to calculate plate price", err)
		return c, false
	}
	return c, true
}

// Calculate handles POST /api/plate-calculations/calculate. Nothing is saved.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.quote(w, r)
	if !ok {
		return
	}
	response.OK(w, c)
}

// CreatePlateCalculation prices the request and saves the quote.
func (h *Handler) CreatePlateCalculation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.quote(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	c.CreatedBy = auth.UserID(ctx)
	if err := h.Store.CreatePlateCalculation(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "Plate calculation", "save plate calculation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModulePlatePricing, c.ID,
		fmt.Sprintf("Quoted %gx%g plate, %d colors: %.2f", c.Width, c.Height, c.Colors, c.CalculatedPrice))
	response.Created(w, c)
}

func (h *Handler) DeletePlateCalculation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeletePlateCalculation(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Plate calculation", "delete plate calculation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModulePlatePricing, id, fmt.Sprintf("Deleted calculation %d", id))
	response.NoContent(w)
}
