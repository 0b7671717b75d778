package engineering

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListPlateParameters(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListPlatePricingParameters(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get plate pricing parameters", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetPlateParameter(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.GetPlatePricingParameter(r.Context(), id)
	if !common.Found(w, h.Log, "Plate pricing parameter", err) {
		return
	}
	response.OK(w, p)
}

func (h *Handler) CreatePlateParameter(w http.ResponseWriter, r *http.Request) {
	var p models.PlatePricingParameter
	if !response.Decode(w, r, &p) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreatePlatePricingParameter(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Plate pricing parameter", "create plate pricing parameter", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModulePlatePricing, p.ID,
		fmt.Sprintf("Set %s to %g", p.Type, p.Value))
	response.Created(w, p)
}

func (h *Handler) UpdatePlateParameter(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var p models.PlatePricingParameter
	if !common.DecodeUpdate(w, r, &p, func() { p.ID = id }) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdatePlatePricingParameter(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Plate pricing parameter", "update plate pricing parameter", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModulePlatePricing, id,
		fmt.Sprintf("Set %s to %g", p.Type, p.Value))
	response.OK(w, p)
}

func (h *Handler) DeletePlateParameter(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeletePlatePricingParameter(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Plate pricing parameter", "delete plate pricing parameter", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModulePlatePricing, id, fmt.Sprintf("Deleted parameter %d", id))
	response.NoContent(w)
}
