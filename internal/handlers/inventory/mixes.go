package inventory

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// MixLine is one raw material drawn into a new mix.
type MixLine struct {
	RawMaterialID int64   `json:"raw_material_id" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
}

// MixRequest is the body of POST /api/mix-materials.
type MixRequest struct {
	MixDate    string    `json:"mix_date" validate:"max=50"`
	MixPerson  *int64    `json:"mix_person"`
	MachineIDs []string  `json:"machine_ids" validate:"omitempty,dive,required"`
	Items      []MixLine `json:"items" validate:"omitempty,dive"`
}

// MixUpdate is the body of PUT /api/mix-materials/{id}. Items and machines
// have their own routes.
type MixUpdate struct {
	MixDate   string `json:"mix_date" validate:"max=50"`
	MixPerson *int64 `json:"mix_person"`
}

// MixResponse is a mix with its items.
type MixResponse struct {
	models.MixMaterial
	Items []models.MixItem `json:"items"`
}

type mixMachineRequest struct {
	MachineID string `json:"machine_id" validate:"required"`
}

// mixItemRequest is the body of POST and PUT /api/mix-items.
type mixItemRequest struct {
	MixID         int64   `json:"mix_id" validate:"required"`
	RawMaterialID int64   `json:"raw_material_id" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
}

func (h *Handler) checkMachines(w http.ResponseWriter, r *http.Request, ids []string) bool {
	for _, id := range ids {
		if _, err := h.Store.GetMachine(r.Context(), id); !common.Found(w, h.Log, "Machine", err) {
			return false
		}
	}
	return true
}

func (h *Handler) ListMixMaterials(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMixMaterials(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get mix materials", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetMixMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	mix, err := h.Store.GetMixMaterial(ctx, id)
	if !common.Found(w, h.Log, "Mix material", err) {
		return
	}
	items, err := h.Store.ListMixItemsByMix(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get mix items", err)
		return
	}
	response.OK(w, MixResponse{MixMaterial: mix, Items: items})
}

// CreateMixMaterial records a mix together with its items and machines.
// Every item is drawn from stock in the same transaction, so a mix that
// needs more than is on hand is rejected as a whole.
func (h *Handler) CreateMixMaterial(w http.ResponseWriter, r *http.Request) {
	var req MixRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if !h.checkMachines(w, r, req.MachineIDs) {
		return
	}
	items := make([]models.MixItem, 0, len(req.Items))
	for _, l := range req.Items {
		if !h.checkRawMaterials(w, r, l.RawMaterialID) {
			return
		}
		items = append(items, models.MixItem{RawMaterialID: l.RawMaterialID, Quantity: l.Quantity})
	}
	mix := models.MixMaterial{MixDate: req.MixDate, MixPerson: req.MixPerson, MachineIDs: req.MachineIDs}
	if mix.MixPerson == nil {
		mix.MixPerson = auth.UserID(ctx)
	}
	if err := h.Store.CreateMixMaterial(ctx, &mix, items); err != nil {
		response.StoreErr(w, h.Log, "Mix material", "create mix material", err)
		return
	}
	saved, err := h.Store.ListMixItemsByMix(ctx, mix.ID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get mix items", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMixMaterials, mix.ID,
		fmt.Sprintf("Created mix %d: %d items, %.2f total", mix.ID, len(saved), mix.TotalQuantity))
	response.Created(w, MixResponse{MixMaterial: mix, Items: saved})
}

func (h *Handler) UpdateMixMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req MixUpdate
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	mix, err := h.Store.GetMixMaterial(ctx, id)
	if !common.Found(w, h.Log, "Mix material", err) {
		return
	}
	if req.MixDate != "" {
		mix.MixDate = req.MixDate
	}
	if req.MixPerson != nil {
		mix.MixPerson = req.MixPerson
	}
	if err := h.Store.UpdateMixMaterial(ctx, &mix); err != nil {
		response.StoreErr(w, h.Log, "Mix material", "update mix material", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMixMaterials, id, fmt.Sprintf("Updated mix %d", id))
	response.OK(w, mix)
}

// DeleteMixMaterial removes a mix and returns its items to stock.
func (h *Handler) DeleteMixMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMixMaterial(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Mix material", "delete mix material", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMixMaterials, id, fmt.Sprintf("Deleted mix %d", id))
	response.NoContent(w)
}

// MixItems handles GET /api/mix-materials/{id}/items.
func (h *Handler) MixItems(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetMixMaterial(ctx, id); !common.Found(w, h.Log, "Mix material", err) {
		return
	}
	items, err := h.Store.ListMixItemsByMix(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get mix items", err)
		return
	}
	response.OK(w, items)
}

// MixMachines handles GET /api/mix-materials/{id}/machines.
func (h *Handler) MixMachines(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetMixMaterial(ctx, id); !common.Found(w, h.Log, "Mix material", err) {
		return
	}
	ids, err := h.Store.ListMixMachines(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get mix machines", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	response.OK(w, ids)
}

// AddMixMachine handles POST /api/mix-materials/{id}/machines.
func (h *Handler) AddMixMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req mixMachineRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetMixMaterial(ctx, id); !common.Found(w, h.Log, "Mix material", err) {
		return
	}
	if !h.checkMachines(w, r, []string{req.MachineID}) {
		return
	}
	if err := h.Store.AddMixMachine(ctx, id, req.MachineID); err != nil {
		response.StoreErr(w, h.Log, "Mix machine", "add mix machine", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMixMaterials, id,
		fmt.Sprintf("Linked machine %s to mix %d", req.MachineID, id))
	response.Created(w, map[string]any{"mix_id": id, "machine_id": req.MachineID})
}

// RemoveMixMachine handles DELETE /api/mix-materials/{id}/machines/{machineId}.
func (h *Handler) RemoveMixMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	machineID, ok := common.PathString(w, r, "machineId")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.RemoveMixMachine(ctx, id, machineID); err != nil {
		response.StoreErr(w, h.Log, "Mix machine", "remove mix machine", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMixMaterials, id,
		fmt.Sprintf("Unlinked machine %s from mix %d", machineID, id))
	response.NoContent(w)
}

func (h *Handler) ListMixItems(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMixItems(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get mix items", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetMixItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	it, err := h.Store.GetMixItem(r.Context(), id)
	if !common.Found(w, h.Log, "Mix item", err) {
		return
	}
	response.OK(w, it)
}

// CreateMixItem draws the quantity from stock and recomputes the mix.
func (h *Handler) CreateMixItem(w http.ResponseWriter, r *http.Request) {
	var req mixItemRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetMixMaterial(ctx, req.MixID); !common.Found(w, h.Log, "Mix material", err) {
		return
	}
	if !h.checkRawMaterials(w, r, req.RawMaterialID) {
		return
	}
	it := models.MixItem{MixID: req.MixID, RawMaterialID: req.RawMaterialID, Quantity: req.Quantity}
	if err := h.Store.CreateMixItem(ctx, &it); err != nil {
		response.StoreErr(w, h.Log, "Mix item", "create mix item", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMixMaterials, it.ID,
		fmt.Sprintf("Added %.2f of raw material %d to mix %d", it.Quantity, it.RawMaterialID, it.MixID))
	response.Created(w, it)
}

// UpdateMixItem moves the item to a new quantity or material. Only the
// difference is drawn from stock.
func (h *Handler) UpdateMixItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req mixItemRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetMixItem(ctx, id)
	if !common.Found(w, h.Log, "Mix item", err) {
		return
	}
	if req.MixID != existing.MixID {
		response.Err(w, "Mix item cannot move to another mix", http.StatusBadRequest)
		return
	}
	if !h.checkRawMaterials(w, r, req.RawMaterialID) {
		return
	}
	it := models.MixItem{ID: id, MixID: existing.MixID, RawMaterialID: req.RawMaterialID, Quantity: req.Quantity}
	if err := h.Store.UpdateMixItem(ctx, &it); err != nil {
		response.StoreErr(w, h.Log, "Mix item", "update mix item", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMixMaterials, id,
		fmt.Sprintf("Mix item %d now %.2f of raw material %d", id, it.Quantity, it.RawMaterialID))
	response.OK(w, it)
}

// DeleteMixItem returns the item's quantity to stock.
func (h *Handler) DeleteMixItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMixItem(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Mix item", "delete mix item", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMixMaterials, id, fmt.Sprintf("Deleted mix item %d", id))
	response.NoContent(w)
}
