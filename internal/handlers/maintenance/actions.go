package maintenance

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMaintenanceActions(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get maintenance actions", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetAction(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.Store.GetMaintenanceAction(r.Context(), id)
	if !common.Found(w, h.Log, "Maintenance action", err) {
		return
	}
	response.OK(w, a)
}

// ActionsByRequest handles GET /api/maintenance-actions/request/{requestId}.
func (h *Handler) ActionsByRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := common.PathID(w, r, "requestId")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetMaintenanceRequest(ctx, requestID); !common.Found(w, h.Log, "Maintenance request", err) {
		return
	}
	list, err := h.Store.ListMaintenanceActionsByRequest(ctx, requestID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get maintenance actions", err)
		return
	}
	response.OK(w, list)
}

// resolveAction checks the action's request and machine. The machine
// defaults to the request's.
func (h *Handler) resolveAction(w http.ResponseWriter, r *http.Request, a *models.MaintenanceAction) bool {
	req, err := h.Store.GetMaintenanceRequest(r.Context(), a.RequestID)
	if !common.Found(w, h.Log, "Maintenance request", err) {
		return false
	}
	if a.MachineID == "" {
		a.MachineID = req.MachineID
	}
	if !h.checkMachine(w, r, a.MachineID) {
		return false
	}
	return h.checkUsers(w, r, a.PerformedBy)
}

// CreateAction records work on a request. A completed action closes the
// request.
func (h *Handler) CreateAction(w http.ResponseWriter, r *http.Request) {
	var a models.MaintenanceAction
	if !response.Decode(w, r, &a) {
		return
	}
	if a.PerformedBy == nil {
		a.PerformedBy = auth.UserID(r.Context())
	}
	if !h.resolveAction(w, r, &a) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateMaintenanceAction(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Maintenance action", "create maintenance action", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMaintenance, a.ID,
		fmt.Sprintf("%s on request %d (%s)", a.ActionType, a.RequestID, a.Status))
	response.Created(w, a)
}

func (h *Handler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var a models.MaintenanceAction
	if !common.DecodeUpdate(w, r, &a, func() { a.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetMaintenanceAction(ctx, id)
	if !common.Found(w, h.Log, "Maintenance action", err) {
		return
	}
	if !h.resolveAction(w, r, &a) {
		return
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if a.ActionDate == "" {
		a.ActionDate = existing.ActionDate
	}
	if err := h.Store.UpdateMaintenanceAction(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Maintenance action", "update maintenance action", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMaintenance, id, fmt.Sprintf("Maintenance action %d now %s", id, a.Status))
	response.OK(w, a)
}

func (h *Handler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMaintenanceAction(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Maintenance action", "delete maintenance action", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMaintenance, id, fmt.Sprintf("Deleted maintenance action %d", id))
	response.NoContent(w)
}
