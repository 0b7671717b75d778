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

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMaintenanceRequests(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get maintenance requests", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	req, err := h.Store.GetMaintenanceRequest(r.Context(), id)
	if !common.Found(w, h.Log, "Maintenance request", err) {
		return
	}
	response.OK(w, req)
}

// CreateRequest opens a request. The request number is assigned by the
// store and the reporter defaults to the session user.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req models.MaintenanceRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if !h.checkMachine(w, r, req.MachineID) {
		return
	}
	if req.ReportedBy == nil {
		req.ReportedBy = auth.UserID(r.Context())
	}
	if !h.checkUsers(w, r, req.ReportedBy, req.AssignedTechnician) {
		return
	}
	ctx := r.Context()
	req.CompletedAt = nil
	if err := h.Store.CreateMaintenanceRequest(ctx, &req); err != nil {
		response.StoreErr(w, h.Log, "Maintenance request", "create maintenance request", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMaintenance, req.ID,
		fmt.Sprintf("Opened %s for machine %s (%s)", req.RequestNumber, req.MachineID, req.Severity))
	response.Created(w, req)
}

func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req models.MaintenanceRequest
	if !common.DecodeUpdate(w, r, &req, func() { req.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetMaintenanceRequest(ctx, id)
	if !common.Found(w, h.Log, "Maintenance request", err) {
		return
	}
	if !h.checkMachine(w, r, req.MachineID) {
		return
	}
	if !h.checkUsers(w, r, req.AssignedTechnician) {
		return
	}
	req.RequestNumber = existing.RequestNumber
	req.ReportedBy = existing.ReportedBy
	req.CreatedAt = existing.CreatedAt
	req.CompletedAt = existing.CompletedAt
	if req.Status == "" {
		req.Status = existing.Status
	}
	if err := h.Store.UpdateMaintenanceRequest(ctx, &req); err != nil {
		response.StoreErr(w, h.Log, "Maintenance request", "update maintenance request", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMaintenance, id,
		fmt.Sprintf("%s now %s", req.RequestNumber, req.Status))
	response.OK(w, req)
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMaintenanceRequest(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Maintenance request", "delete maintenance request", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMaintenance, id, fmt.Sprintf("Deleted maintenance request %d", id))
	response.NoContent(w)
}
