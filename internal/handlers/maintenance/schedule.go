package maintenance

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMaintenanceSchedules(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get maintenance schedule", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Store.GetMaintenanceSchedule(r.Context(), id)
	if !common.Found(w, h.Log, "Maintenance schedule", err) {
		return
	}
	response.OK(w, m)
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var m models.MaintenanceSchedule
	if !response.Decode(w, r, &m) {
		return
	}
	if !h.checkMachine(w, r, m.MachineID) || !h.checkUsers(w, r, m.AssignedTo) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateMaintenanceSchedule(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Maintenance schedule", "create maintenance schedule", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMaintenance, m.ID,
		fmt.Sprintf("Scheduled %s %s on %s, next due %s", m.Frequency, m.TaskName, m.MachineID, m.NextDue))
	response.Created(w, m)
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var m models.MaintenanceSchedule
	if !common.DecodeUpdate(w, r, &m, func() { m.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetMaintenanceSchedule(ctx, id)
	if !common.Found(w, h.Log, "Maintenance schedule", err) {
		return
	}
	if !h.checkMachine(w, r, m.MachineID) || !h.checkUsers(w, r, m.AssignedTo) {
		return
	}
	if m.Status == "" {
		m.Status = existing.Status
	}
	if err := h.Store.UpdateMaintenanceSchedule(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Maintenance schedule", "update maintenance schedule", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMaintenance, id, fmt.Sprintf("Updated schedule %s", m.TaskName))
	response.OK(w, m)
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMaintenanceSchedule(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Maintenance schedule", "delete maintenance schedule", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMaintenance, id, fmt.Sprintf("Deleted maintenance schedule %d", id))
	response.NoContent(w)
}

// GenerateDue handles POST /api/maintenance-schedule/generate. It opens a
// request for every active schedule due today or earlier.
func (h *Handler) GenerateDue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	created, err := h.Store.GenerateDueMaintenance(ctx, time.Now(), auth.UserID(ctx))
	if err != nil {
		response.Internal(w, h.Log, "Failed to generate maintenance requests", err)
		return
	}
	for _, req := range created {
		h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMaintenance, req.ID,
			fmt.Sprintf("Opened %s from schedule for machine %s", req.RequestNumber, req.MachineID))
	}
	h.Log.Info("generated scheduled maintenance", zap.Int("requests", len(created)))
	response.OK(w, map[string]any{"created": len(created), "requests": created})
}
