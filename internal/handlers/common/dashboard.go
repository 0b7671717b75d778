package common

import (
	"net/http"
	"strings"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// Dashboard is the landing summary for the signed-in user.
type Dashboard struct {
	User                 models.User            `json:"user"`
	Modules              map[string][]string    `json:"modules"`
	OrdersByStatus       map[string]int         `json:"orders_by_status"`
	JobOrdersByStatus    map[string]int         `json:"job_orders_by_status"`
	RollsByStage         map[string]int         `json:"rolls_by_stage"`
	MyRollsToday         int                    `json:"my_rolls_today"`
	LowStockMaterials    int                    `json:"low_stock_materials"`
	OpenMaintenance      int                    `json:"open_maintenance_requests"`
	PendingQualityChecks int                    `json:"pending_quality_checks"`
	Attendance           *models.TimeAttendance `json:"attendance_today"`
}

// UserDashboard handles GET /api/user-dashboard.
func (h *Handler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, _ := auth.UserFrom(ctx)
	today := time.Now().Format(models.DateLayout)

	d := Dashboard{
		User:              u,
		OrdersByStatus:    map[string]int{},
		JobOrdersByStatus: map[string]int{},
		RollsByStage:      map[string]int{},
	}
	switch {
	case u.IsAdmin:
		d.Modules = map[string][]string{}
		for _, m := range auth.DefaultModules {
			d.Modules[m.Name] = auth.AllActions
		}
	case u.SectionID != nil:
		d.Modules = h.Perms.SectionPermissions(*u.SectionID)
	default:
		d.Modules = map[string][]string{}
	}

	orders, err := h.Store.ListOrders(ctx)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load dashboard", err)
		return
	}
	for _, o := range orders {
		d.OrdersByStatus[o.Status]++
	}

	jobOrders, err := h.Store.ListJobOrders(ctx)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load dashboard", err)
		return
	}
	for _, jo := range jobOrders {
		d.JobOrdersByStatus[jo.Status]++
	}

	rolls, err := h.Store.ListRolls(ctx)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load dashboard", err)
		return
	}
	for _, roll := range rolls {
		d.RollsByStage[roll.CurrentStage]++
		if roll.CreatedByID != nil && *roll.CreatedByID == u.ID && strings.HasPrefix(roll.CreatedAt, today) {
			d.MyRollsToday++
		}
	}

	materials, err := h.Store.ListRawMaterials(ctx)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load dashboard", err)
		return
	}
	for _, m := range materials {
		if m.Quantity < h.Config.Reports.LowStockThreshold {
			d.LowStockMaterials++
		}
	}

	requests, err := h.Store.ListMaintenanceRequests(ctx)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load dashboard", err)
		return
	}
	for _, mr := range requests {
		if mr.Status == "pending" || mr.Status == "in_progress" {
			d.OpenMaintenance++
		}
	}

	checks, err := h.Store.ListQualityChecks(ctx)
	if err != nil {
		response.Internal(w, h.Log, "Failed to load dashboard", err)
		return
	}
	for _, c := range checks {
		if c.Status == "pending" {
			d.PendingQualityChecks++
		}
	}

	if att, err := h.Store.GetTimeAttendanceForDay(ctx, u.ID, today); err == nil {
		d.Attendance = &att
	}

	response.OK(w, d)
}
