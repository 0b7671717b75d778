package hr

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// totalScore fills in a missing total as the mean of the three scores.
func totalScore(e *models.EmployeeOfMonth) {
	if e.TotalScore != 0 {
		return
	}
	mean := (e.QualityScore + e.AttendanceScore + e.ProductivityScore) / 3
	e.TotalScore = math.Round(mean*100) / 100
}

func (h *Handler) ListEmployeeOfMonth(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListEmployeeOfMonth(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get employee of the month", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetEmployeeOfMonth(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.Store.GetEmployeeOfMonth(r.Context(), id)
	if !common.Found(w, h.Log, "Employee of the month", err) {
		return
	}
	response.OK(w, e)
}

// EmployeeOfMonthByPeriod handles GET /api/employee-of-month/{year}/{month}.
func (h *Handler) EmployeeOfMonthByPeriod(w http.ResponseWriter, r *http.Request) {
	ve := &validation.ValidationErrors{}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 2000 || year > 2100 {
		ve.Add("year", "must be a year between 2000 and 2100")
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		ve.Add("month", "must be between 1 and 12")
	}
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	list, err := h.Store.ListEmployeeOfMonthByPeriod(r.Context(), year, month)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get employee of the month", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) CreateEmployeeOfMonth(w http.ResponseWriter, r *http.Request) {
	var e models.EmployeeOfMonth
	if !response.Decode(w, r, &e) {
		return
	}
	if !h.checkUsers(w, r, &e.UserID) {
		return
	}
	totalScore(&e)
	ctx := r.Context()
	if err := h.Store.CreateEmployeeOfMonth(ctx, &e); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			response.Err(w, "User already has an entry for this month", http.StatusConflict)
			return
		}
		response.StoreErr(w, h.Log, "Employee of the month", "create employee of the month", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleHR, e.ID,
		fmt.Sprintf("User %d scored %.2f for %02d/%d", e.UserID, e.TotalScore, e.Month, e.Year))
	response.Created(w, e)
}

func (h *Handler) UpdateEmployeeOfMonth(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var e models.EmployeeOfMonth
	if !common.DecodeUpdate(w, r, &e, func() { e.ID = id }) {
		return
	}
	if !h.checkUsers(w, r, &e.UserID) {
		return
	}
	totalScore(&e)
	ctx := r.Context()
	if err := h.Store.UpdateEmployeeOfMonth(ctx, &e); err != nil {
		response.StoreErr(w, h.Log, "Employee of the month", "update employee of the month", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleHR, id, fmt.Sprintf("Updated employee of the month %d", id))
	response.OK(w, e)
}

func (h *Handler) DeleteEmployeeOfMonth(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteEmployeeOfMonth(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Employee of the month", "delete employee of the month", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleHR, id, fmt.Sprintf("Deleted employee of the month %d", id))
	response.NoContent(w)
}
