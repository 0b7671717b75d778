package hr

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// ShiftHours is the regular working day. Time beyond it counts as overtime.
const ShiftHours = 8.0

type punchRequest struct {
	Location string `json:"location" validate:"max=255"`
	Notes    string `json:"notes" validate:"max=1000"`
}

// workedHours returns the hours between check-in and check-out and the
// part of them beyond ShiftHours, both rounded to two decimals.
func workedHours(in, out string) (hours, overtime float64, err error) {
	start, err := time.ParseInLocation(models.TimeLayout, in, time.Local)
	if err != nil {
		return 0, 0, fmt.Errorf("check-in time: %w", err)
	}
	end, err := time.ParseInLocation(models.TimeLayout, out, time.Local)
	if err != nil {
		return 0, 0, fmt.Errorf("check-out time: %w", err)
	}
	if end.Before(start) {
		return 0, 0, errors.New("check-out is before check-in")
	}
	hours = math.Round(end.Sub(start).Hours()*100) / 100
	overtime = math.Max(0, math.Round((hours-ShiftHours)*100)/100)
	return hours, overtime, nil
}

func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListTimeAttendance(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get time attendance", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.Store.GetTimeAttendance(r.Context(), id)
	if !common.Found(w, h.Log, "Time attendance", err) {
		return
	}
	response.OK(w, a)
}

// AttendanceByUser handles GET /api/time-attendance/user/{userId}.
func (h *Handler) AttendanceByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.PathID(w, r, "userId")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetUser(ctx, userID); !common.Found(w, h.Log, "User", err) {
		return
	}
	list, err := h.Store.ListTimeAttendanceByUser(ctx, userID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get time attendance", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var a models.TimeAttendance
	if !response.Decode(w, r, &a) {
		return
	}
	if !h.checkUsers(w, r, &a.UserID) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateTimeAttendance(ctx, &a); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			response.Err(w, "Attendance already recorded for this day", http.StatusConflict)
			return
		}
		response.StoreErr(w, h.Log, "Time attendance", "create time attendance", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleHR, a.ID,
		fmt.Sprintf("Recorded attendance for user %d on %s: %s", a.UserID, a.Date, a.Status))
	response.Created(w, a)
}

func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var a models.TimeAttendance
	if !common.DecodeUpdate(w, r, &a, func() { a.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetTimeAttendance(ctx, id)
	if !common.Found(w, h.Log, "Time attendance", err) {
		return
	}
	if !h.checkUsers(w, r, &a.UserID) {
		return
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if err := h.Store.UpdateTimeAttendance(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Time attendance", "update time attendance", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleHR, id, fmt.Sprintf("Updated attendance %d", id))
	response.OK(w, a)
}

func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteTimeAttendance(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Time attendance", "delete time attendance", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleHR, id, fmt.Sprintf("Deleted attendance %d", id))
	response.NoContent(w)
}

// CheckIn handles POST /api/time-attendance/check-in for the session user.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	now := time.Now()
	userID := currentUser(r)
	_, err := h.Store.GetTimeAttendanceForDay(ctx, userID, now.Format(models.DateLayout))
	switch {
	case err == nil:
		response.Err(w, "Already checked in today", http.StatusConflict)
		return
	case !errors.Is(err, storage.ErrNotFound):
		response.Internal(w, h.Log, "Failed to load time attendance", err)
		return
	}
	in := now.Format(models.TimeLayout)
	a := models.TimeAttendance{
		UserID:          userID,
		Date:            now.Format(models.DateLayout),
		CheckInTime:     &in,
		CheckInLocation: req.Location,
		Status:          "present",
		Notes:           req.Notes,
	}
	if err := h.Store.CreateTimeAttendance(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Time attendance", "check in", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleHR, a.ID, "Checked in at "+in)
	response.Created(w, a)
}

// CheckOut handles POST /api/time-attendance/check-out and fills in the
// worked and overtime hours.
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	now := time.Now()
	a, err := h.Store.GetTimeAttendanceForDay(ctx, currentUser(r), now.Format(models.DateLayout))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.Err(w, "Not checked in today", http.StatusBadRequest)
		return
	case err != nil:
		response.Internal(w, h.Log, "Failed to load time attendance", err)
		return
	}
	if a.CheckInTime == nil {
		response.Err(w, "Not checked in today", http.StatusBadRequest)
		return
	}
	if a.CheckOutTime != nil {
		response.Err(w, "Already checked out today", http.StatusConflict)
		return
	}
	out := now.Format(models.TimeLayout)
	hours, overtime, err := workedHours(*a.CheckInTime, out)
	if err != nil {
		response.Err(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.CheckOutTime = &out
	a.CheckOutLocation = req.Location
	a.WorkingHours = hours
	a.OvertimeHours = overtime
	if req.Notes != "" {
		a.Notes = req.Notes
	}
	if err := h.Store.UpdateTimeAttendance(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Time attendance", "check out", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleHR, a.ID, fmt.Sprintf("Checked out at %s after %.2f hours", out, hours))
	response.OK(w, a)
}
