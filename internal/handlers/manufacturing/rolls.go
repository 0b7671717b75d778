package manufacturing

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// RollRequest is the body of POST /api/rolls. The id, serial number, stage
// and status are assigned by the server.
type RollRequest struct {
	JobOrderID   int64   `json:"job_order_id" validate:"required"`
	ExtrudingQty float64 `json:"extruding_qty" validate:"gte=0"`
	WasteQty     float64 `json:"waste_qty" validate:"gte=0"`
	CreatedByID  *int64  `json:"created_by_id"`
}

// RollPatch is a partial roll update. Nil fields are left unchanged.
type RollPatch struct {
	CurrentStage *string  `json:"current_stage" validate:"omitempty,roll_stage"`
	Status       *string  `json:"status" validate:"omitempty,roll_status"`
	ExtrudingQty *float64 `json:"extruding_qty" validate:"omitempty,gte=0"`
	PrintingQty  *float64 `json:"printing_qty" validate:"omitempty,gte=0"`
	CuttingQty   *float64 `json:"cutting_qty" validate:"omitempty,gte=0"`
	WasteQty     *float64 `json:"waste_qty" validate:"omitempty,gte=0"`
	PrintedByID  *int64   `json:"printed_by_id"`
	CutByID      *int64   `json:"cut_by_id"`
}

func stageIndex(stage string) int {
	return slices.Index(validation.ValidRollStages, stage)
}

// applyPatch merges p into roll. Moving past printing stamps printed_at and
// printed_by, reaching completed stamps cut_at and cut_by. userID is the
// default operator for those stamps.
func applyPatch(roll *models.Roll, p RollPatch, userID *int64, now time.Time) error {
	if p.CurrentStage != nil && stageIndex(*p.CurrentStage) < stageIndex(roll.CurrentStage) {
		return fmt.Errorf("cannot move roll from %s back to %s", roll.CurrentStage, *p.CurrentStage)
	}
	if p.ExtrudingQty != nil {
		roll.ExtrudingQty = *p.ExtrudingQty
	}
	if p.PrintingQty != nil {
		roll.PrintingQty = *p.PrintingQty
	}
	if p.CuttingQty != nil {
		roll.CuttingQty = *p.CuttingQty
	}
	if p.WasteQty != nil {
		roll.WasteQty = *p.WasteQty
	}
	if p.PrintedByID != nil {
		roll.PrintedByID = p.PrintedByID
	}
	if p.CutByID != nil {
		roll.CutByID = p.CutByID
	}
	if p.CurrentStage != nil {
		roll.CurrentStage = *p.CurrentStage
	}
	if p.Status != nil {
		roll.Status = *p.Status
	}

	ts := now.Format(models.TimeLayout)
	printed := stageIndex(roll.CurrentStage) > stageIndex("printing") || (p.PrintingQty != nil && *p.PrintingQty > 0)
	if printed && roll.PrintedAt == nil {
		roll.PrintedAt = &ts
		if roll.PrintedByID == nil {
			roll.PrintedByID = userID
		}
	}
	cut := roll.CurrentStage == "completed" || (p.CuttingQty != nil && *p.CuttingQty > 0)
	if cut && roll.CutAt == nil {
		roll.CutAt = &ts
		if roll.CutByID == nil {
			roll.CutByID = userID
		}
	}
	if roll.CurrentStage == "completed" && p.Status == nil {
		roll.Status = "completed"
	}
	return nil
}

func (h *Handler) ListRolls(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListRolls(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get rolls", err)
		return
	}
	response.OK(w, list)
}

// RollsByStage handles GET /api/rolls/stage/{stage}.
func (h *Handler) RollsByStage(w http.ResponseWriter, r *http.Request) {
	stage := r.PathValue("stage")
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "stage", stage)
	validation.ValidateEnum(ve, "stage", stage, validation.ValidRollStages)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	list, err := h.Store.ListRollsByStage(r.Context(), stage)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get rolls", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetRoll(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	roll, err := h.Store.GetRoll(r.Context(), id)
	if !common.Found(w, h.Log, "Roll", err) {
		return
	}
	response.OK(w, roll)
}

// CreateRoll numbers the roll after its job order's existing rolls and
// starts it in extrusion.
func (h *Handler) CreateRoll(w http.ResponseWriter, r *http.Request) {
	var req RollRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJobOrder(ctx, req.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	roll := models.Roll{
		JobOrderID:   req.JobOrderID,
		ExtrudingQty: req.ExtrudingQty,
		WasteQty:     req.WasteQty,
		CreatedByID:  req.CreatedByID,
	}
	if roll.CreatedByID == nil {
		roll.CreatedByID = auth.UserID(ctx)
	}
	if err := h.Store.CreateRoll(ctx, &roll); err != nil {
		response.StoreErr(w, h.Log, "Roll", "create roll", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleRolls, roll.ID,
		fmt.Sprintf("Created roll %s for job order %d", roll.ID, roll.JobOrderID))
	response.Created(w, roll)
}

// UpdateRoll handles PUT /api/rolls/{id}: a full replacement of the mutable
// fields. The id and serial number never change.
func (h *Handler) UpdateRoll(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var roll models.Roll
	if !common.DecodeUpdate(w, r, &roll, func() { roll.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetRoll(ctx, id)
	if !common.Found(w, h.Log, "Roll", err) {
		return
	}
	if _, err := h.Store.GetJobOrder(ctx, roll.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	roll.SerialNumber = existing.SerialNumber
	roll.CreatedAt = existing.CreatedAt
	if roll.CurrentStage == "" {
		roll.CurrentStage = existing.CurrentStage
	}
	if roll.Status == "" {
		roll.Status = existing.Status
	}
	if err := h.Store.UpdateRoll(ctx, &roll); err != nil {
		response.StoreErr(w, h.Log, "Roll", "update roll", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleRolls, id, "Updated roll "+id)
	response.OK(w, roll)
}

// PatchRoll handles PATCH /api/rolls/{id}: stage moves, status and
// quantities, stamping the printing and cutting operators.
func (h *Handler) PatchRoll(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var p RollPatch
	if !response.Decode(w, r, &p) {
		return
	}
	ctx := r.Context()
	roll, err := h.Store.GetRoll(ctx, id)
	if !common.Found(w, h.Log, "Roll", err) {
		return
	}
	if err := applyPatch(&roll, p, auth.UserID(ctx), time.Now()); err != nil {
		response.Err(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.UpdateRoll(ctx, &roll); err != nil {
		response.StoreErr(w, h.Log, "Roll", "update roll", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleRolls, id,
		fmt.Sprintf("Roll %s now %s/%s", id, roll.CurrentStage, roll.Status))
	response.OK(w, roll)
}

func (h *Handler) DeleteRoll(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteRoll(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Roll", "delete roll", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleRolls, id, "Deleted roll "+id)
	response.NoContent(w)
}
