package hr

import (
	"fmt"
	"net/http"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

func sanitizeComplaint(c *models.HrComplaint) {
	c.Subject = validation.SanitizeText(c.Subject)
	c.Description = validation.SanitizeText(c.Description)
	c.Resolution = validation.SanitizeText(c.Resolution)
}

// hideComplainant blanks the complainant of anonymous complaints for
// everyone but administrators.
func hideComplainant(r *http.Request, c *models.HrComplaint) {
	if !c.IsAnonymous {
		return
	}
	if u, ok := auth.UserFrom(r.Context()); ok && u.IsAdmin {
		return
	}
	c.ComplainantID = 0
}

func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListHrComplaints(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get HR complaints", err)
		return
	}
	for i := range list {
		hideComplainant(r, &list[i])
	}
	response.OK(w, list)
}

func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetHrComplaint(r.Context(), id)
	if !common.Found(w, h.Log, "HR complaint", err) {
		return
	}
	hideComplainant(r, &c)
	response.OK(w, c)
}

// CreateComplaint files a complaint on behalf of the session user.
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var c models.HrComplaint
	if !response.Decode(w, r, &c) {
		return
	}
	if !h.checkUsers(w, r, c.AgainstUserID, c.AssignedTo) {
		return
	}
	sanitizeComplaint(&c)
	if c.Description == "" {
		response.Err(w, "Description is empty after removing markup", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	c.ComplainantID = currentUser(r)
	c.ResolvedDate = ""
	if err := h.Store.CreateHrComplaint(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "HR complaint", "create HR complaint", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleHR, c.ID, fmt.Sprintf("Filed %s complaint: %s", c.Priority, c.Subject))
	hideComplainant(r, &c)
	response.Created(w, c)
}

// UpdateComplaint stamps resolved_date the first time the complaint is
// resolved or closed.
func (h *Handler) UpdateComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var c models.HrComplaint
	if !common.DecodeUpdate(w, r, &c, func() { c.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetHrComplaint(ctx, id)
	if !common.Found(w, h.Log, "HR complaint", err) {
		return
	}
	if !h.checkUsers(w, r, c.AgainstUserID, c.AssignedTo) {
		return
	}
	sanitizeComplaint(&c)
	c.ComplainantID = existing.ComplainantID
	c.SubmittedDate = existing.SubmittedDate
	if c.Status == "" {
		c.Status = existing.Status
	}
	if c.Priority == "" {
		c.Priority = existing.Priority
	}
	if c.ResolvedDate == "" {
		c.ResolvedDate = existing.ResolvedDate
	}
	if (c.Status == "resolved" || c.Status == "closed") && c.ResolvedDate == "" {
		c.ResolvedDate = time.Now().Format(models.TimeLayout)
	}
	if err := h.Store.UpdateHrComplaint(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "HR complaint", "update HR complaint", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleHR, id, fmt.Sprintf("Complaint %d now %s", id, c.Status))
	hideComplainant(r, &c)
	response.OK(w, c)
}

func (h *Handler) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteHrComplaint(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "HR complaint", "delete HR complaint", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleHR, id, fmt.Sprintf("Deleted complaint %d", id))
	response.NoContent(w)
}
