package notifications

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListSmsTemplates(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get SMS templates", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Store.GetSmsTemplate(r.Context(), id)
	if !common.Found(w, h.Log, "SMS template", err) {
		return
	}
	response.OK(w, t)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.SmsTemplate
	if !response.Decode(w, r, &t) {
		return
	}
	ctx := r.Context()
	t.CreatedBy = auth.UserID(ctx)
	if err := h.Store.CreateSmsTemplate(ctx, &t); err != nil {
		response.StoreErr(w, h.Log, "SMS template", "create SMS template", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleSMS, t.ID,
		fmt.Sprintf("Created SMS template %s for %s", t.Name, t.MessageType))
	response.Created(w, t)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var t models.SmsTemplate
	if !common.DecodeUpdate(w, r, &t, func() { t.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetSmsTemplate(ctx, id)
	if !common.Found(w, h.Log, "SMS template", err) {
		return
	}
	t.CreatedBy = existing.CreatedBy
	if err := h.Store.UpdateSmsTemplate(ctx, &t); err != nil {
		response.StoreErr(w, h.Log, "SMS template", "update SMS template", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleSMS, id, "Updated SMS template "+t.Name)
	response.OK(w, t)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteSmsTemplate(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "SMS template", "delete SMS template", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleSMS, id, "Deleted SMS template "+id)
	response.NoContent(w)
}
