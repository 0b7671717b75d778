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

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListSmsNotificationRules(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get SMS notification rules", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	rule, err := h.Store.GetSmsNotificationRule(r.Context(), id)
	if !common.Found(w, h.Log, "SMS notification rule", err) {
		return
	}
	response.OK(w, rule)
}

func (h *Handler) checkTemplate(w http.ResponseWriter, r *http.Request, rule *models.SmsNotificationRule) bool {
	if rule.TemplateID == nil || *rule.TemplateID == "" {
		return true
	}
	_, err := h.Store.GetSmsTemplate(r.Context(), *rule.TemplateID)
	return common.Found(w, h.Log, "SMS template", err)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.SmsNotificationRule
	if !response.Decode(w, r, &rule) {
		return
	}
	if !h.checkTemplate(w, r, &rule) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateSmsNotificationRule(ctx, &rule); err != nil {
		response.StoreErr(w, h.Log, "SMS notification rule", "create SMS notification rule", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleSMS, rule.ID,
		fmt.Sprintf("Created rule %s on %s", rule.Name, rule.TriggerEvent))
	response.Created(w, rule)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var rule models.SmsNotificationRule
	if !common.DecodeUpdate(w, r, &rule, func() { rule.ID = id }) {
		return
	}
	if !h.checkTemplate(w, r, &rule) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateSmsNotificationRule(ctx, &rule); err != nil {
		response.StoreErr(w, h.Log, "SMS notification rule", "update SMS notification rule", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleSMS, id, "Updated rule "+rule.Name)
	response.OK(w, rule)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteSmsNotificationRule(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "SMS notification rule", "delete SMS notification rule", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleSMS, id, fmt.Sprintf("Deleted rule %d", id))
	response.NoContent(w)
}
