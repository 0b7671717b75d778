package quality

import (
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// QualityCheckView is a quality check as the API sees it. The row keeps
// checked_by, checked_at and the list fields as JSON text.
type QualityCheckView struct {
	ID               int64    `json:"id"`
	CheckTypeID      string   `json:"check_type_id" validate:"required"`
	RollID           *string  `json:"roll_id"`
	JobOrderID       *int64   `json:"job_order_id"`
	PerformedBy      *int64   `json:"performed_by"`
	Status           string   `json:"status" validate:"required,quality_check_status"`
	Notes            string   `json:"notes" validate:"max=2000"`
	ChecklistResults []string `json:"checklist_results"`
	ParameterValues  []string `json:"parameter_values"`
	IssueSeverity    string   `json:"issue_severity" validate:"omitempty,violation_severity"`
	ImageURLs        []string `json:"image_urls" validate:"omitempty,dive,url"`
	Timestamp        string   `json:"timestamp"`
}

func toView(c models.QualityCheck) QualityCheckView {
	return QualityCheckView{
		ID:               c.ID,
		CheckTypeID:      c.CheckTypeID,
		RollID:           c.RollID,
		JobOrderID:       c.JobOrderID,
		PerformedBy:      c.CheckedBy,
		Status:           c.Status,
		Notes:            c.Notes,
		ChecklistResults: storage.DecodeList(c.ChecklistResults),
		ParameterValues:  storage.DecodeList(c.ParameterValues),
		IssueSeverity:    c.IssueSeverity,
		ImageURLs:        storage.DecodeList(c.ImageURLs),
		Timestamp:        c.CheckedAt,
	}
}

func toViews(list []models.QualityCheck) []QualityCheckView {
	out := make([]QualityCheckView, 0, len(list))
	for _, c := range list {
		out = append(out, toView(c))
	}
	return out
}

func toRow(v QualityCheckView) models.QualityCheck {
	return models.QualityCheck{
		ID:               v.ID,
		CheckTypeID:      v.CheckTypeID,
		RollID:           v.RollID,
		JobOrderID:       v.JobOrderID,
		CheckedBy:        v.PerformedBy,
		Status:           v.Status,
		Notes:            v.Notes,
		ChecklistResults: storage.EncodeList(v.ChecklistResults),
		ParameterValues:  storage.EncodeList(v.ParameterValues),
		IssueSeverity:    v.IssueSeverity,
		ImageURLs:        storage.EncodeList(v.ImageURLs),
		CheckedAt:        v.Timestamp,
	}
}
