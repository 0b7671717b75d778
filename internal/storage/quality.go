package storage

import (
	"context"
	"database/sql"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Quality check types ---

const checkTypeCols = "id, name, description, checklist_items, parameters, target_stage, is_active"

func scanCheckType(sc scanner) (models.QualityCheckType, error) {
	var ct models.QualityCheckType
	var checklist, params string
	err := sc.Scan(&ct.ID, &ct.Name, &ct.Description, &checklist, &params, &ct.TargetStage, &ct.IsActive)
	ct.ChecklistItems = DecodeList(checklist)
	ct.Parameters = DecodeList(params)
	return ct, err
}

func (s *Store) ListQualityCheckTypes(ctx context.Context) ([]models.QualityCheckType, error) {
	return queryList(ctx, s.q, scanCheckType, "SELECT "+checkTypeCols+" FROM quality_check_types ORDER BY name")
}

func (s *Store) GetQualityCheckType(ctx context.Context, id string) (models.QualityCheckType, error) {
	return queryOne(ctx, s.q, scanCheckType, "SELECT "+checkTypeCols+" FROM quality_check_types WHERE id = ?", id)
}

func (s *Store) CreateQualityCheckType(ctx context.Context, ct *models.QualityCheckType) error {
	_, err := s.exec(ctx, `INSERT INTO quality_check_types (id, name, description, checklist_items, parameters, target_stage, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ct.ID, ct.Name, ct.Description, EncodeList(ct.ChecklistItems), EncodeList(ct.Parameters), ct.TargetStage, boolInt(ct.IsActive))
	return err
}

func (s *Store) UpdateQualityCheckType(ctx context.Context, ct *models.QualityCheckType) error {
	return s.execOne(ctx, `UPDATE quality_check_types SET name = ?, description = ?, checklist_items = ?, parameters = ?,
		target_stage = ?, is_active = ? WHERE id = ?`,
		ct.Name, ct.Description, EncodeList(ct.ChecklistItems), EncodeList(ct.Parameters), ct.TargetStage, boolInt(ct.IsActive), ct.ID)
}

func (s *Store) DeleteQualityCheckType(ctx context.Context, id string) error {
	return s.deleteGuarded(ctx, "quality_check_types", id, "quality_checks", "check_type_id")
}

// --- Quality checks ---

const checkCols = `id, check_type_id, roll_id, job_order_id, checked_by, status, notes, checklist_results,
	parameter_values, issue_severity, image_urls, checked_at`

func scanCheck(sc scanner) (models.QualityCheck, error) {
	var c models.QualityCheck
	var roll sql.NullString
	var jobOrder, checkedBy sql.NullInt64
	err := sc.Scan(&c.ID, &c.CheckTypeID, &roll, &jobOrder, &checkedBy, &c.Status, &c.Notes, &c.ChecklistResults,
		&c.ParameterValues, &c.IssueSeverity, &c.ImageURLs, &c.CheckedAt)
	c.RollID = stringPtr(roll)
	c.JobOrderID = intPtr(jobOrder)
	c.CheckedBy = intPtr(checkedBy)
	return c, err
}

func (s *Store) ListQualityChecks(ctx context.Context) ([]models.QualityCheck, error) {
	return queryList(ctx, s.q, scanCheck, "SELECT "+checkCols+" FROM quality_checks ORDER BY checked_at DESC, id DESC")
}

func (s *Store) ListQualityChecksByRoll(ctx context.Context, rollID string) ([]models.QualityCheck, error) {
	return queryList(ctx, s.q, scanCheck, "SELECT "+checkCols+" FROM quality_checks WHERE roll_id = ? ORDER BY id", rollID)
}

func (s *Store) ListQualityChecksByJobOrder(ctx context.Context, jobOrderID int64) ([]models.QualityCheck, error) {
	return queryList(ctx, s.q, scanCheck, "SELECT "+checkCols+" FROM quality_checks WHERE job_order_id = ? ORDER BY id", jobOrderID)
}

func (s *Store) GetQualityCheck(ctx context.Context, id int64) (models.QualityCheck, error) {
	return queryOne(ctx, s.q, scanCheck, "SELECT "+checkCols+" FROM quality_checks WHERE id = ?", id)
}

func (s *Store) CreateQualityCheck(ctx context.Context, c *models.QualityCheck) error {
	if c.CheckedAt == "" {
		c.CheckedAt = now()
	}
	id, err := s.insert(ctx, `INSERT INTO quality_checks (check_type_id, roll_id, job_order_id, checked_by, status, notes,
		checklist_results, parameter_values, issue_severity, image_urls, checked_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CheckTypeID, nullString(c.RollID), nullInt(c.JobOrderID), nullInt(c.CheckedBy), c.Status, c.Notes,
		c.ChecklistResults, c.ParameterValues, c.IssueSeverity, c.ImageURLs, c.CheckedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) UpdateQualityCheck(ctx context.Context, c *models.QualityCheck) error {
	return s.execOne(ctx, `UPDATE quality_checks SET check_type_id = ?, roll_id = ?, job_order_id = ?, checked_by = ?,
		status = ?, notes = ?, checklist_results = ?, parameter_values = ?, issue_severity = ?, image_urls = ?, checked_at = ?
		WHERE id = ?`,
		c.CheckTypeID, nullString(c.RollID), nullInt(c.JobOrderID), nullInt(c.CheckedBy), c.Status, c.Notes,
		c.ChecklistResults, c.ParameterValues, c.IssueSeverity, c.ImageURLs, c.CheckedAt, c.ID)
}

func (s *Store) DeleteQualityCheck(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "quality_checks", id)
}

// --- Corrective actions ---

const correctiveCols = `id, quality_check_id, action, implemented_by, implementation_date, verified_by, verified_date, status, notes`

func scanCorrective(sc scanner) (models.CorrectiveAction, error) {
	var a models.CorrectiveAction
	var implBy, verBy sql.NullInt64
	err := sc.Scan(&a.ID, &a.QualityCheckID, &a.Action, &implBy, &a.ImplementationDate, &verBy, &a.VerifiedDate, &a.Status, &a.Notes)
	a.ImplementedBy = intPtr(implBy)
	a.VerifiedBy = intPtr(verBy)
	return a, err
}

func (s *Store) ListCorrectiveActions(ctx context.Context) ([]models.CorrectiveAction, error) {
	return queryList(ctx, s.q, scanCorrective, "SELECT "+correctiveCols+" FROM corrective_actions ORDER BY id DESC")
}

func (s *Store) ListCorrectiveActionsByCheck(ctx context.Context, checkID int64) ([]models.CorrectiveAction, error) {
	return queryList(ctx, s.q, scanCorrective, "SELECT "+correctiveCols+" FROM corrective_actions WHERE quality_check_id = ? ORDER BY id", checkID)
}

func (s *Store) GetCorrectiveAction(ctx context.Context, id int64) (models.CorrectiveAction, error) {
	return queryOne(ctx, s.q, scanCorrective, "SELECT "+correctiveCols+" FROM corrective_actions WHERE id = ?", id)
}

func (s *Store) CreateCorrectiveAction(ctx context.Context, a *models.CorrectiveAction) error {
	if a.Status == "" {
		a.Status = "open"
	}
	id, err := s.insert(ctx, `INSERT INTO corrective_actions (quality_check_id, action, implemented_by, implementation_date,
		verified_by, verified_date, status, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.QualityCheckID, a.Action, nullInt(a.ImplementedBy), a.ImplementationDate, nullInt(a.VerifiedBy), a.VerifiedDate, a.Status, a.Notes)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (s *Store) UpdateCorrectiveAction(ctx context.Context, a *models.CorrectiveAction) error {
	return s.execOne(ctx, `UPDATE corrective_actions SET quality_check_id = ?, action = ?, implemented_by = ?,
		implementation_date = ?, verified_by = ?, verified_date = ?, status = ?, notes = ? WHERE id = ?`,
		a.QualityCheckID, a.Action, nullInt(a.ImplementedBy), a.ImplementationDate, nullInt(a.VerifiedBy), a.VerifiedDate,
		a.Status, a.Notes, a.ID)
}

func (s *Store) DeleteCorrectiveAction(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "corrective_actions", id)
}

// --- Quality violations ---

const violationCols = `id, quality_check_id, reported_by, violation_type, severity, description, affected_area,
	report_date, status, resolution_notes, resolved_date`

func scanViolation(sc scanner) (models.QualityViolation, error) {
	var v models.QualityViolation
	var check sql.NullInt64
	err := sc.Scan(&v.ID, &check, &v.ReportedBy, &v.ViolationType, &v.Severity, &v.Description, &v.AffectedArea,
		&v.ReportDate, &v.Status, &v.ResolutionNotes, &v.ResolvedDate)
	v.QualityCheckID = intPtr(check)
	return v, err
}

func (s *Store) ListQualityViolations(ctx context.Context) ([]models.QualityViolation, error) {
	return queryList(ctx, s.q, scanViolation, "SELECT "+violationCols+" FROM quality_violations ORDER BY report_date DESC, id DESC")
}

func (s *Store) GetQualityViolation(ctx context.Context, id int64) (models.QualityViolation, error) {
	return queryOne(ctx, s.q, scanViolation, "SELECT "+violationCols+" FROM quality_violations WHERE id = ?", id)
}

func (s *Store) CreateQualityViolation(ctx context.Context, v *models.QualityViolation) error {
	if v.Status == "" {
		v.Status = "open"
	}
	if v.ReportDate == "" {
		v.ReportDate = now()
	}
	id, err := s.insert(ctx, `INSERT INTO quality_violations (quality_check_id, reported_by, violation_type, severity, description,
		affected_area, report_date, status, resolution_notes, resolved_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt(v.QualityCheckID), v.ReportedBy, v.ViolationType, v.Severity, v.Description, v.AffectedArea,
		v.ReportDate, v.Status, v.ResolutionNotes, v.ResolvedDate)
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (s *Store) UpdateQualityViolation(ctx context.Context, v *models.QualityViolation) error {
	return s.execOne(ctx, `UPDATE quality_violations SET quality_check_id = ?, reported_by = ?, violation_type = ?, severity = ?,
		description = ?, affected_area = ?, status = ?, resolution_notes = ?, resolved_date = ? WHERE id = ?`,
		nullInt(v.QualityCheckID), v.ReportedBy, v.ViolationType, v.Severity, v.Description, v.AffectedArea,
		v.Status, v.ResolutionNotes, v.ResolvedDate, v.ID)
}

func (s *Store) DeleteQualityViolation(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "quality_violations", id)
}

// --- Quality penalties ---

const penaltyCols = `id, violation_id, assigned_to, assigned_by, penalty_type, amount, currency, description,
	start_date, end_date, status, comments`

func scanPenalty(sc scanner) (models.QualityPenalty, error) {
	var p models.QualityPenalty
	err := sc.Scan(&p.ID, &p.ViolationID, &p.AssignedTo, &p.AssignedBy, &p.PenaltyType, &p.Amount, &p.Currency,
		&p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.Comments)
	return p, err
}

func (s *Store) ListQualityPenalties(ctx context.Context) ([]models.QualityPenalty, error) {
	return queryList(ctx, s.q, scanPenalty, "SELECT "+penaltyCols+" FROM quality_penalties ORDER BY id DESC")
}

func (s *Store) ListQualityPenaltiesByViolation(ctx context.Context, violationID int64) ([]models.QualityPenalty, error) {
	return queryList(ctx, s.q, scanPenalty, "SELECT "+penaltyCols+" FROM quality_penalties WHERE violation_id = ? ORDER BY id", violationID)
}

func (s *Store) GetQualityPenalty(ctx context.Context, id int64) (models.QualityPenalty, error) {
	return queryOne(ctx, s.q, scanPenalty, "SELECT "+penaltyCols+" FROM quality_penalties WHERE id = ?", id)
}

func (s *Store) CreateQualityPenalty(ctx context.Context, p *models.QualityPenalty) error {
	if p.Status == "" {
		p.Status = "pending"
	}
	if p.Currency == "" {
		p.Currency = "SAR"
	}
	id, err := s.insert(ctx, `INSERT INTO quality_penalties (violation_id, assigned_to, assigned_by, penalty_type, amount, currency,
		description, start_date, end_date, status, comments) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ViolationID, p.AssignedTo, p.AssignedBy, p.PenaltyType, p.Amount, p.Currency, p.Description,
		p.StartDate, p.EndDate, p.Status, p.Comments)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdateQualityPenalty(ctx context.Context, p *models.QualityPenalty) error {
	return s.execOne(ctx, `UPDATE quality_penalties SET violation_id = ?, assigned_to = ?, assigned_by = ?, penalty_type = ?,
		amount = ?, currency = ?, description = ?, start_date = ?, end_date = ?, status = ?, comments = ? WHERE id = ?`,
		p.ViolationID, p.AssignedTo, p.AssignedBy, p.PenaltyType, p.Amount, p.Currency, p.Description,
		p.StartDate, p.EndDate, p.Status, p.Comments, p.ID)
}

func (s *Store) DeleteQualityPenalty(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "quality_penalties", id)
}
