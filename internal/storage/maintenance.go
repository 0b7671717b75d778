package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Maintenance requests ---

const maintRequestCols = `id, request_number, machine_id, damage_type, severity, description, reported_by, status, priority,
	assigned_technician, estimated_repair_time, actual_repair_time, notes, created_at, completed_at`

func scanMaintRequest(sc scanner) (models.MaintenanceRequest, error) {
	var r models.MaintenanceRequest
	var reported, tech sql.NullInt64
	var completed sql.NullString
	err := sc.Scan(&r.ID, &r.RequestNumber, &r.MachineID, &r.DamageType, &r.Severity, &r.Description, &reported,
		&r.Status, &r.Priority, &tech, &r.EstimatedRepairTime, &r.ActualRepairTime, &r.Notes, &r.CreatedAt, &completed)
	r.ReportedBy = intPtr(reported)
	r.AssignedTechnician = intPtr(tech)
	r.CompletedAt = stringPtr(completed)
	return r, err
}

func (s *Store) ListMaintenanceRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	return queryList(ctx, s.q, scanMaintRequest, "SELECT "+maintRequestCols+" FROM maintenance_requests ORDER BY id DESC")
}

func (s *Store) GetMaintenanceRequest(ctx context.Context, id int64) (models.MaintenanceRequest, error) {
	return queryOne(ctx, s.q, scanMaintRequest, "SELECT "+maintRequestCols+" FROM maintenance_requests WHERE id = ?", id)
}

// nextRequestNumber returns MR-YYYYMMDD-NNN, one past the highest number
// issued that day.
func (s *Store) nextRequestNumber(ctx context.Context, day time.Time) (string, error) {
	prefix := "MR-" + day.Format("20060102") + "-"
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(CAST(substr(request_number, ?) AS INTEGER)), 0)
		FROM maintenance_requests WHERE request_number LIKE ?`, len(prefix)+1, prefix+"%").Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}

// CreateMaintenanceRequest assigns the request number and defaults.
func (s *Store) CreateMaintenanceRequest(ctx context.Context, r *models.MaintenanceRequest) error {
	return s.WithTx(ctx, func(tx *Store) error {
		num, err := tx.nextRequestNumber(ctx, time.Now())
		if err != nil {
			return err
		}
		r.RequestNumber = num
		if r.Status == "" {
			r.Status = "pending"
		}
		if r.Priority == 0 {
			r.Priority = 2
		}
		r.CreatedAt = now()
		id, err := tx.insert(ctx, `INSERT INTO maintenance_requests (request_number, machine_id, damage_type, severity,
			description, reported_by, status, priority, assigned_technician, estimated_repair_time, actual_repair_time,
			notes, created_at, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RequestNumber, r.MachineID, r.DamageType, r.Severity, r.Description, nullInt(r.ReportedBy), r.Status,
			r.Priority, nullInt(r.AssignedTechnician), r.EstimatedRepairTime, r.ActualRepairTime, r.Notes, r.CreatedAt,
			nullString(r.CompletedAt))
		if err != nil {
			return err
		}
		r.ID = id
		return nil
	})
}

// UpdateMaintenanceRequest stamps completed_at the first time the request
// reaches completed.
func (s *Store) UpdateMaintenanceRequest(ctx context.Context, r *models.MaintenanceRequest) error {
	if r.Status == "completed" && r.CompletedAt == nil {
		ts := now()
		r.CompletedAt = &ts
	}
	return s.execOne(ctx, `UPDATE maintenance_requests SET machine_id = ?, damage_type = ?, severity = ?, description = ?,
		status = ?, priority = ?, assigned_technician = ?, estimated_repair_time = ?, actual_repair_time = ?, notes = ?,
		completed_at = ? WHERE id = ?`,
		r.MachineID, r.DamageType, r.Severity, r.Description, r.Status, r.Priority, nullInt(r.AssignedTechnician),
		r.EstimatedRepairTime, r.ActualRepairTime, r.Notes, nullString(r.CompletedAt), r.ID)
}

func (s *Store) DeleteMaintenanceRequest(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "maintenance_requests", id)
}

// --- Maintenance actions ---

const maintActionCols = `id, request_id, machine_id, action_type, part_replaced, description, performed_by, hours, cost, status, action_date`

func scanMaintAction(sc scanner) (models.MaintenanceAction, error) {
	var a models.MaintenanceAction
	var performed sql.NullInt64
	err := sc.Scan(&a.ID, &a.RequestID, &a.MachineID, &a.ActionType, &a.PartReplaced, &a.Description, &performed,
		&a.Hours, &a.Cost, &a.Status, &a.ActionDate)
	a.PerformedBy = intPtr(performed)
	return a, err
}

func (s *Store) ListMaintenanceActions(ctx context.Context) ([]models.MaintenanceAction, error) {
	return queryList(ctx, s.q, scanMaintAction, "SELECT "+maintActionCols+" FROM maintenance_actions ORDER BY action_date DESC, id DESC")
}

func (s *Store) ListMaintenanceActionsByRequest(ctx context.Context, requestID int64) ([]models.MaintenanceAction, error) {
	return queryList(ctx, s.q, scanMaintAction, "SELECT "+maintActionCols+" FROM maintenance_actions WHERE request_id = ? ORDER BY id", requestID)
}

func (s *Store) GetMaintenanceAction(ctx context.Context, id int64) (models.MaintenanceAction, error) {
	return queryOne(ctx, s.q, scanMaintAction, "SELECT "+maintActionCols+" FROM maintenance_actions WHERE id = ?", id)
}

// closeRequestFor marks the request completed when a completed action is
// recorded against it, adding the action hours to the repair time.
func (s *Store) closeRequestFor(ctx context.Context, a *models.MaintenanceAction) error {
	if a.Status != "completed" {
		return nil
	}
	_, err := s.exec(ctx, `UPDATE maintenance_requests SET status = 'completed',
		actual_repair_time = actual_repair_time + ?, completed_at = COALESCE(completed_at, ?)
		WHERE id = ? AND status <> 'completed'`, a.Hours, now(), a.RequestID)
	return err
}

// CreateMaintenanceAction records an action. The machine defaults to the
// request's machine and a completed action closes the request.
func (s *Store) CreateMaintenanceAction(ctx context.Context, a *models.MaintenanceAction) error {
	return s.WithTx(ctx, func(tx *Store) error {
		req, err := tx.GetMaintenanceRequest(ctx, a.RequestID)
		if err != nil {
			return fmt.Errorf("maintenance request %d: %w", a.RequestID, err)
		}
		if a.MachineID == "" {
			a.MachineID = req.MachineID
		}
		if a.Status == "" {
			a.Status = "in_progress"
		}
		if a.ActionDate == "" {
			a.ActionDate = now()
		}
		id, err := tx.insert(ctx, `INSERT INTO maintenance_actions (request_id, machine_id, action_type, part_replaced,
			description, performed_by, hours, cost, status, action_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.RequestID, a.MachineID, a.ActionType, a.PartReplaced, a.Description, nullInt(a.PerformedBy), a.Hours, a.Cost,
			a.Status, a.ActionDate)
		if err != nil {
			return err
		}
		a.ID = id
		if req.Status == "pending" && a.Status == "in_progress" {
			if _, err := tx.exec(ctx, "UPDATE maintenance_requests SET status = 'in_progress' WHERE id = ?", a.RequestID); err != nil {
				return err
			}
		}
		return tx.closeRequestFor(ctx, a)
	})
}

func (s *Store) UpdateMaintenanceAction(ctx context.Context, a *models.MaintenanceAction) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if a.ActionDate == "" {
			a.ActionDate = now()
		}
		err := tx.execOne(ctx, `UPDATE maintenance_actions SET request_id = ?, machine_id = ?, action_type = ?,
			part_replaced = ?, description = ?, performed_by = ?, hours = ?, cost = ?, status = ?, action_date = ?
			WHERE id = ?`,
			a.RequestID, a.MachineID, a.ActionType, a.PartReplaced, a.Description, nullInt(a.PerformedBy), a.Hours,
			a.Cost, a.Status, a.ActionDate, a.ID)
		if err != nil {
			return err
		}
		return tx.closeRequestFor(ctx, a)
	})
}

func (s *Store) DeleteMaintenanceAction(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "maintenance_actions", id)
}

// --- Maintenance schedule ---

const scheduleCols = `id, machine_id, task_name, description, maintenance_type, frequency, last_completed, next_due,
	assigned_to, priority, estimated_hours, instructions, status`

func scanSchedule(sc scanner) (models.MaintenanceSchedule, error) {
	var m models.MaintenanceSchedule
	var last sql.NullString
	var assigned sql.NullInt64
	err := sc.Scan(&m.ID, &m.MachineID, &m.TaskName, &m.Description, &m.MaintenanceType, &m.Frequency, &last,
		&m.NextDue, &assigned, &m.Priority, &m.EstimatedHours, &m.Instructions, &m.Status)
	m.LastCompleted = stringPtr(last)
	m.AssignedTo = intPtr(assigned)
	return m, err
}

func (s *Store) ListMaintenanceSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	return queryList(ctx, s.q, scanSchedule, "SELECT "+scheduleCols+" FROM maintenance_schedule ORDER BY next_due, id")
}

func (s *Store) GetMaintenanceSchedule(ctx context.Context, id int64) (models.MaintenanceSchedule, error) {
	return queryOne(ctx, s.q, scanSchedule, "SELECT "+scheduleCols+" FROM maintenance_schedule WHERE id = ?", id)
}

func (s *Store) CreateMaintenanceSchedule(ctx context.Context, m *models.MaintenanceSchedule) error {
	if m.Status == "" {
		m.Status = "active"
	}
	if m.Priority == 0 {
		m.Priority = 2
	}
	id, err := s.insert(ctx, `INSERT INTO maintenance_schedule (machine_id, task_name, description, maintenance_type,
		frequency, last_completed, next_due, assigned_to, priority, estimated_hours, instructions, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MachineID, m.TaskName, m.Description, m.MaintenanceType, m.Frequency, nullString(m.LastCompleted), m.NextDue,
		nullInt(m.AssignedTo), m.Priority, m.EstimatedHours, m.Instructions, m.Status)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (s *Store) UpdateMaintenanceSchedule(ctx context.Context, m *models.MaintenanceSchedule) error {
	return s.execOne(ctx, `UPDATE maintenance_schedule SET machine_id = ?, task_name = ?, description = ?,
		maintenance_type = ?, frequency = ?, last_completed = ?, next_due = ?, assigned_to = ?, priority = ?,
		estimated_hours = ?, instructions = ?, status = ? WHERE id = ?`,
		m.MachineID, m.TaskName, m.Description, m.MaintenanceType, m.Frequency, nullString(m.LastCompleted), m.NextDue,
		nullInt(m.AssignedTo), m.Priority, m.EstimatedHours, m.Instructions, m.Status, m.ID)
}

func (s *Store) DeleteMaintenanceSchedule(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "maintenance_schedule", id)
}

// AdvanceDue moves a date forward by one schedule period.
func AdvanceDue(t time.Time, frequency string) time.Time {
	switch frequency {
	case "daily":
		return t.AddDate(0, 0, 1)
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "quarterly":
		return t.AddDate(0, 3, 0)
	case "yearly":
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// GenerateDueMaintenance opens a request for every active schedule due on or
// before asOf and rolls its next_due past asOf.
func (s *Store) GenerateDueMaintenance(ctx context.Context, asOf time.Time, reportedBy *int64) ([]models.MaintenanceRequest, error) {
	day := asOf.Format(models.DateLayout)
	created := []models.MaintenanceRequest{}
	err := s.WithTx(ctx, func(tx *Store) error {
		due, err := queryList(ctx, tx.q, scanSchedule,
			"SELECT "+scheduleCols+" FROM maintenance_schedule WHERE status = 'active' AND next_due <= ? ORDER BY next_due, id", day)
		if err != nil {
			return err
		}
		for _, sch := range due {
			req := models.MaintenanceRequest{
				MachineID:           sch.MachineID,
				DamageType:          "scheduled",
				Severity:            "low",
				Description:         sch.TaskName,
				ReportedBy:          reportedBy,
				Priority:            sch.Priority,
				AssignedTechnician:  sch.AssignedTo,
				EstimatedRepairTime: sch.EstimatedHours,
				Notes:               fmt.Sprintf("Generated from maintenance schedule %d", sch.ID),
			}
			if sch.Description != "" {
				req.Description = sch.TaskName + ": " + sch.Description
			}
			if err := tx.CreateMaintenanceRequest(ctx, &req); err != nil {
				return err
			}
			created = append(created, req)

			next, err := time.ParseInLocation(models.DateLayout, sch.NextDue, time.Local)
			if err != nil {
				next = asOf
			}
			for !next.After(asOf) {
				next = AdvanceDue(next, sch.Frequency)
			}
			if _, err := tx.exec(ctx, "UPDATE maintenance_schedule SET next_due = ? WHERE id = ?",
				next.Format(models.DateLayout), sch.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
