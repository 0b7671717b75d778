package storage

import (
	"context"
	"database/sql"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Time attendance ---

const attendanceCols = `id, user_id, date, check_in_time, check_out_time, check_in_location, check_out_location,
	working_hours, overtime_hours, status, notes`

func scanAttendance(sc scanner) (models.TimeAttendance, error) {
	var a models.TimeAttendance
	var in, out sql.NullString
	err := sc.Scan(&a.ID, &a.UserID, &a.Date, &in, &out, &a.CheckInLocation, &a.CheckOutLocation,
		&a.WorkingHours, &a.OvertimeHours, &a.Status, &a.Notes)
	a.CheckInTime = stringPtr(in)
	a.CheckOutTime = stringPtr(out)
	return a, err
}

func (s *Store) ListTimeAttendance(ctx context.Context) ([]models.TimeAttendance, error) {
	return queryList(ctx, s.q, scanAttendance, "SELECT "+attendanceCols+" FROM time_attendance ORDER BY date DESC, id DESC")
}

func (s *Store) ListTimeAttendanceByUser(ctx context.Context, userID int64) ([]models.TimeAttendance, error) {
	return queryList(ctx, s.q, scanAttendance, "SELECT "+attendanceCols+" FROM time_attendance WHERE user_id = ? ORDER BY date DESC", userID)
}

func (s *Store) GetTimeAttendance(ctx context.Context, id int64) (models.TimeAttendance, error) {
	return queryOne(ctx, s.q, scanAttendance, "SELECT "+attendanceCols+" FROM time_attendance WHERE id = ?", id)
}

// GetTimeAttendanceForDay returns the user's record for date (YYYY-MM-DD).
func (s *Store) GetTimeAttendanceForDay(ctx context.Context, userID int64, date string) (models.TimeAttendance, error) {
	return queryOne(ctx, s.q, scanAttendance, "SELECT "+attendanceCols+" FROM time_attendance WHERE user_id = ? AND date = ?", userID, date)
}

func (s *Store) CreateTimeAttendance(ctx context.Context, a *models.TimeAttendance) error {
	if a.Status == "" {
		a.Status = "present"
	}
	id, err := s.insert(ctx, `INSERT INTO time_attendance (user_id, date, check_in_time, check_out_time, check_in_location,
		check_out_location, working_hours, overtime_hours, status, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Date, nullString(a.CheckInTime), nullString(a.CheckOutTime), a.CheckInLocation, a.CheckOutLocation,
		a.WorkingHours, a.OvertimeHours, a.Status, a.Notes)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (s *Store) UpdateTimeAttendance(ctx context.Context, a *models.TimeAttendance) error {
	return s.execOne(ctx, `UPDATE time_attendance SET user_id = ?, date = ?, check_in_time = ?, check_out_time = ?,
		check_in_location = ?, check_out_location = ?, working_hours = ?, overtime_hours = ?, status = ?, notes = ?
		WHERE id = ?`,
		a.UserID, a.Date, nullString(a.CheckInTime), nullString(a.CheckOutTime), a.CheckInLocation, a.CheckOutLocation,
		a.WorkingHours, a.OvertimeHours, a.Status, a.Notes, a.ID)
}

func (s *Store) DeleteTimeAttendance(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "time_attendance", id)
}

// --- Employee of the month ---

const eomCols = `id, user_id, month, year, obligation_points, quality_score, attendance_score, productivity_score,
	total_score, rank, reward, reward_type, notes`

func scanEom(sc scanner) (models.EmployeeOfMonth, error) {
	var e models.EmployeeOfMonth
	err := sc.Scan(&e.ID, &e.UserID, &e.Month, &e.Year, &e.ObligationPoints, &e.QualityScore, &e.AttendanceScore,
		&e.ProductivityScore, &e.TotalScore, &e.Rank, &e.Reward, &e.RewardType, &e.Notes)
	return e, err
}

func (s *Store) ListEmployeeOfMonth(ctx context.Context) ([]models.EmployeeOfMonth, error) {
	return queryList(ctx, s.q, scanEom, "SELECT "+eomCols+" FROM employee_of_month ORDER BY year DESC, month DESC, rank")
}

func (s *Store) ListEmployeeOfMonthByPeriod(ctx context.Context, year, month int) ([]models.EmployeeOfMonth, error) {
	return queryList(ctx, s.q, scanEom,
		"SELECT "+eomCols+" FROM employee_of_month WHERE year = ? AND month = ? ORDER BY total_score DESC, rank", year, month)
}

func (s *Store) GetEmployeeOfMonth(ctx context.Context, id int64) (models.EmployeeOfMonth, error) {
	return queryOne(ctx, s.q, scanEom, "SELECT "+eomCols+" FROM employee_of_month WHERE id = ?", id)
}

func (s *Store) CreateEmployeeOfMonth(ctx context.Context, e *models.EmployeeOfMonth) error {
	id, err := s.insert(ctx, `INSERT INTO employee_of_month (user_id, month, year, obligation_points, quality_score,
		attendance_score, productivity_score, total_score, rank, reward, reward_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Month, e.Year, e.ObligationPoints, e.QualityScore, e.AttendanceScore, e.ProductivityScore,
		e.TotalScore, e.Rank, e.Reward, e.RewardType, e.Notes)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (s *Store) UpdateEmployeeOfMonth(ctx context.Context, e *models.EmployeeOfMonth) error {
	return s.execOne(ctx, `UPDATE employee_of_month SET user_id = ?, month = ?, year = ?, obligation_points = ?,
		quality_score = ?, attendance_score = ?, productivity_score = ?, total_score = ?, rank = ?, reward = ?,
		reward_type = ?, notes = ? WHERE id = ?`,
		e.UserID, e.Month, e.Year, e.ObligationPoints, e.QualityScore, e.AttendanceScore, e.ProductivityScore,
		e.TotalScore, e.Rank, e.Reward, e.RewardType, e.Notes, e.ID)
}

func (s *Store) DeleteEmployeeOfMonth(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "employee_of_month", id)
}

// --- HR violations ---

const hrViolationCols = `id, user_id, violation_type, severity, description, action_taken, reported_by, date, status, resolution_notes`

func scanHrViolation(sc scanner) (models.HrViolation, error) {
	var v models.HrViolation
	err := sc.Scan(&v.ID, &v.UserID, &v.ViolationType, &v.Severity, &v.Description, &v.ActionTaken, &v.ReportedBy,
		&v.Date, &v.Status, &v.ResolutionNotes)
	return v, err
}

func (s *Store) ListHrViolations(ctx context.Context) ([]models.HrViolation, error) {
	return queryList(ctx, s.q, scanHrViolation, "SELECT "+hrViolationCols+" FROM hr_violations ORDER BY date DESC, id DESC")
}

func (s *Store) ListHrViolationsByUser(ctx context.Context, userID int64) ([]models.HrViolation, error) {
	return queryList(ctx, s.q, scanHrViolation, "SELECT "+hrViolationCols+" FROM hr_violations WHERE user_id = ? ORDER BY date DESC", userID)
}

func (s *Store) GetHrViolation(ctx context.Context, id int64) (models.HrViolation, error) {
	return queryOne(ctx, s.q, scanHrViolation, "SELECT "+hrViolationCols+" FROM hr_violations WHERE id = ?", id)
}

func (s *Store) CreateHrViolation(ctx context.Context, v *models.HrViolation) error {
	if v.Status == "" {
		v.Status = "open"
	}
	if v.Date == "" {
		v.Date = today()
	}
	id, err := s.insert(ctx, `INSERT INTO hr_violations (user_id, violation_type, severity, description, action_taken,
		reported_by, date, status, resolution_notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.UserID, v.ViolationType, v.Severity, v.Description, v.ActionTaken, v.ReportedBy, v.Date, v.Status, v.ResolutionNotes)
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (s *Store) UpdateHrViolation(ctx context.Context, v *models.HrViolation) error {
	return s.execOne(ctx, `UPDATE hr_violations SET user_id = ?, violation_type = ?, severity = ?, description = ?,
		action_taken = ?, date = ?, status = ?, resolution_notes = ? WHERE id = ?`,
		v.UserID, v.ViolationType, v.Severity, v.Description, v.ActionTaken, v.Date, v.Status, v.ResolutionNotes, v.ID)
}

func (s *Store) DeleteHrViolation(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "hr_violations", id)
}

// --- HR complaints ---

const complaintCols = `id, complainant_id, against_user_id, complaint_type, subject, description, priority, status,
	assigned_to, resolution, is_anonymous, submitted_date, resolved_date`

func scanComplaint(sc scanner) (models.HrComplaint, error) {
	var c models.HrComplaint
	var against, assigned sql.NullInt64
	err := sc.Scan(&c.ID, &c.ComplainantID, &against, &c.ComplaintType, &c.Subject, &c.Description, &c.Priority,
		&c.Status, &assigned, &c.Resolution, &c.IsAnonymous, &c.SubmittedDate, &c.ResolvedDate)
	c.AgainstUserID = intPtr(against)
	c.AssignedTo = intPtr(assigned)
	return c, err
}

func (s *Store) ListHrComplaints(ctx context.Context) ([]models.HrComplaint, error) {
	return queryList(ctx, s.q, scanComplaint, "SELECT "+complaintCols+" FROM hr_complaints ORDER BY submitted_date DESC, id DESC")
}

func (s *Store) GetHrComplaint(ctx context.Context, id int64) (models.HrComplaint, error) {
	return queryOne(ctx, s.q, scanComplaint, "SELECT "+complaintCols+" FROM hr_complaints WHERE id = ?", id)
}

func (s *Store) CreateHrComplaint(ctx context.Context, c *models.HrComplaint) error {
	if c.Status == "" {
		c.Status = "submitted"
	}
	if c.Priority == "" {
		c.Priority = "medium"
	}
	c.SubmittedDate = now()
	id, err := s.insert(ctx, `INSERT INTO hr_complaints (complainant_id, against_user_id, complaint_type, subject, description,
		priority, status, assigned_to, resolution, is_anonymous, submitted_date, resolved_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ComplainantID, nullInt(c.AgainstUserID), c.ComplaintType, c.Subject, c.Description, c.Priority, c.Status,
		nullInt(c.AssignedTo), c.Resolution, boolInt(c.IsAnonymous), c.SubmittedDate, c.ResolvedDate)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) UpdateHrComplaint(ctx context.Context, c *models.HrComplaint) error {
	return s.execOne(ctx, `UPDATE hr_complaints SET against_user_id = ?, complaint_type = ?, subject = ?, description = ?,
		priority = ?, status = ?, assigned_to = ?, resolution = ?, is_anonymous = ?, resolved_date = ? WHERE id = ?`,
		nullInt(c.AgainstUserID), c.ComplaintType, c.Subject, c.Description, c.Priority, c.Status, nullInt(c.AssignedTo),
		c.Resolution, boolInt(c.IsAnonymous), c.ResolvedDate, c.ID)
}

func (s *Store) DeleteHrComplaint(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "hr_complaints", id)
}
