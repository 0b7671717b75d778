package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Modules ---

const moduleCols = "id, name, display_name, description, category, route, is_active"

func scanModule(sc scanner) (models.Module, error) {
	var m models.Module
	err := sc.Scan(&m.ID, &m.Name, &m.DisplayName, &m.Description, &m.Category, &m.Route, &m.IsActive)
	return m, err
}

func (s *Store) ListModules(ctx context.Context) ([]models.Module, error) {
	return queryList(ctx, s.q, scanModule, "SELECT "+moduleCols+" FROM modules ORDER BY category, name")
}

func (s *Store) GetModule(ctx context.Context, id int64) (models.Module, error) {
	return queryOne(ctx, s.q, scanModule, "SELECT "+moduleCols+" FROM modules WHERE id = ?", id)
}

func (s *Store) GetModuleByName(ctx context.Context, name string) (models.Module, error) {
	return queryOne(ctx, s.q, scanModule, "SELECT "+moduleCols+" FROM modules WHERE name = ?", name)
}

func (s *Store) CreateModule(ctx context.Context, m *models.Module) error {
	id, err := s.insert(ctx, `INSERT INTO modules (name, display_name, description, category, route, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`, m.Name, m.DisplayName, m.Description, m.Category, m.Route, boolInt(m.IsActive))
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// EnsureModule inserts a module by name when it is missing.
func (s *Store) EnsureModule(ctx context.Context, m *models.Module) error {
	_, err := s.exec(ctx, `INSERT OR IGNORE INTO modules (name, display_name, description, category, route, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`, m.Name, m.DisplayName, m.Description, m.Category, m.Route, boolInt(m.IsActive))
	return err
}

func (s *Store) UpdateModule(ctx context.Context, m *models.Module) error {
	return s.execOne(ctx, `UPDATE modules SET name = ?, display_name = ?, description = ?, category = ?, route = ?, is_active = ?
		WHERE id = ?`, m.Name, m.DisplayName, m.Description, m.Category, m.Route, boolInt(m.IsActive), m.ID)
}

func (s *Store) DeleteModule(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "modules", id)
}

// --- Permissions ---

const permissionCols = "id, section_id, module_id, can_view, can_create, can_edit, can_delete, is_active"

func scanPermission(sc scanner) (models.Permission, error) {
	var p models.Permission
	err := sc.Scan(&p.ID, &p.SectionID, &p.ModuleID, &p.CanView, &p.CanCreate, &p.CanEdit, &p.CanDelete, &p.IsActive)
	return p, err
}

func (s *Store) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return queryList(ctx, s.q, scanPermission, "SELECT "+permissionCols+" FROM permissions ORDER BY section_id, module_id")
}

func (s *Store) ListPermissionsBySection(ctx context.Context, sectionID string) ([]models.Permission, error) {
	return queryList(ctx, s.q, scanPermission, "SELECT "+permissionCols+" FROM permissions WHERE section_id = ? ORDER BY module_id", sectionID)
}

func (s *Store) GetPermission(ctx context.Context, id int64) (models.Permission, error) {
	return queryOne(ctx, s.q, scanPermission, "SELECT "+permissionCols+" FROM permissions WHERE id = ?", id)
}

func (s *Store) CreatePermission(ctx context.Context, p *models.Permission) error {
	id, err := s.insert(ctx, `INSERT INTO permissions (section_id, module_id, can_view, can_create, can_edit, can_delete, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, p.SectionID, p.ModuleID, boolInt(p.CanView), boolInt(p.CanCreate),
		boolInt(p.CanEdit), boolInt(p.CanDelete), boolInt(p.IsActive))
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *models.Permission) error {
	return s.execOne(ctx, `UPDATE permissions SET section_id = ?, module_id = ?, can_view = ?, can_create = ?, can_edit = ?,
		can_delete = ?, is_active = ? WHERE id = ?`, p.SectionID, p.ModuleID, boolInt(p.CanView), boolInt(p.CanCreate),
		boolInt(p.CanEdit), boolInt(p.CanDelete), boolInt(p.IsActive), p.ID)
}

func (s *Store) DeletePermission(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "permissions", id)
}

// PermissionGrant is an active permission row keyed by module name.
type PermissionGrant struct {
	SectionID string
	Module    string
	CanView   bool
	CanCreate bool
	CanEdit   bool
	CanDelete bool
}

// ListPermissionGrants returns every active grant on an active module.
func (s *Store) ListPermissionGrants(ctx context.Context) ([]PermissionGrant, error) {
	return queryList(ctx, s.q, func(sc scanner) (PermissionGrant, error) {
		var g PermissionGrant
		err := sc.Scan(&g.SectionID, &g.Module, &g.CanView, &g.CanCreate, &g.CanEdit, &g.CanDelete)
		return g, err
	}, `SELECT p.section_id, m.name, p.can_view, p.can_create, p.can_edit, p.can_delete
		FROM permissions p JOIN modules m ON m.id = p.module_id
		WHERE p.is_active = 1 AND m.is_active = 1`)
}

// --- Sessions ---

// SessionUser is the account bound to a live session.
type SessionUser struct {
	models.User
	ExpiresAt    string
	LastActivity string
}

func (s *Store) CreateSession(ctx context.Context, token string, userID int64, expires time.Time) error {
	ts := now()
	_, err := s.exec(ctx, "INSERT INTO sessions (token, user_id, created_at, expires_at, last_activity) VALUES (?, ?, ?, ?, ?)",
		token, userID, ts, expires.Format(models.TimeLayout), ts)
	return err
}

// GetSessionUser resolves an unexpired session token to its user.
func (s *Store) GetSessionUser(ctx context.Context, token string) (SessionUser, error) {
	var su SessionUser
	var section sql.NullString
	err := s.q.QueryRowContext(ctx, `SELECT u.id, u.username, u.password_hash, u.name, u.email, u.phone, u.is_admin,
		u.is_active, u.section_id, u.created_at, s.expires_at, s.last_activity
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, now()).Scan(
		&su.ID, &su.Username, &su.Password, &su.Name, &su.Email, &su.Phone, &su.IsAdmin, &su.IsActive, &section,
		&su.CreatedAt, &su.ExpiresAt, &su.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return su, ErrNotFound
	}
	su.SectionID = stringPtr(section)
	return su, err
}

// TouchSession slides the session expiry forward.
func (s *Store) TouchSession(ctx context.Context, token string, expires time.Time) error {
	_, err := s.exec(ctx, "UPDATE sessions SET expires_at = ?, last_activity = ? WHERE token = ?",
		expires.Format(models.TimeLayout), now(), token)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.exec(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID int64) error {
	_, err := s.exec(ctx, "DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Login lockout ---

// RecordFailedLogin counts a failed attempt and locks the account for
// lockFor once max attempts are reached.
func (s *Store) RecordFailedLogin(ctx context.Context, username string, max int, lockFor time.Duration) error {
	_, err := s.exec(ctx, `UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE locked_until END
		WHERE username = ?`, max, time.Now().Add(lockFor).Format(models.TimeLayout), username)
	return err
}

func (s *Store) ResetFailedLogins(ctx context.Context, username string) error {
	_, err := s.exec(ctx, "UPDATE users SET failed_login_attempts = 0, locked_until = NULL WHERE username = ?", username)
	return err
}

// LockedUntil returns the lock expiry for username, or the zero time.
func (s *Store) LockedUntil(ctx context.Context, username string) (time.Time, error) {
	var locked sql.NullString
	err := s.q.QueryRowContext(ctx, "SELECT locked_until FROM users WHERE username = ?", username).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil || !locked.Valid {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(models.TimeLayout, locked.String, time.Local)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// --- Audit log ---

func (s *Store) InsertAuditLog(ctx context.Context, e *models.AuditLog) error {
	e.CreatedAt = now()
	id, err := s.insert(ctx, "INSERT INTO audit_log (username, action, module, record_id, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.Username, e.Action, e.Module, e.RecordID, e.Summary, e.CreatedAt)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListAuditLogs returns the newest entries, optionally for one module.
func (s *Store) ListAuditLogs(ctx context.Context, module string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	scan := func(sc scanner) (models.AuditLog, error) {
		var e models.AuditLog
		err := sc.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.CreatedAt)
		return e, err
	}
	if module != "" {
		return queryList(ctx, s.q, scan, `SELECT id, username, action, module, record_id, summary, created_at
			FROM audit_log WHERE module = ? ORDER BY id DESC LIMIT ?`, module, limit)
	}
	return queryList(ctx, s.q, scan, `SELECT id, username, action, module, record_id, summary, created_at
		FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
}

// DeleteAuditLogsBefore removes entries older than cutoff.
func (s *Store) DeleteAuditLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM audit_log WHERE created_at < ?", cutoff.Format(models.TimeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
