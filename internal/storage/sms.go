package storage

import (
	"context"
	"database/sql"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- SMS messages ---

const smsCols = `id, recipient, message, status, order_id, job_order_id, customer_id, sent_by, message_type, priority,
	provider_id, error_message, retry_count, created_at, sent_at, delivered_at`

func scanSms(sc scanner) (models.SmsMessage, error) {
	var m models.SmsMessage
	var order, jobOrder, sentBy sql.NullInt64
	var customer, sentAt, deliveredAt sql.NullString
	err := sc.Scan(&m.ID, &m.Recipient, &m.Message, &m.Status, &order, &jobOrder, &customer, &sentBy, &m.MessageType,
		&m.Priority, &m.ProviderID, &m.ErrorMessage, &m.RetryCount, &m.CreatedAt, &sentAt, &deliveredAt)
	m.OrderID = intPtr(order)
	m.JobOrderID = intPtr(jobOrder)
	m.CustomerID = stringPtr(customer)
	m.SentBy = intPtr(sentBy)
	m.SentAt = stringPtr(sentAt)
	m.DeliveredAt = stringPtr(deliveredAt)
	return m, err
}

func (s *Store) ListSmsMessages(ctx context.Context) ([]models.SmsMessage, error) {
	return queryList(ctx, s.q, scanSms, "SELECT "+smsCols+" FROM sms_messages ORDER BY created_at DESC, id DESC")
}

func (s *Store) ListSmsMessagesByOrder(ctx context.Context, orderID int64) ([]models.SmsMessage, error) {
	return queryList(ctx, s.q, scanSms, "SELECT "+smsCols+" FROM sms_messages WHERE order_id = ? ORDER BY id DESC", orderID)
}

func (s *Store) GetSmsMessage(ctx context.Context, id int64) (models.SmsMessage, error) {
	return queryOne(ctx, s.q, scanSms, "SELECT "+smsCols+" FROM sms_messages WHERE id = ?", id)
}

// LatestSmsMessage returns the newest message of a type that was not a
// failed send, for the order or, when jobOrderID is set, the job order.
func (s *Store) LatestSmsMessage(ctx context.Context, messageType string, orderID, jobOrderID *int64) (models.SmsMessage, error) {
	column, id := "order_id", orderID
	if jobOrderID != nil {
		column, id = "job_order_id", jobOrderID
	}
	if id == nil {
		return models.SmsMessage{}, ErrNotFound
	}
	return queryOne(ctx, s.q, scanSms, "SELECT "+smsCols+" FROM sms_messages WHERE message_type = ? AND "+column+
		" = ? AND status != 'failed' ORDER BY id DESC LIMIT 1", messageType, *id)
}

func (s *Store) CreateSmsMessage(ctx context.Context, m *models.SmsMessage) error {
	if m.Status == "" {
		m.Status = "pending"
	}
	if m.Priority == "" {
		m.Priority = "normal"
	}
	m.CreatedAt = now()
	id, err := s.insert(ctx, `INSERT INTO sms_messages (recipient, message, status, order_id, job_order_id, customer_id, sent_by,
		message_type, priority, provider_id, error_message, retry_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Recipient, m.Message, m.Status, nullInt(m.OrderID), nullInt(m.JobOrderID), nullString(m.CustomerID), nullInt(m.SentBy),
		m.MessageType, m.Priority, m.ProviderID, m.ErrorMessage, m.RetryCount, m.CreatedAt)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// UpdateSmsDelivery records the outcome of a send attempt.
func (s *Store) UpdateSmsDelivery(ctx context.Context, m *models.SmsMessage) error {
	return s.execOne(ctx, `UPDATE sms_messages SET status = ?, provider_id = ?, error_message = ?, retry_count = ?,
		sent_at = ?, delivered_at = ? WHERE id = ?`,
		m.Status, m.ProviderID, m.ErrorMessage, m.RetryCount, nullString(m.SentAt), nullString(m.DeliveredAt), m.ID)
}

func (s *Store) DeleteSmsMessage(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "sms_messages", id)
}

// --- SMS templates ---

const smsTemplateCols = "id, name, category, template, variables, message_type, is_active, created_by"

func scanSmsTemplate(sc scanner) (models.SmsTemplate, error) {
	var t models.SmsTemplate
	var vars string
	var createdBy sql.NullInt64
	err := sc.Scan(&t.ID, &t.Name, &t.Category, &t.Template, &vars, &t.MessageType, &t.IsActive, &createdBy)
	t.Variables = DecodeList(vars)
	t.CreatedBy = intPtr(createdBy)
	return t, err
}

func (s *Store) ListSmsTemplates(ctx context.Context) ([]models.SmsTemplate, error) {
	return queryList(ctx, s.q, scanSmsTemplate, "SELECT "+smsTemplateCols+" FROM sms_templates ORDER BY name")
}

func (s *Store) GetSmsTemplate(ctx context.Context, id string) (models.SmsTemplate, error) {
	return queryOne(ctx, s.q, scanSmsTemplate, "SELECT "+smsTemplateCols+" FROM sms_templates WHERE id = ?", id)
}

// ActiveSmsTemplate returns the first active template of a message type.
func (s *Store) ActiveSmsTemplate(ctx context.Context, messageType string) (models.SmsTemplate, error) {
	return queryOne(ctx, s.q, scanSmsTemplate,
		"SELECT "+smsTemplateCols+" FROM sms_templates WHERE message_type = ? AND is_active = 1 ORDER BY id LIMIT 1", messageType)
}

func (s *Store) CreateSmsTemplate(ctx context.Context, t *models.SmsTemplate) error {
	_, err := s.exec(ctx, `INSERT INTO sms_templates (id, name, category, template, variables, message_type, is_active, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Category, t.Template, EncodeList(t.Variables), t.MessageType, boolInt(t.IsActive), nullInt(t.CreatedBy))
	return err
}

func (s *Store) UpdateSmsTemplate(ctx context.Context, t *models.SmsTemplate) error {
	return s.execOne(ctx, `UPDATE sms_templates SET name = ?, category = ?, template = ?, variables = ?, message_type = ?,
		is_active = ? WHERE id = ?`,
		t.Name, t.Category, t.Template, EncodeList(t.Variables), t.MessageType, boolInt(t.IsActive), t.ID)
}

func (s *Store) DeleteSmsTemplate(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "sms_templates", id)
}

// --- SMS notification rules ---

const smsRuleCols = `id, name, trigger_event, template_id, recipient_roles, conditions, is_active, priority,
	cooldown_minutes, working_hours_only`

func scanSmsRule(sc scanner) (models.SmsNotificationRule, error) {
	var r models.SmsNotificationRule
	var tpl sql.NullString
	var roles string
	err := sc.Scan(&r.ID, &r.Name, &r.TriggerEvent, &tpl, &roles, &r.Conditions, &r.IsActive, &r.Priority,
		&r.CooldownMinutes, &r.WorkingHoursOnly)
	r.TemplateID = stringPtr(tpl)
	r.RecipientRoles = DecodeList(roles)
	return r, err
}

func (s *Store) ListSmsNotificationRules(ctx context.Context) ([]models.SmsNotificationRule, error) {
	return queryList(ctx, s.q, scanSmsRule, "SELECT "+smsRuleCols+" FROM sms_notification_rules ORDER BY id")
}

// ListActiveSmsRules returns the active rules for a trigger event.
func (s *Store) ListActiveSmsRules(ctx context.Context, trigger string) ([]models.SmsNotificationRule, error) {
	return queryList(ctx, s.q, scanSmsRule,
		"SELECT "+smsRuleCols+" FROM sms_notification_rules WHERE trigger_event = ? AND is_active = 1 ORDER BY id", trigger)
}

func (s *Store) GetSmsNotificationRule(ctx context.Context, id int64) (models.SmsNotificationRule, error) {
	return queryOne(ctx, s.q, scanSmsRule, "SELECT "+smsRuleCols+" FROM sms_notification_rules WHERE id = ?", id)
}

func (s *Store) CreateSmsNotificationRule(ctx context.Context, r *models.SmsNotificationRule) error {
	if r.Priority == "" {
		r.Priority = "normal"
	}
	id, err := s.insert(ctx, `INSERT INTO sms_notification_rules (name, trigger_event, template_id, recipient_roles, conditions,
		is_active, priority, cooldown_minutes, working_hours_only) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.TriggerEvent, nullString(r.TemplateID), EncodeList(r.RecipientRoles), r.Conditions, boolInt(r.IsActive),
		r.Priority, r.CooldownMinutes, boolInt(r.WorkingHoursOnly))
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (s *Store) UpdateSmsNotificationRule(ctx context.Context, r *models.SmsNotificationRule) error {
	return s.execOne(ctx, `UPDATE sms_notification_rules SET name = ?, trigger_event = ?, template_id = ?, recipient_roles = ?,
		conditions = ?, is_active = ?, priority = ?, cooldown_minutes = ?, working_hours_only = ? WHERE id = ?`,
		r.Name, r.TriggerEvent, nullString(r.TemplateID), EncodeList(r.RecipientRoles), r.Conditions, boolInt(r.IsActive),
		r.Priority, r.CooldownMinutes, boolInt(r.WorkingHoursOnly), r.ID)
}

func (s *Store) DeleteSmsNotificationRule(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "sms_notification_rules", id)
}
