package sms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/metrics"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

var (
	// ErrNoRecipient is returned when the target has no phone number.
	ErrNoRecipient = errors.New("no phone number on file")
	// ErrSuppressed is returned when a notification rule holds a message back.
	ErrSuppressed = errors.New("suppressed by notification rule")
)

// Rule trigger events handled by the service.
const (
	TriggerOrderStatusChanged    = "order_status_changed"
	TriggerJobOrderStatusChanged = "job_order_status_changed"
)

// Rules marked working_hours_only send between these local hours.
const (
	workdayStartHour = 8
	workdayEndHour   = 18
)

// Message types.
const (
	TypeOrderNotification = "order_notification"
	TypeJobOrderUpdate    = "job_order_update"
	TypeCustom            = "custom"
)

// Built-in templates used when no active template of the type exists.
var defaultTemplates = map[string]string{
	TypeOrderNotification: "Dear {customer_name}, your order #{order_id} is now {status}.",
	TypeJobOrderUpdate:    "Dear {customer_name}, job order #{job_order_id} for order #{order_id} is now {status}.",
}

// Store is the persistence the SMS service needs.
type Store interface {
	CreateSmsMessage(ctx context.Context, m *models.SmsMessage) error
	UpdateSmsDelivery(ctx context.Context, m *models.SmsMessage) error
	GetSmsMessage(ctx context.Context, id int64) (models.SmsMessage, error)
	ActiveSmsTemplate(ctx context.Context, messageType string) (models.SmsTemplate, error)
	GetSmsTemplate(ctx context.Context, id string) (models.SmsTemplate, error)
	ListActiveSmsRules(ctx context.Context, trigger string) ([]models.SmsNotificationRule, error)
	LatestSmsMessage(ctx context.Context, messageType string, orderID, jobOrderID *int64) (models.SmsMessage, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	GetJobOrder(ctx context.Context, id int64) (models.JobOrder, error)
	GetCustomer(ctx context.Context, id string) (models.Customer, error)
}

// Service renders, sends and records SMS messages. Provider failures are
// stored on the message as status "failed" and are not returned as errors.
type Service struct {
	store    Store
	provider Provider
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, provider Provider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, provider: provider, log: log.Named("sms"), now: time.Now}
}

// CustomMessage is a free-text message request.
type CustomMessage struct {
	Recipient  string  `json:"recipient" validate:"required,max=30"`
	Message    string  `json:"message" validate:"required,max=1600"`
	CustomerID *string `json:"customer_id"`
	OrderID    *int64  `json:"order_id"`
	JobOrderID *int64  `json:"job_order_id"`
	Priority   string  `json:"priority" validate:"omitempty,sms_priority"`
}

// sendOptions carries what a notification rule changes about a message.
type sendOptions struct {
	template string
	priority string
}

// SendOrderNotification tells the order's customer its current status.
func (s *Service) SendOrderNotification(ctx context.Context, orderID int64, sentBy *int64) (models.SmsMessage, error) {
	return s.orderNotification(ctx, orderID, sentBy, sendOptions{})
}

// OrderStatusChanged sends the order notification the active
// order_status_changed rule allows. Without a rule it behaves like
// SendOrderNotification.
func (s *Service) OrderStatusChanged(ctx context.Context, orderID int64, sentBy *int64) (models.SmsMessage, error) {
	opts, err := s.applyRule(ctx, TriggerOrderStatusChanged, TypeOrderNotification, &orderID, nil)
	if err != nil {
		return models.SmsMessage{}, err
	}
	return s.orderNotification(ctx, orderID, sentBy, opts)
}

// JobOrderStatusChanged is OrderStatusChanged for job orders.
func (s *Service) JobOrderStatusChanged(ctx context.Context, jobOrderID int64, sentBy *int64) (models.SmsMessage, error) {
	opts, err := s.applyRule(ctx, TriggerJobOrderStatusChanged, TypeJobOrderUpdate, nil, &jobOrderID)
	if err != nil {
		return models.SmsMessage{}, err
	}
	return s.jobOrderUpdate(ctx, jobOrderID, sentBy, opts)
}

// applyRule consults the first active rule for trigger. It returns
// ErrSuppressed outside working hours or inside the cooldown window.
func (s *Service) applyRule(ctx context.Context, trigger, messageType string, orderID, jobOrderID *int64) (sendOptions, error) {
	var opts sendOptions
	rules, err := s.store.ListActiveSmsRules(ctx, trigger)
	if err != nil {
		s.log.Warn("load notification rules", zap.String("trigger", trigger), zap.Error(err))
		return opts, nil
	}
	if len(rules) == 0 {
		return opts, nil
	}
	rule := rules[0]
	now := s.now()

	if rule.WorkingHoursOnly && !withinWorkingHours(now) {
		return opts, fmt.Errorf("%w: %s outside working hours", ErrSuppressed, rule.Name)
	}
	if rule.CooldownMinutes > 0 {
		last, err := s.store.LatestSmsMessage(ctx, messageType, orderID, jobOrderID)
		if err == nil {
			sent, perr := time.ParseInLocation(models.TimeLayout, last.CreatedAt, time.Local)
			if perr == nil && now.Sub(sent) < time.Duration(rule.CooldownMinutes)*time.Minute {
				return opts, fmt.Errorf("%w: %s cooldown", ErrSuppressed, rule.Name)
			}
		}
	}
	if rule.TemplateID != nil {
		tpl, err := s.store.GetSmsTemplate(ctx, *rule.TemplateID)
		switch {
		case err != nil:
			s.log.Warn("rule template", zap.String("template_id", *rule.TemplateID), zap.Error(err))
		case tpl.IsActive:
			opts.template = tpl.Template
		}
	}
	opts.priority = rule.Priority
	return opts, nil
}

func withinWorkingHours(t time.Time) bool {
	h := t.Hour()
	return h >= workdayStartHour && h < workdayEndHour
}

func (s *Service) orderNotification(ctx context.Context, orderID int64, sentBy *int64, opts sendOptions) (models.SmsMessage, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.SmsMessage{}, fmt.Errorf("load order: %w", err)
	}
	customer, err := s.store.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return models.SmsMessage{}, fmt.Errorf("load customer: %w", err)
	}
	if strings.TrimSpace(customer.Phone) == "" {
		return models.SmsMessage{}, ErrNoRecipient
	}

	body := s.render(ctx, TypeOrderNotification, opts.template, map[string]string{
		"customer_name": customer.Name,
		"order_id":      strconv.FormatInt(order.ID, 10),
		"status":        order.Status,
		"date":          order.Date,
	})
	cid := customer.ID
	m := models.SmsMessage{
		Recipient:   customer.Phone,
		Message:     body,
		OrderID:     &order.ID,
		CustomerID:  &cid,
		SentBy:      sentBy,
		MessageType: TypeOrderNotification,
		Priority:    opts.priorityOr("normal"),
	}
	return m, s.deliver(ctx, &m)
}

// SendJobOrderUpdate tells the job order's customer its current status.
func (s *Service) SendJobOrderUpdate(ctx context.Context, jobOrderID int64, sentBy *int64) (models.SmsMessage, error) {
	return s.jobOrderUpdate(ctx, jobOrderID, sentBy, sendOptions{})
}

func (s *Service) jobOrderUpdate(ctx context.Context, jobOrderID int64, sentBy *int64, opts sendOptions) (models.SmsMessage, error) {
	jo, err := s.store.GetJobOrder(ctx, jobOrderID)
	if err != nil {
		return models.SmsMessage{}, fmt.Errorf("load job order: %w", err)
	}
	customer, err := s.store.GetCustomer(ctx, jo.CustomerID)
	if err != nil {
		return models.SmsMessage{}, fmt.Errorf("load customer: %w", err)
	}
	if strings.TrimSpace(customer.Phone) == "" {
		return models.SmsMessage{}, ErrNoRecipient
	}

	body := s.render(ctx, TypeJobOrderUpdate, opts.template, map[string]string{
		"customer_name": customer.Name,
		"job_order_id":  strconv.FormatInt(jo.ID, 10),
		"order_id":      strconv.FormatInt(jo.OrderID, 10),
		"status":        jo.Status,
		"quantity":      strconv.FormatFloat(jo.Quantity, 'f', -1, 64),
	})
	cid := customer.ID
	m := models.SmsMessage{
		Recipient:   customer.Phone,
		Message:     body,
		OrderID:     &jo.OrderID,
		JobOrderID:  &jo.ID,
		CustomerID:  &cid,
		SentBy:      sentBy,
		MessageType: TypeJobOrderUpdate,
		Priority:    opts.priorityOr("normal"),
	}
	return m, s.deliver(ctx, &m)
}

// SendCustomMessage sends free text after stripping any markup.
func (s *Service) SendCustomMessage(ctx context.Context, req CustomMessage, sentBy *int64) (models.SmsMessage, error) {
	body := validation.SanitizeText(req.Message)
	if body == "" {
		return models.SmsMessage{}, fmt.Errorf("message is empty after sanitizing")
	}
	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}
	m := models.SmsMessage{
		Recipient:   strings.TrimSpace(req.Recipient),
		Message:     body,
		OrderID:     req.OrderID,
		JobOrderID:  req.JobOrderID,
		CustomerID:  req.CustomerID,
		SentBy:      sentBy,
		MessageType: TypeCustom,
		Priority:    priority,
	}
	return m, s.deliver(ctx, &m)
}

// Resend retries a stored message and bumps its retry count.
func (s *Service) Resend(ctx context.Context, id int64) (models.SmsMessage, error) {
	m, err := s.store.GetSmsMessage(ctx, id)
	if err != nil {
		return m, err
	}
	m.RetryCount++
	s.attempt(ctx, &m)
	if err := s.store.UpdateSmsDelivery(ctx, &m); err != nil {
		return m, fmt.Errorf("record delivery: %w", err)
	}
	return m, nil
}

func (o sendOptions) priorityOr(def string) string {
	if o.priority == "" {
		return def
	}
	return o.priority
}

// render fills tmpl, or the active template of the type when tmpl is empty.
func (s *Service) render(ctx context.Context, messageType, tmpl string, vars map[string]string) string {
	if tmpl == "" {
		tmpl = defaultTemplates[messageType]
		if t, err := s.store.ActiveSmsTemplate(ctx, messageType); err == nil {
			tmpl = t.Template
		}
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return validation.SanitizeText(strings.NewReplacer(pairs...).Replace(tmpl))
}

// deliver stores m as pending, sends it and records the outcome.
func (s *Service) deliver(ctx context.Context, m *models.SmsMessage) error {
	m.Status = "pending"
	if err := s.store.CreateSmsMessage(ctx, m); err != nil {
		return fmt.Errorf("store sms: %w", err)
	}
	s.attempt(ctx, m)
	if err := s.store.UpdateSmsDelivery(ctx, m); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

func (s *Service) attempt(ctx context.Context, m *models.SmsMessage) {
	correlation := uuid.NewString()
	log := s.log.With(
		zap.String("correlation_id", correlation),
		zap.Int64("sms_id", m.ID),
		zap.String("provider", s.provider.Name()),
		zap.String("type", m.MessageType))

	providerID, err := s.provider.Send(ctx, m.Recipient, m.Message)
	if err != nil {
		m.Status = "failed"
		m.ErrorMessage = err.Error()
		metrics.SMSMessages.WithLabelValues("failed").Inc()
		log.Warn("sms send failed", zap.Error(err))
		return
	}
	sent := time.Now().Format(models.TimeLayout)
	m.Status = "sent"
	m.ProviderID = providerID
	m.ErrorMessage = ""
	m.SentAt = &sent
	metrics.SMSMessages.WithLabelValues("sent").Inc()
	log.Info("sms sent", zap.String("provider_id", providerID))
}
