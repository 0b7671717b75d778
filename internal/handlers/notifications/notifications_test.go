package notifications_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/notifications"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/sms"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

type flakyProvider struct{ fail bool }

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) Send(ctx context.Context, to, body string) (string, error) {
	if p.fail {
		return "", errors.New("gateway timeout")
	}
	return "gw-1", nil
}

func newMux(app *server.App) *http.ServeMux {
	h := notifications.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sms-messages", app.RequireAuth(h.ListMessages))
	mux.HandleFunc("GET /api/sms-messages/order/{orderId}", app.RequireAuth(h.MessagesByOrder))
	mux.HandleFunc("POST /api/sms-messages/order-notification", perm(auth.ModuleSMS, auth.PermActionCreate, h.SendOrderNotification))
	mux.HandleFunc("POST /api/sms-messages/job-order-update", perm(auth.ModuleSMS, auth.PermActionCreate, h.SendJobOrderUpdate))
	mux.HandleFunc("POST /api/sms-messages/custom", perm(auth.ModuleSMS, auth.PermActionCreate, h.SendCustomMessage))
	mux.HandleFunc("POST /api/sms-messages/{id}/resend", perm(auth.ModuleSMS, auth.PermActionEdit, h.ResendMessage))
	mux.HandleFunc("DELETE /api/sms-messages/{id}", perm(auth.ModuleSMS, auth.PermActionDelete, h.DeleteMessage))
	mux.HandleFunc("POST /api/sms-templates", perm(auth.ModuleSMS, auth.PermActionCreate, h.CreateTemplate))
	mux.HandleFunc("POST /api/sms-notification-rules", perm(auth.ModuleSMS, auth.PermActionCreate, h.CreateRule))
	return mux
}

func TestOrderNotification_UsesTemplate(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-templates", map[string]any{
		"id": "TPL-ORD", "name": "Order", "template": "Hi {customer_name}, order #{order_id} is {status}",
		"message_type": "order_notification", "is_active": true,
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-messages/order-notification",
		map[string]any{"order_id": jo.OrderID}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var m models.SmsMessage
	testutil.DecodeJSON(t, w, &m)
	assert.Equal(t, "Hi Acme Plastics, order #"+strconv.FormatInt(jo.OrderID, 10)+" is pending", m.Message)
	assert.Equal(t, "sent", m.Status)
	assert.Equal(t, "+966500000000", m.Recipient)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-messages/order-notification",
		map[string]any{"order_id": 999}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Order not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/sms-messages/order/"+strconv.FormatInt(jo.OrderID, 10), nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list []models.SmsMessage
	testutil.DecodeJSON(t, w, &list)
	assert.Len(t, list, 1)
}

func TestJobOrderUpdate_NoPhone(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	cust, err := app.Store.GetCustomer(context.Background(), jo.CustomerID)
	require.NoError(t, err)
	cust.Phone = ""
	require.NoError(t, app.Store.UpdateCustomer(context.Background(), &cust))

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-messages/job-order-update",
		map[string]any{"job_order_id": jo.ID}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Customer has no phone number", testutil.ErrorMessage(t, w))
}

func TestCustomMessage_FailureThenResend(t *testing.T) {
	app := testutil.SetupApp(t)
	provider := &flakyProvider{fail: true}
	app.SMS = sms.NewService(app.Store, provider, nil)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-messages/custom",
		map[string]any{"recipient": "+966511111111", "message": "Your <b>order</b> is ready", "priority": "high"}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var m models.SmsMessage
	testutil.DecodeJSON(t, w, &m)
	assert.Equal(t, "failed", m.Status)
	assert.Equal(t, "gateway timeout", m.ErrorMessage)
	assert.Equal(t, "Your order is ready", m.Message)

	provider.fail = false
	w = testutil.Do(mux, testutil.AuthedRequest("POST", "/api/sms-messages/"+strconv.FormatInt(m.ID, 10)+"/resend", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.DecodeJSON(t, w, &m)
	assert.Equal(t, "sent", m.Status)
	assert.Equal(t, 1, m.RetryCount)
	assert.Equal(t, "gw-1", m.ProviderID)

	w = testutil.Do(mux, testutil.AuthedRequest("POST", "/api/sms-messages/999/resend", nil, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-messages/custom",
		map[string]any{"recipient": "+966511111111", "message": "<script></script>"}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-messages/custom",
		map[string]any{"recipient": "+966511111111", "message": "hi", "order_id": 42}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestRules_TemplateReference(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-notification-rules", map[string]any{
		"name": "Status changes", "trigger_event": "order_status_changed", "template_id": "MISSING", "is_active": true,
	}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "SMS template not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-notification-rules", map[string]any{
		"name": "Status changes", "trigger_event": "order_status_changed", "recipient_roles": []string{"customer"},
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var rule models.SmsNotificationRule
	testutil.DecodeJSON(t, w, &rule)
	assert.Equal(t, "normal", rule.Priority)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/sms-notification-rules", map[string]any{
		"name": "Bad", "trigger_event": "lunch_time",
	}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}
