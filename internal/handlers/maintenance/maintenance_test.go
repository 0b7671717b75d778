package maintenance_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/maintenance"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := maintenance.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/maintenance-requests", perm(auth.ModuleMaintenance, auth.PermActionCreate, h.CreateRequest))
	mux.HandleFunc("GET /api/maintenance-requests/{id}", app.RequireAuth(h.GetRequest))
	mux.HandleFunc("PUT /api/maintenance-requests/{id}", perm(auth.ModuleMaintenance, auth.PermActionEdit, h.UpdateRequest))
	mux.HandleFunc("POST /api/maintenance-actions", perm(auth.ModuleMaintenance, auth.PermActionCreate, h.CreateAction))
	mux.HandleFunc("GET /api/maintenance-actions/request/{requestId}", app.RequireAuth(h.ActionsByRequest))
	mux.HandleFunc("GET /api/maintenance-schedule", app.RequireAuth(h.ListSchedules))
	mux.HandleFunc("POST /api/maintenance-schedule", perm(auth.ModuleMaintenance, auth.PermActionCreate, h.CreateSchedule))
	mux.HandleFunc("POST /api/maintenance-schedule/generate", perm(auth.ModuleMaintenance, auth.PermActionCreate, h.GenerateDue))
	return mux
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func seedMachine(t *testing.T, app *server.App) {
	t.Helper()
	require.NoError(t, app.Store.CreateMachine(context.Background(), &models.Machine{ID: "EXT-01", Name: "Extruder 1", IsActive: true}))
}

func TestMaintenanceRequest_NumberAndReporter(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	seedMachine(t, app)

	body := map[string]any{"machine_id": "EXT-01", "damage_type": "motor", "severity": "high", "description": "Motor overheating"}
	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-requests", body, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var first models.MaintenanceRequest
	testutil.DecodeJSON(t, w, &first)
	prefix := "MR-" + time.Now().Format("20060102") + "-"
	assert.Equal(t, prefix+"001", first.RequestNumber)
	assert.Equal(t, "pending", first.Status)
	require.NotNil(t, first.ReportedBy)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-requests", body, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var second models.MaintenanceRequest
	testutil.DecodeJSON(t, w, &second)
	assert.Equal(t, prefix+"002", second.RequestNumber)

	body["machine_id"] = "NOPE"
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-requests", body, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Machine not found", testutil.ErrorMessage(t, w))

	body["machine_id"] = "EXT-01"
	body["severity"] = "catastrophic"
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-requests", body, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestMaintenanceAction_CompletesRequest(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	seedMachine(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-requests", map[string]any{
		"machine_id": "EXT-01", "damage_type": "belt", "severity": "medium", "description": "Worn belt",
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var req models.MaintenanceRequest
	testutil.DecodeJSON(t, w, &req)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-actions", map[string]any{
		"request_id": req.ID, "action_type": "replace", "part_replaced": "V-belt",
		"description": "Replaced belt", "hours": 1.5, "cost": 120, "status": "completed",
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var action models.MaintenanceAction
	testutil.DecodeJSON(t, w, &action)
	assert.Equal(t, "EXT-01", action.MachineID)
	require.NotNil(t, action.PerformedBy)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/maintenance-requests/"+itoa(req.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.DecodeJSON(t, w, &req)
	assert.Equal(t, "completed", req.Status)
	assert.Equal(t, 1.5, req.ActualRepairTime)
	assert.NotNil(t, req.CompletedAt)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/maintenance-actions/request/"+itoa(req.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list []models.MaintenanceAction
	testutil.DecodeJSON(t, w, &list)
	assert.Len(t, list, 1)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-actions", map[string]any{
		"request_id": 9999, "action_type": "inspect", "description": "Look",
	}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Maintenance request not found", testutil.ErrorMessage(t, w))
}

func TestMaintenanceSchedule_GenerateDue(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	seedMachine(t, app)

	future := time.Now().AddDate(0, 1, 0).Format(models.DateLayout)
	for _, s := range []map[string]any{
		{"machine_id": "EXT-01", "task_name": "Lubricate screw", "frequency": "weekly", "next_due": "2020-01-06"},
		{"machine_id": "EXT-01", "task_name": "Replace filter", "frequency": "monthly", "next_due": future},
	} {
		w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-schedule", s, token))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	w := testutil.Do(mux, testutil.AuthedRequest("POST", "/api/maintenance-schedule/generate", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var res struct {
		Created  int                         `json:"created"`
		Requests []models.MaintenanceRequest `json:"requests"`
	}
	testutil.DecodeJSON(t, w, &res)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Requests, 1)
	assert.Equal(t, "Lubricate screw", res.Requests[0].Description)
	assert.Equal(t, "scheduled", res.Requests[0].DamageType)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/maintenance-schedule", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var schedules []models.MaintenanceSchedule
	testutil.DecodeJSON(t, w, &schedules)
	today := time.Now().Format(models.DateLayout)
	for _, s := range schedules {
		assert.Greater(t, s.NextDue, today, s.TaskName)
	}

	w = testutil.Do(mux, testutil.AuthedRequest("POST", "/api/maintenance-schedule/generate", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.DecodeJSON(t, w, &res)
	assert.Equal(t, 0, res.Created)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/maintenance-schedule", map[string]any{
		"machine_id": "EXT-01", "task_name": "Clean", "frequency": "hourly", "next_due": today,
	}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestMaintenance_RequiresPermission(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginUser(t, app, "viewer", "")

	w := testutil.Do(mux, testutil.AuthedRequest("POST", "/api/maintenance-schedule/generate", nil, token))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}
