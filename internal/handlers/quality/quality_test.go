package quality_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/quality"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := quality.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quality-check-types", perm(auth.ModuleQuality, auth.PermActionCreate, h.CreateCheckType))
	mux.HandleFunc("DELETE /api/quality-check-types/{id}", perm(auth.ModuleQuality, auth.PermActionDelete, h.DeleteCheckType))
	mux.HandleFunc("POST /api/quality-checks", perm(auth.ModuleQuality, auth.PermActionCreate, h.CreateCheck))
	mux.HandleFunc("GET /api/quality-checks/{id}", app.RequireAuth(h.GetCheck))
	mux.HandleFunc("GET /api/quality-checks/roll/{rollId}", app.RequireAuth(h.ChecksByRoll))
	mux.HandleFunc("GET /api/quality-checks/job-order/{jobOrderId}", app.RequireAuth(h.ChecksByJobOrder))
	mux.HandleFunc("POST /api/corrective-actions", perm(auth.ModuleQuality, auth.PermActionCreate, h.CreateCorrectiveAction))
	mux.HandleFunc("GET /api/corrective-actions/quality-check/{id}", app.RequireAuth(h.CorrectiveActionsByCheck))
	mux.HandleFunc("POST /api/quality-violations", perm(auth.ModuleQuality, auth.PermActionCreate, h.CreateViolation))
	mux.HandleFunc("PUT /api/quality-violations/{id}", perm(auth.ModuleQuality, auth.PermActionEdit, h.UpdateViolation))
	mux.HandleFunc("POST /api/quality-penalties", perm(auth.ModuleQuality, auth.PermActionCreate, h.CreatePenalty))
	mux.HandleFunc("GET /api/quality-penalties/violation/{id}", app.RequireAuth(h.PenaltiesByViolation))
	return mux
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func seedCheckType(t *testing.T, app *server.App) {
	t.Helper()
	require.NoError(t, app.Store.CreateQualityCheckType(context.Background(), &models.QualityCheckType{
		ID: "QC-EXT", Name: "Extrusion visual", TargetStage: "extrusion", IsActive: true,
		ChecklistItems: []string{"No gels", "No holes"},
	}))
}

func TestQualityCheck_AdaptsFields(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)
	seedCheckType(t, app)
	roll := &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 80}
	require.NoError(t, app.Store.CreateRoll(context.Background(), roll))

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/quality-checks", map[string]any{
		"check_type_id":     "QC-EXT",
		"roll_id":           roll.ID,
		"status":            "failed",
		"checklist_results": []string{"No gels: ok", "No holes: fail"},
		"parameter_values":  []string{"thickness_um=17"},
		"issue_severity":    "high",
		"image_urls":        []string{"https://files.example.com/roll.jpg"},
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var check quality.QualityCheckView
	testutil.DecodeJSON(t, w, &check)
	require.NotNil(t, check.JobOrderID, "job order comes from the roll")
	assert.Equal(t, jo.ID, *check.JobOrderID)
	require.NotNil(t, check.PerformedBy)
	assert.NotEmpty(t, check.Timestamp)

	row, err := app.Store.GetQualityCheck(context.Background(), check.ID)
	require.NoError(t, err)
	assert.Equal(t, `["No gels: ok","No holes: fail"]`, row.ChecklistResults)
	assert.Equal(t, check.PerformedBy, row.CheckedBy)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/quality-checks/"+itoa(check.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var got quality.QualityCheckView
	testutil.DecodeJSON(t, w, &got)
	assert.Equal(t, []string{"No gels: ok", "No holes: fail"}, got.ChecklistResults)
	assert.Equal(t, []string{"https://files.example.com/roll.jpg"}, got.ImageURLs)

	for _, path := range []string{"/api/quality-checks/roll/" + roll.ID, "/api/quality-checks/job-order/" + itoa(jo.ID)} {
		w = testutil.Do(mux, testutil.AuthedRequest("GET", path, nil, token))
		testutil.AssertStatus(t, w, http.StatusOK)
		var list []quality.QualityCheckView
		testutil.DecodeJSON(t, w, &list)
		assert.Len(t, list, 1, path)
	}

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/quality-check-types/QC-EXT", nil, token))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestQualityCheck_References(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	seedCheckType(t, app)

	cases := []struct {
		body map[string]any
		want string
	}{
		{map[string]any{"check_type_id": "NOPE", "status": "passed", "roll_id": "EX-0009-001"}, "Quality check type not found"},
		{map[string]any{"check_type_id": "QC-EXT", "status": "passed", "roll_id": "EX-0009-001"}, "Roll not found"},
		{map[string]any{"check_type_id": "QC-EXT", "status": "passed", "job_order_id": 9}, "Job order not found"},
	}
	for _, tc := range cases {
		w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/quality-checks", tc.body, token))
		testutil.AssertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, tc.want, testutil.ErrorMessage(t, w))
	}

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/quality-checks",
		map[string]any{"check_type_id": "QC-EXT", "status": "great"}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Validation failed", testutil.ErrorMessage(t, w))
}

func TestViolationPenaltyFlow(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	operator := testutil.CreateUser(t, app, "operator", "password1", "")
	seedCheckType(t, app)

	check := models.QualityCheck{CheckTypeID: "QC-EXT", Status: "failed"}
	require.NoError(t, app.Store.CreateQualityCheck(context.Background(), &check))

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/corrective-actions",
		map[string]any{"quality_check_id": check.ID, "action": "Clean die lips"}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/corrective-actions/quality-check/"+itoa(check.ID), nil, token))
	var actions []models.CorrectiveAction
	testutil.DecodeJSON(t, w, &actions)
	require.Len(t, actions, 1)
	assert.Equal(t, "open", actions[0].Status)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/quality-violations", map[string]any{
		"quality_check_id": check.ID, "violation_type": "Thickness", "severity": "medium", "description": "Out of tolerance",
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var v models.QualityViolation
	testutil.DecodeJSON(t, w, &v)
	assert.NotZero(t, v.ReportedBy)
	assert.Equal(t, "open", v.Status)

	v.Status = "resolved"
	w = testutil.Do(mux, testutil.AuthedJSONRequest("PUT", "/api/quality-violations/"+itoa(v.ID), v, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.DecodeJSON(t, w, &v)
	assert.NotEmpty(t, v.ResolvedDate)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/quality-penalties", map[string]any{
		"violation_id": v.ID, "assigned_to": operator, "penalty_type": "training",
		"description": "Re-train on gauge checks", "start_date": "2024-05-01",
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var p models.QualityPenalty
	testutil.DecodeJSON(t, w, &p)
	assert.Equal(t, "pending", p.Status)
	assert.Equal(t, "SAR", p.Currency)
	assert.NotZero(t, p.AssignedBy)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/quality-penalties", map[string]any{
		"violation_id": v.ID, "assigned_to": 999, "penalty_type": "fine",
		"description": "x", "start_date": "2024-05-01",
	}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "User not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/quality-penalties/violation/"+itoa(v.ID), nil, token))
	var penalties []models.QualityPenalty
	testutil.DecodeJSON(t, w, &penalties)
	assert.Len(t, penalties, 1)
}
