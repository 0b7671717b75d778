package common_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := common.New(app)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user-dashboard", app.RequireAuth(h.UserDashboard))
	mux.HandleFunc("GET /api/reports/warehouse", app.RequireAuth(h.WarehouseReport))
	mux.HandleFunc("GET /api/reports/production", app.RequireAuth(h.ProductionReport))
	return mux
}

func TestUserDashboard(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	ctx := context.Background()
	testutil.SeedJobOrder(t, app.Store)
	require.NoError(t, app.Store.CreateRawMaterial(ctx, &models.RawMaterial{Name: "HDPE", Type: "resin", Quantity: 40, Unit: "kg"}))
	require.NoError(t, app.Store.CreateRawMaterial(ctx, &models.RawMaterial{Name: "LDPE", Type: "resin", Quantity: 900, Unit: "kg"}))

	w := testutil.Do(mux, testutil.AuthedRequest("GET", "/api/user-dashboard", nil, testutil.LoginAdmin(t, app)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var d common.Dashboard
	testutil.DecodeJSON(t, w, &d)
	assert.Equal(t, "admin", d.User.Username)
	assert.Equal(t, 1, d.OrdersByStatus["pending"])
	assert.Equal(t, 1, d.LowStockMaterials)
	assert.Nil(t, d.Attendance)
	assert.Contains(t, d.Modules, "orders")
}

func TestUserDashboard_SectionlessUserHasNoModules(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)

	w := testutil.Do(mux, testutil.AuthedRequest("GET", "/api/user-dashboard", nil, testutil.LoginUser(t, app, "clerk", "")))
	testutil.AssertStatus(t, w, http.StatusOK)

	var d common.Dashboard
	testutil.DecodeJSON(t, w, &d)
	assert.Empty(t, d.Modules)
}

func TestReports_Formats(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	require.NoError(t, app.Store.CreateRawMaterial(context.Background(), &models.RawMaterial{Name: "HDPE", Type: "resin", Quantity: 40, Unit: "kg"}))

	w := testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/warehouse", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/warehouse?format=xlsx", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Equal(t, "attachment; filename=warehouse-report.xlsx", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/warehouse?format=csv", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Metric,Value\n"))

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/warehouse?format=pdf", nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "format must be json, xlsx or csv", testutil.ErrorMessage(t, w))
}

func TestReports_InvalidDateRange(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	w := testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/production?start_date=2024-13-01", nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/production?start_date=2024-05-10&end_date=2024-05-01", nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/reports/production?start_date=2024-05-01&end_date=2024-05-10", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
}
