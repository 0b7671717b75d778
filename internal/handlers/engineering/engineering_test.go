package engineering_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/engineering"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := engineering.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/plate-pricing-parameters", perm(auth.ModulePlatePricing, auth.PermActionCreate, h.CreatePlateParameter))
	mux.HandleFunc("GET /api/plate-calculations", app.RequireAuth(h.ListPlateCalculations))
	mux.HandleFunc("POST /api/plate-calculations", perm(auth.ModulePlatePricing, auth.PermActionCreate, h.CreatePlateCalculation))
	mux.HandleFunc("POST /api/plate-calculations/calculate", app.RequireAuth(h.Calculate))
	return mux
}

func TestCalculate_DefaultsAndNoSave(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	// 10x20 at 0.5 = 100; 3 colors *1.4 = 140; thickness *1.1 = 154; 10% off = 138.60
	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/plate-calculations/calculate", map[string]any{
		"width": 10, "height": 20, "colors": 3, "thickness": 1.14, "customer_discount": 10,
	}, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var c models.PlateCalculation
	testutil.DecodeJSON(t, w, &c)
	assert.Equal(t, 200.0, c.Area)
	assert.Equal(t, 138.6, c.CalculatedPrice)
	assert.Zero(t, c.ID)

	list, err := app.Store.ListPlateCalculations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateCalculation_UsesStoredParameters(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/plate-pricing-parameters", map[string]any{
		"name": "Base", "type": "base_price", "value": 0.8, "is_active": true,
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/plate-calculations", map[string]any{
		"width": 10, "height": 10, "colors": 1,
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var c models.PlateCalculation
	testutil.DecodeJSON(t, w, &c)
	assert.NotZero(t, c.ID)
	assert.Equal(t, 80.0, c.CalculatedPrice)
	assert.Equal(t, 0.8, c.BasePricePerUnit)
	require.NotNil(t, c.CreatedBy)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/plate-calculations", map[string]any{
		"width": 10, "height": 10, "customer_id": "CID9999",
	}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Customer not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/plate-calculations", map[string]any{
		"width": 0, "height": 10,
	}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/plate-pricing-parameters", map[string]any{
		"name": "Bad", "type": "gold_leaf", "value": 1,
	}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}
