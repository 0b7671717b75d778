package inventory_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/inventory"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := inventory.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/raw-materials/{id}", app.RequireAuth(h.GetRawMaterial))
	mux.HandleFunc("POST /api/raw-materials", perm(auth.ModuleRawMaterials, auth.PermActionCreate, h.CreateRawMaterial))
	mux.HandleFunc("POST /api/mix-materials", perm(auth.ModuleMixMaterials, auth.PermActionCreate, h.CreateMixMaterial))
	mux.HandleFunc("GET /api/mix-materials/{id}", app.RequireAuth(h.GetMixMaterial))
	mux.HandleFunc("DELETE /api/mix-materials/{id}", perm(auth.ModuleMixMaterials, auth.PermActionDelete, h.DeleteMixMaterial))
	mux.HandleFunc("GET /api/mix-materials/{id}/machines", app.RequireAuth(h.MixMachines))
	mux.HandleFunc("POST /api/mix-materials/{id}/machines", perm(auth.ModuleMixMaterials, auth.PermActionEdit, h.AddMixMachine))
	mux.HandleFunc("DELETE /api/mix-materials/{id}/machines/{machineId}", perm(auth.ModuleMixMaterials, auth.PermActionEdit, h.RemoveMixMachine))
	mux.HandleFunc("POST /api/mix-items", perm(auth.ModuleMixMaterials, auth.PermActionCreate, h.CreateMixItem))
	mux.HandleFunc("PUT /api/mix-items/{id}", perm(auth.ModuleMixMaterials, auth.PermActionEdit, h.UpdateMixItem))
	mux.HandleFunc("DELETE /api/mix-items/{id}", perm(auth.ModuleMixMaterials, auth.PermActionDelete, h.DeleteMixItem))
	mux.HandleFunc("POST /api/material-inputs", perm(auth.ModuleMaterialInputs, auth.PermActionCreate, h.CreateMaterialInput))
	mux.HandleFunc("DELETE /api/material-inputs/{id}", perm(auth.ModuleMaterialInputs, auth.PermActionDelete, h.DeleteMaterialInput))
	mux.HandleFunc("POST /api/aba-material-configs", perm(auth.ModuleAbaConfigs, auth.PermActionCreate, h.CreateAbaConfig))
	mux.HandleFunc("GET /api/aba-material-configs", app.RequireAuth(h.ListAbaConfigs))
	mux.HandleFunc("POST /api/aba-material-configs/{id}/default", perm(auth.ModuleAbaConfigs, auth.PermActionEdit, h.SetDefaultAbaConfig))
	return mux
}

func seedMaterials(t *testing.T, app *server.App) (hdpe, ldpe models.RawMaterial) {
	t.Helper()
	ctx := context.Background()
	hdpe = models.RawMaterial{Name: "HDPE", Type: "resin", Quantity: 100, Unit: "kg"}
	ldpe = models.RawMaterial{Name: "LDPE", Type: "resin", Quantity: 50, Unit: "kg"}
	require.NoError(t, app.Store.CreateRawMaterial(ctx, &hdpe))
	require.NoError(t, app.Store.CreateRawMaterial(ctx, &ldpe))
	require.NoError(t, app.Store.CreateSection(ctx, &models.Section{ID: "EXT", Name: "Extrusion"}))
	sec := "EXT"
	require.NoError(t, app.Store.CreateMachine(ctx, &models.Machine{ID: "EXT-01", Name: "Extruder 1", SectionID: &sec, IsActive: true}))
	require.NoError(t, app.Store.CreateMachine(ctx, &models.Machine{ID: "EXT-02", Name: "Extruder 2", SectionID: &sec, IsActive: true}))
	return hdpe, ldpe
}

func stock(t *testing.T, app *server.App, id int64) float64 {
	t.Helper()
	m, err := app.Store.GetRawMaterial(context.Background(), id)
	require.NoError(t, err)
	return m.Quantity
}

func TestMix_StockAndPercentages(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	hdpe, ldpe := seedMaterials(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-materials", map[string]any{
		"machine_ids": []string{"EXT-01"},
		"items": []map[string]any{
			{"raw_material_id": hdpe.ID, "quantity": 30},
			{"raw_material_id": ldpe.ID, "quantity": 10},
		},
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var mix inventory.MixResponse
	testutil.DecodeJSON(t, w, &mix)
	assert.Equal(t, 40.0, mix.TotalQuantity)
	assert.Equal(t, []string{"EXT-01"}, mix.MachineIDs)
	require.Len(t, mix.Items, 2)
	assert.InDelta(t, 75.0, mix.Items[0].Percentage, 0.001)
	assert.InDelta(t, 25.0, mix.Items[1].Percentage, 0.001)
	assert.Equal(t, 70.0, stock(t, app, hdpe.ID))
	assert.Equal(t, 40.0, stock(t, app, ldpe.ID))

	// Growing the HDPE line by 60 needs only the delta from stock.
	w = testutil.Do(mux, testutil.AuthedJSONRequest("PUT", "/api/mix-items/"+itoa(mix.Items[0].ID),
		map[string]any{"mix_id": mix.ID, "raw_material_id": hdpe.ID, "quantity": 90}, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var item models.MixItem
	testutil.DecodeJSON(t, w, &item)
	assert.InDelta(t, 90.0, item.Percentage, 0.001)
	assert.Equal(t, 10.0, stock(t, app, hdpe.ID))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PUT", "/api/mix-items/"+itoa(mix.Items[0].ID),
		map[string]any{"mix_id": mix.ID, "raw_material_id": hdpe.ID, "quantity": 200}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, testutil.ErrorMessage(t, w), "insufficient stock")
	assert.Equal(t, 10.0, stock(t, app, hdpe.ID))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-items",
		map[string]any{"mix_id": mix.ID, "raw_material_id": ldpe.ID, "quantity": 0}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/mix-items/"+itoa(mix.Items[1].ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusNoContent)
	assert.Equal(t, 50.0, stock(t, app, ldpe.ID))

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/mix-materials/"+itoa(mix.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.DecodeJSON(t, w, &mix)
	assert.Equal(t, 90.0, mix.TotalQuantity)
	require.Len(t, mix.Items, 1)
	assert.InDelta(t, 100.0, mix.Items[0].Percentage, 0.001)

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/mix-materials/"+itoa(mix.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusNoContent)
	assert.Equal(t, 100.0, stock(t, app, hdpe.ID))
}

func TestCreateMixItem(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	hdpe, ldpe := seedMaterials(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-materials", map[string]any{
		"items": []map[string]any{{"raw_material_id": hdpe.ID, "quantity": 30}},
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var mix inventory.MixResponse
	testutil.DecodeJSON(t, w, &mix)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-items",
		map[string]any{"mix_id": mix.ID, "raw_material_id": ldpe.ID, "quantity": 10}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var item models.MixItem
	testutil.DecodeJSON(t, w, &item)
	assert.Equal(t, mix.ID, item.MixID)
	assert.InDelta(t, 25.0, item.Percentage, 0.001)
	assert.Equal(t, 40.0, stock(t, app, ldpe.ID))
	assert.Equal(t, 70.0, stock(t, app, hdpe.ID))

	assertMix := func(total float64, items int) {
		t.Helper()
		w := testutil.Do(mux, testutil.AuthedRequest("GET", "/api/mix-materials/"+itoa(mix.ID), nil, token))
		testutil.AssertStatus(t, w, http.StatusOK)
		var got inventory.MixResponse
		testutil.DecodeJSON(t, w, &got)
		assert.Equal(t, total, got.TotalQuantity)
		require.Len(t, got.Items, items)
		var sum float64
		for _, it := range got.Items {
			sum += it.Percentage
		}
		assert.InDelta(t, 100.0, sum, 0.001)
	}
	assertMix(40, 2)

	// More than the remaining 40 kg of LDPE: nothing changes.
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-items",
		map[string]any{"mix_id": mix.ID, "raw_material_id": ldpe.ID, "quantity": 41}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, testutil.ErrorMessage(t, w), "insufficient stock")
	assert.Equal(t, 40.0, stock(t, app, ldpe.ID))
	assertMix(40, 2)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-items",
		map[string]any{"mix_id": 999, "raw_material_id": ldpe.ID, "quantity": 1}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, 40.0, stock(t, app, ldpe.ID))
}

func TestCreateMix_RejectsWholeMixOnShortStock(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	hdpe, ldpe := seedMaterials(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-materials", map[string]any{
		"items": []map[string]any{
			{"raw_material_id": hdpe.ID, "quantity": 30},
			{"raw_material_id": ldpe.ID, "quantity": 51},
		},
	}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 100.0, stock(t, app, hdpe.ID))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-materials", map[string]any{
		"machine_ids": []string{"NOPE"},
	}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Machine not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/mix-materials", map[string]any{
		"items": []map[string]any{{"raw_material_id": 999, "quantity": 1}},
	}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Raw material not found", testutil.ErrorMessage(t, w))
}

func TestMixMachines(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	seedMaterials(t, app)

	mix := models.MixMaterial{}
	require.NoError(t, app.Store.CreateMixMaterial(context.Background(), &mix, nil))
	path := "/api/mix-materials/" + itoa(mix.ID) + "/machines"

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", path, map[string]string{"machine_id": "EXT-02"}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", path, map[string]string{"machine_id": "EXT-02"}, token))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", path, nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var ids []string
	testutil.DecodeJSON(t, w, &ids)
	assert.Equal(t, []string{"EXT-02"}, ids)

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", path+"/EXT-02", nil, token))
	testutil.AssertStatus(t, w, http.StatusNoContent)
	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", path+"/EXT-02", nil, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestMaterialInput_ReceiveAndReverse(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	hdpe, _ := seedMaterials(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/material-inputs", map[string]any{
		"note":  "PO 1182",
		"items": []map[string]any{{"raw_material_id": hdpe.ID, "quantity": 25}},
	}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var in models.MaterialInput
	testutil.DecodeJSON(t, w, &in)
	require.NotNil(t, in.UserID)
	assert.Equal(t, 125.0, stock(t, app, hdpe.ID))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/material-inputs", map[string]any{"items": []any{}}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// Consume most of the stock so the receipt can no longer be reversed.
	mix := models.MixMaterial{}
	require.NoError(t, app.Store.CreateMixMaterial(context.Background(), &mix,
		[]models.MixItem{{RawMaterialID: hdpe.ID, Quantity: 110}}))

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/material-inputs/"+itoa(in.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 15.0, stock(t, app, hdpe.ID))

	require.NoError(t, app.Store.DeleteMixMaterial(context.Background(), mix.ID))
	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/material-inputs/"+itoa(in.ID), nil, token))
	testutil.AssertStatus(t, w, http.StatusNoContent)
	assert.Equal(t, 100.0, stock(t, app, hdpe.ID))
}

func TestAbaConfigs_SingleDefault(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	var ids []int64
	for _, name := range []string{"Summer", "Winter"} {
		w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/aba-material-configs", map[string]any{
			"name": name, "config_data": `{"a":60,"b":40}`, "is_default": true,
		}, token))
		testutil.AssertStatus(t, w, http.StatusCreated)
		var c models.AbaMaterialConfig
		testutil.DecodeJSON(t, w, &c)
		ids = append(ids, c.ID)
	}

	w := testutil.Do(mux, testutil.AuthedRequest("POST", "/api/aba-material-configs/"+itoa(ids[0])+"/default", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/aba-material-configs", nil, token))
	var list []models.AbaMaterialConfig
	testutil.DecodeJSON(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Summer", list[0].Name)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/aba-material-configs", map[string]any{
		"name": "Broken", "config_data": "not json",
	}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestRawMaterials_Permissions(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	require.NoError(t, app.Store.CreateSection(context.Background(), &models.Section{ID: "WH", Name: "Warehouse"}))
	token := testutil.LoginUser(t, app, "storekeeper", "WH")

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/raw-materials",
		map[string]any{"name": "HDPE", "type": "resin", "quantity": 1, "unit": "kg"}, token))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/raw-materials/1", nil, ""))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}
