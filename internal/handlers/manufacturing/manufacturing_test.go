package manufacturing_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/manufacturing"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := manufacturing.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/job-orders", perm(auth.ModuleJobOrders, auth.PermActionCreate, h.CreateJobOrder))
	mux.HandleFunc("GET /api/job-orders/{id}/rolls", app.RequireAuth(h.JobOrderRolls))
	mux.HandleFunc("GET /api/job-orders/{id}/final-products", app.RequireAuth(h.JobOrderFinalProducts))
	mux.HandleFunc("PATCH /api/job-orders/{id}/status", perm(auth.ModuleJobOrders, auth.PermActionEdit, h.UpdateJobOrderStatus))
	mux.HandleFunc("POST /api/rolls", perm(auth.ModuleRolls, auth.PermActionCreate, h.CreateRoll))
	mux.HandleFunc("GET /api/rolls/stage/{stage}", app.RequireAuth(h.RollsByStage))
	mux.HandleFunc("GET /api/rolls/{id}", app.RequireAuth(h.GetRoll))
	mux.HandleFunc("PATCH /api/rolls/{id}", perm(auth.ModuleRolls, auth.PermActionEdit, h.PatchRoll))
	mux.HandleFunc("POST /api/final-products", perm(auth.ModuleFinalProducts, auth.PermActionCreate, h.CreateFinalProduct))
	return mux
}

func TestCreateRoll_Numbering(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	var ids []string
	for i := 0; i < 2; i++ {
		w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/rolls", map[string]any{"job_order_id": jo.ID, "extruding_qty": 120}, token))
		testutil.AssertStatus(t, w, http.StatusCreated)
		var roll models.Roll
		testutil.DecodeJSON(t, w, &roll)
		assert.Equal(t, "extrusion", roll.CurrentStage)
		assert.Equal(t, "processing", roll.Status)
		require.NotNil(t, roll.CreatedByID)
		ids = append(ids, roll.ID)
	}
	assert.Equal(t, []string{"EX-0001-001", "EX-0001-002"}, ids)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/rolls", map[string]any{"job_order_id": 999}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Job order not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/job-orders/1/rolls", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var rolls []models.Roll
	testutil.DecodeJSON(t, w, &rolls)
	assert.Len(t, rolls, 2)
}

func TestPatchRoll_StageFlow(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	roll := &models.Roll{JobOrderID: jo.ID, ExtrudingQty: 100}
	require.NoError(t, app.Store.CreateRoll(context.Background(), roll))

	w := testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/rolls/"+roll.ID, map[string]any{"current_stage": "printing"}, token))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/rolls/"+roll.ID, map[string]any{"current_stage": "cutting", "printing_qty": 98}, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var got models.Roll
	testutil.DecodeJSON(t, w, &got)
	assert.Equal(t, 98.0, got.PrintingQty)
	require.NotNil(t, got.PrintedAt)
	require.NotNil(t, got.PrintedByID)
	assert.Nil(t, got.CutAt)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/rolls/"+roll.ID, map[string]any{"current_stage": "extrusion"}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/rolls/"+roll.ID, map[string]any{"current_stage": "completed", "cutting_qty": 95, "waste_qty": 3}, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.DecodeJSON(t, w, &got)
	assert.Equal(t, "completed", got.Status)
	require.NotNil(t, got.CutAt)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/rolls/stage/completed", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var rolls []models.Roll
	testutil.DecodeJSON(t, w, &rolls)
	require.Len(t, rolls, 1)
	assert.Equal(t, roll.ID, rolls[0].ID)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/rolls/stage/melting", nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/rolls/EX-9999-001", map[string]any{"status": "completed"}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/rolls/"+roll.ID, map[string]any{"waste_qty": -1}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestJobOrderStatus_SendsSMS(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/job-orders/1/status", map[string]string{"status": "For Production"}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/job-orders/1/status", map[string]string{"status": "in_progress"}, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var got models.JobOrder
	testutil.DecodeJSON(t, w, &got)
	assert.Equal(t, "in_progress", got.Status)

	msgs, err := app.Store.ListSmsMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].JobOrderID)
	assert.Equal(t, jo.ID, *msgs[0].JobOrderID)
	assert.Equal(t, "job_order_update", msgs[0].MessageType)
}

func TestCreateJobOrder_DerivesCustomer(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/job-orders",
		map[string]any{"order_id": jo.OrderID, "customer_product_id": jo.CustomerProductID, "quantity": 40}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var got models.JobOrder
	testutil.DecodeJSON(t, w, &got)
	assert.Equal(t, jo.CustomerID, got.CustomerID)
	assert.Equal(t, "pending", got.Status)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/job-orders",
		map[string]any{"order_id": 999, "customer_product_id": 999, "quantity": 40}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Order not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/job-orders",
		map[string]any{"order_id": jo.OrderID, "customer_product_id": jo.CustomerProductID, "quantity": 0}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestFinalProducts(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/final-products", map[string]any{"job_order_id": 999, "quantity": 5}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/final-products", map[string]any{"job_order_id": jo.ID, "quantity": 480}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var fp models.FinalProduct
	testutil.DecodeJSON(t, w, &fp)
	assert.Equal(t, "in-stock", fp.Status)
	assert.NotEmpty(t, fp.CompletedDate)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/job-orders/1/final-products", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list []models.FinalProduct
	testutil.DecodeJSON(t, w, &list)
	assert.Len(t, list, 1)
}
