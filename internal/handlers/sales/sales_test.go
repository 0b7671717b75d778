package sales_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/sales"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func newMux(app *server.App) *http.ServeMux {
	h := sales.New(app)
	perm := app.RequirePermission
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/customers/search", app.RequireAuth(h.SearchCustomers))
	mux.HandleFunc("GET /api/customers/{id}", app.RequireAuth(h.GetCustomer))
	mux.HandleFunc("GET /api/customers/{id}/products", app.RequireAuth(h.CustomerProducts))
	mux.HandleFunc("POST /api/customers", perm(auth.ModuleCustomers, auth.PermActionCreate, h.CreateCustomer))
	mux.HandleFunc("DELETE /api/customers/{id}", perm(auth.ModuleCustomers, auth.PermActionDelete, h.DeleteCustomer))
	mux.HandleFunc("POST /api/customer-products", perm(auth.ModuleCustomerProducts, auth.PermActionCreate, h.CreateCustomerProduct))
	mux.HandleFunc("POST /api/orders", perm(auth.ModuleOrders, auth.PermActionCreate, h.CreateOrder))
	mux.HandleFunc("GET /api/orders/{id}/job-orders", app.RequireAuth(h.OrderJobOrders))
	mux.HandleFunc("PATCH /api/orders/{id}/status", perm(auth.ModuleOrders, auth.PermActionEdit, h.UpdateOrderStatus))
	mux.HandleFunc("DELETE /api/orders/{id}", perm(auth.ModuleOrders, auth.PermActionDelete, h.DeleteOrder))
	return mux
}

func seedCatalog(t *testing.T, s *storage.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "CAT01", Name: "Bags", Code: "BG"}))
	require.NoError(t, s.CreateItem(ctx, &models.Item{ID: "ITM01", CategoryID: "CAT01", Name: "T-shirt bag"}))
}

func TestCreateCustomer_GeneratesID(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/customers", models.Customer{Code: "ACME", Name: "Acme <b>Plastics</b>"}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var c models.Customer
	testutil.DecodeJSON(t, w, &c)
	assert.Equal(t, "CID0001", c.ID)
	assert.Equal(t, "Acme Plastics", c.Name)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/customers", models.Customer{Code: "ACME", Name: "Other"}, token))
	testutil.AssertStatus(t, w, http.StatusConflict)
	assert.Equal(t, "Customer code already exists", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/customers/search?q=acme%20plastcs", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var hits []storage.CustomerMatch
	testutil.DecodeJSON(t, w, &hits)
	require.Len(t, hits, 1)
	assert.Equal(t, "CID0001", hits[0].ID)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/customers/search", nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestCustomerProduct_ReferenceOrder(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	seedCatalog(t, app.Store)

	// Customer and category are both missing; the customer is reported.
	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/customer-products",
		models.CustomerProduct{CustomerID: "CID9999", CategoryID: "NOPE", ItemID: "ITM01"}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Customer not found", testutil.ErrorMessage(t, w))

	cust := &models.Customer{Code: "ACME", Name: "Acme"}
	require.NoError(t, app.Store.CreateCustomer(context.Background(), cust))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/customer-products",
		models.CustomerProduct{CustomerID: cust.ID, CategoryID: "NOPE", ItemID: "ITM01"}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Category not found", testutil.ErrorMessage(t, w))

	mb := "MB-X"
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/customer-products",
		models.CustomerProduct{CustomerID: cust.ID, CategoryID: "CAT01", ItemID: "ITM01", MasterBatchID: &mb}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Master batch not found", testutil.ErrorMessage(t, w))

	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/customer-products",
		models.CustomerProduct{CustomerID: cust.ID, CategoryID: "CAT01", ItemID: "ITM01", Width: 30}, token))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = testutil.Do(mux, testutil.AuthedRequest("GET", "/api/customers/"+cust.ID+"/products", nil, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var products []models.CustomerProduct
	testutil.DecodeJSON(t, w, &products)
	assert.Len(t, products, 1)

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/customers/"+cust.ID, nil, token))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestCreateOrder_WithJobOrders(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)
	ctx := context.Background()

	body := map[string]any{
		"customer_id": jo.CustomerID,
		"note":        "Second batch",
		"job_orders": []map[string]any{
			{"customer_product_id": jo.CustomerProductID, "quantity": 250},
			{"customer_product_id": jo.CustomerProductID, "quantity": 100},
		},
	}
	w := testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/orders", body, token))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var resp sales.OrderResponse
	testutil.DecodeJSON(t, w, &resp)
	assert.Equal(t, "pending", resp.Status)
	require.Len(t, resp.JobOrders, 2)
	assert.Equal(t, jo.CustomerID, resp.JobOrders[0].CustomerID)

	list, err := app.Store.ListJobOrdersByOrder(ctx, resp.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	body["job_orders"] = []map[string]any{{"customer_product_id": jo.CustomerProductID, "quantity": 0}}
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/orders", body, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	body["job_orders"] = []map[string]any{{"customer_product_id": 9999, "quantity": 5}}
	w = testutil.Do(mux, testutil.AuthedJSONRequest("POST", "/api/orders", body, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Customer product not found", testutil.ErrorMessage(t, w))

	orders, err := app.Store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestUpdateOrderStatus_SendsSMS(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	w := testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/orders/1/status", map[string]string{"status": "bogus"}, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/orders/999/status", map[string]string{"status": "hold"}, token))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = testutil.Do(mux, testutil.AuthedJSONRequest("PATCH", "/api/orders/1/status", map[string]string{"status": "For Production"}, token))
	testutil.AssertStatus(t, w, http.StatusOK)
	var o models.Order
	testutil.DecodeJSON(t, w, &o)
	assert.Equal(t, "For Production", o.Status)

	msgs, err := app.Store.ListSmsMessagesByOrder(context.Background(), jo.OrderID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "+966500000000", msgs[0].Recipient)
	assert.Equal(t, "sent", msgs[0].Status)
	assert.Contains(t, msgs[0].Message, "For Production")
}

func TestDeleteOrder(t *testing.T) {
	app := testutil.SetupApp(t)
	mux := newMux(app)
	token := testutil.LoginAdmin(t, app)
	jo := testutil.SeedJobOrder(t, app.Store)

	w := testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/orders/abc", nil, token))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(mux, testutil.AuthedRequest("DELETE", "/api/orders/1", nil, token))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	_, err := app.Store.GetJobOrder(context.Background(), jo.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
