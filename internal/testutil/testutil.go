package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/config"
	"github.com/modplast83/MPBF-S-sub000/internal/database"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// CookieName is the session cookie used by test apps.
const CookieName = "erp_session"

// AdminPassword is the seeded administrator's password.
const AdminPassword = "admin123"

// Config returns settings suitable for tests rooted at dir.
func Config(dir string) *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		DB:   config.DBConfig{Path: filepath.Join(dir, "erp.db")},
		Backup: config.BackupConfig{
			Dir: filepath.Join(dir, "backups"),
		},
		Session: config.SessionConfig{
			CookieName:  CookieName,
			TTL:         24 * time.Hour,
			IdleTimeout: 8 * time.Hour,
		},
		Admin:     config.AdminConfig{Username: "admin", Password: AdminPassword},
		Log:       config.LogConfig{Level: "error"},
		CORS:      config.CORSConfig{Origins: []string{"*"}},
		SMS:       config.SMSConfig{Provider: "log", Timeout: time.Second},
		Reports:   config.ReportsConfig{LowStockThreshold: 100},
		RateLimit: config.RateLimitConfig{LoginPerMinute: 5},
	}
}

// SetupStore opens a migrated SQLite database in a temp dir.
func SetupStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "erp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.New(db)
}

// SetupApp builds an App over a fresh database with the admin account and
// default modules seeded and the permission cache loaded.
func SetupApp(t *testing.T) *server.App {
	t.Helper()
	dir := t.TempDir()
	cfg := Config(dir)

	db, err := database.Open(cfg.DB.Path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := server.NewApp(cfg, storage.New(db), zap.NewNop())
	ctx := context.Background()

	hash, err := auth.HashPassword(AdminPassword)
	require.NoError(t, err)
	admin := &models.User{Username: "admin", Password: hash, Name: "Administrator", IsAdmin: true, IsActive: true}
	_, err = app.Store.EnsureUser(ctx, admin)
	require.NoError(t, err)

	require.NoError(t, auth.SeedModules(ctx, app.Store))
	require.NoError(t, app.Perms.Refresh(ctx, app.Store))
	return app
}

// CreateUser inserts an active non-admin user in section (empty for none).
func CreateUser(t *testing.T, app *server.App, username, password, section string) int64 {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: username, Password: hash, Name: username + " Display", IsActive: true}
	if section != "" {
		u.SectionID = &section
	}
	require.NoError(t, app.Store.CreateUser(context.Background(), u))
	return u.ID
}

// CreateSession returns a fresh session token for userID.
func CreateSession(t *testing.T, app *server.App, userID int64) string {
	t.Helper()
	token := uuid.NewString()
	require.NoError(t, app.Store.CreateSession(context.Background(), token, userID, time.Now().Add(24*time.Hour)))
	return token
}

// LoginAdmin returns a session token for the seeded admin user.
func LoginAdmin(t *testing.T, app *server.App) string {
	t.Helper()
	admin, err := app.Store.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	return CreateSession(t, app, admin.ID)
}

// LoginUser creates a regular user in section and returns their session token.
func LoginUser(t *testing.T, app *server.App, username, section string) string {
	t.Helper()
	return CreateSession(t, app, CreateUser(t, app, username, "password1", section))
}

// AuthedRequest creates an HTTP request with a session cookie.
func AuthedRequest(method, path string, body []byte, sessionToken string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: sessionToken})
	}
	return req
}

// AuthedJSONRequest creates an authenticated request with a JSON body.
func AuthedJSONRequest(method, path string, body any, sessionToken string) *http.Request {
	var bodyBytes []byte
	if body != nil {
		switch b := body.(type) {
		case string:
			bodyBytes = []byte(b)
		default:
			bodyBytes, _ = json.Marshal(body)
		}
	}
	req := AuthedRequest(method, path, bodyBytes, sessionToken)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Do serves req through h and returns the recorded response.
func Do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// AssertStatus checks that the HTTP status code matches expected.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

// ErrorMessage returns the message field of an error body.
func ErrorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	DecodeJSON(t, w, &body)
	return body.Message
}

// SeedJobOrder creates a category, item, customer (with phone), customer
// product and an order with one 500-unit job order.
func SeedJobOrder(t *testing.T, s *storage.Store) models.JobOrder {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "CAT01", Name: "Bags", Code: "BG"}))
	require.NoError(t, s.CreateItem(ctx, &models.Item{ID: "ITM01", CategoryID: "CAT01", Name: "T-shirt bag"}))
	cust := &models.Customer{Code: "ACME", Name: "Acme Plastics", Phone: "+966500000000"}
	require.NoError(t, s.CreateCustomer(ctx, cust))
	cp := &models.CustomerProduct{CustomerID: cust.ID, CategoryID: "CAT01", ItemID: "ITM01", Width: 30}
	require.NoError(t, s.CreateCustomerProduct(ctx, cp))

	jos, err := s.CreateOrder(ctx, &models.Order{CustomerID: cust.ID}, []models.JobOrder{{CustomerProductID: cp.ID, Quantity: 500}})
	require.NoError(t, err)
	require.Len(t, jos, 1)
	return jos[0]
}
