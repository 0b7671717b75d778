package server_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/metrics"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/testutil"
)

func TestGzip(t *testing.T) {
	handler := server.Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Hello World"))
	}))

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer gr.Close()
	body, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", string(body))
}

func TestGzip_ErrorResponse_RealServer(t *testing.T) {
	handler := server.Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	req, _ := http.NewRequest("GET", srv.URL+"/api/missing", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestGzip_SkipsNonAPIAndUpgrade(t *testing.T) {
	handler := server.Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello World"))
	}))

	for _, tc := range []struct {
		path    string
		upgrade string
		accept  string
	}{
		{"/metrics", "", "gzip"},
		{"/api/ws", "websocket", "gzip"},
		{"/api/orders", "", ""},
	} {
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.accept != "" {
			req.Header.Set("Accept-Encoding", tc.accept)
		}
		if tc.upgrade != "" {
			req.Header.Set("Upgrade", tc.upgrade)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Content-Encoding"), tc.path)
		assert.Equal(t, "Hello World", w.Body.String(), tc.path)
	}
}

func TestRecover(t *testing.T) {
	handler := server.Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := testutil.Do(handler, httptest.NewRequest("GET", "/api/orders", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", testutil.ErrorMessage(t, w))
}

func TestLogging_RecordsRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/test-metrics/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := server.Logging(zap.NewNop())(mux)

	counter := metrics.HTTPRequests.WithLabelValues("POST", "POST /api/test-metrics/{id}", "201")
	before := promtest.ToFloat64(counter)
	w := testutil.Do(handler, httptest.NewRequest("POST", "/api/test-metrics/7", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, before+1, promtest.ToFloat64(counter))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := server.CORS([]string{"http://erp.local"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://erp.local")
	w := testutil.Do(handler, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://erp.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = testutil.Do(handler, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, called)
}

func TestRateLimit_Login(t *testing.T) {
	rl := server.NewRateLimiter()
	handler := server.RateLimit(rl, 3, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := testutil.Do(handler, httptest.NewRequest("POST", "/api/login", nil))
		require.Equal(t, http.StatusOK, w.Code, "attempt %d", i+1)
	}
	w := testutil.Do(handler, httptest.NewRequest("POST", "/api/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other routes are not limited when the API budget is off.
	w = testutil.Do(handler, httptest.NewRequest("GET", "/api/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	rl.Reset()
	w = testutil.Do(handler, httptest.NewRequest("POST", "/api/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_SpoofedForwardedForIsIgnored(t *testing.T) {
	handler := server.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), server.RealIP(nil), server.RateLimit(server.NewRateLimiter(), 2, 0))

	login := func(xff string) int {
		r := httptest.NewRequest("POST", "/api/login", nil)
		r.Header.Set("X-Forwarded-For", xff)
		return testutil.Do(handler, r).Code
	}
	assert.Equal(t, http.StatusOK, login("203.0.113.1"))
	assert.Equal(t, http.StatusOK, login("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.3"))
}

func TestRateLimit_TrustedProxyKeysByForwardedClient(t *testing.T) {
	proxies, err := audit.ParseTrustedProxies([]string{"192.0.2.0/24"})
	require.NoError(t, err)
	handler := server.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(audit.ClientIP(r)))
	}), server.RealIP(proxies), server.RateLimit(server.NewRateLimiter(), 1, 0))

	login := func(xff string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/api/login", nil)
		r.Header.Set("X-Forwarded-For", xff)
		return testutil.Do(handler, r)
	}
	w := login("198.51.100.1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.1", w.Body.String())
	assert.Equal(t, http.StatusTooManyRequests, login("198.51.100.1").Code)
	assert.Equal(t, http.StatusOK, login("198.51.100.2").Code)
}

func TestCheckRateLimit_Remaining(t *testing.T) {
	rl := server.NewRateLimiter()
	exceeded, remaining, reset := rl.CheckRateLimit("k", 2, time.Minute)
	assert.False(t, exceeded)
	assert.Equal(t, 1, remaining)
	assert.True(t, reset.After(time.Now()))
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(auth.Username(r.Context())))
}

func TestRequireAuth(t *testing.T) {
	app := testutil.SetupApp(t)
	h := app.RequireAuth(whoAmI)

	w := testutil.Do(h, httptest.NewRequest("GET", "/api/user", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Do(h, testutil.AuthedRequest("GET", "/api/user", nil, "bogus"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := testutil.LoginAdmin(t, app)
	w = testutil.Do(h, testutil.AuthedRequest("GET", "/api/user", nil, token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
	assert.NotEmpty(t, w.Result().Cookies(), "sliding expiry refreshes the cookie")

	req := httptest.NewRequest("GET", "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = testutil.Do(h, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_InactiveUser(t *testing.T) {
	app := testutil.SetupApp(t)
	ctx := context.Background()
	id := testutil.CreateUser(t, app, "leaver", "password1", "")
	token := testutil.CreateSession(t, app, id)

	u, err := app.Store.GetUser(ctx, id)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, app.Store.UpdateUser(ctx, &u))

	w := testutil.Do(app.RequireAuth(whoAmI), testutil.AuthedRequest("GET", "/api/user", nil, token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ExpiredSession(t *testing.T) {
	app := testutil.SetupApp(t)
	admin, err := app.Store.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	require.NoError(t, app.Store.CreateSession(context.Background(), "old", admin.ID, time.Now().Add(-time.Minute)))

	w := testutil.Do(app.RequireAuth(whoAmI), testutil.AuthedRequest("GET", "/api/user", nil, "old"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	app := testutil.SetupApp(t)
	ctx := context.Background()
	require.NoError(t, app.Store.CreateSection(ctx, &models.Section{ID: "EXT", Name: "Extrusion"}))
	token := testutil.LoginUser(t, app, "operator", "EXT")

	h := app.RequirePermission(auth.ModuleRolls, auth.PermActionCreate, whoAmI)
	w := testutil.Do(h, testutil.AuthedRequest("POST", "/api/rolls", nil, token))
	assert.Equal(t, http.StatusForbidden, w.Code)

	mod, err := app.Store.GetModuleByName(ctx, auth.ModuleRolls)
	require.NoError(t, err)
	require.NoError(t, app.Store.CreatePermission(ctx, &models.Permission{
		SectionID: "EXT", ModuleID: mod.ID, CanView: true, CanCreate: true, IsActive: true,
	}))
	app.RefreshPermissions(ctx)

	w = testutil.Do(h, testutil.AuthedRequest("POST", "/api/rolls", nil, token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator", w.Body.String())

	w = testutil.Do(h, httptest.NewRequest("POST", "/api/rolls", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := testutil.LoginAdmin(t, app)
	w = testutil.Do(app.RequirePermission(auth.ModuleSystem, auth.PermActionDelete, whoAmI),
		testutil.AuthedRequest("DELETE", "/api/x", nil, admin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	app := testutil.SetupApp(t)
	token := testutil.LoginUser(t, app, "clerk", "")
	w := testutil.Do(app.RequireAdmin(whoAmI), testutil.AuthedRequest("GET", "/api/audit-logs", nil, token))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(app.RequireAdmin(whoAmI), testutil.AuthedRequest("GET", "/api/audit-logs", nil, testutil.LoginAdmin(t, app)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartAndEndSession(t *testing.T) {
	app := testutil.SetupApp(t)
	admin, err := app.Store.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	token, err := app.StartSession(context.Background(), w, admin.ID)
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testutil.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := testutil.AuthedRequest("POST", "/api/logout", nil, token)
	require.NoError(t, app.EndSession(httptest.NewRecorder(), req))

	_, _, ok := app.CurrentUser(testutil.AuthedRequest("GET", "/api/user", nil, token))
	assert.False(t, ok)
}
