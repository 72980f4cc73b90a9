package server_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/jrsteele09/go-session-audit/audit"
	fakeauditrepo "github.com/jrsteele09/go-session-audit/audit/repofake"
	"github.com/jrsteele09/go-session-audit/auth"
	"github.com/jrsteele09/go-session-audit/internal/config"
	"github.com/jrsteele09/go-session-audit/server"
	"github.com/jrsteele09/go-session-audit/token"
	"github.com/jrsteele09/go-session-audit/users"
	fakeuserrepo "github.com/jrsteele09/go-session-audit/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
	userEmail     = "jane@example.com"
	userPassword  = "jane-password"
)

type testFixture struct {
	userRepo  *fakeuserrepo.FakeUserRepo
	auditRepo *fakeauditrepo.FakeAuditRepo
	server    *server.Server
}

func setupTestFixture(t *testing.T, overrides ...map[string]any) *testFixture {
	t.Helper()

	values := map[string]any{
		"ENV":                  "TEST",
		"ADMIN_EMAIL":          adminEmail,
		"ADMIN_PASSWORD":       adminPassword,
		"RATE_LIMIT_ENABLED":   false,
		"CORS_ALLOWED_ORIGINS": "https://app.example.com",
	}
	for _, o := range overrides {
		for k, v := range o {
			values[k] = v
		}
	}
	cfg := config.FromValues(values)

	ur := fakeuserrepo.NewFakeUserRepo()
	ar := fakeauditrepo.NewFakeAuditRepo()
	issuer := token.NewIssuer(token.NewHMACSigner("server-test-secret"), 0)
	authService, err := auth.NewService(ur, issuer, audit.NewManager(ar), auth.WithAdminSignup(cfg.GetAllowAdminSignup()))
	require.NoError(t, err)

	s, err := server.New(cfg, server.Services{
		Users:    ur,
		Issuer:   issuer,
		Auth:     authService,
		Query:    audit.NewQueryService(ar, audit.NewUserRepoResolver(ur), audit.WithMaxPageSize(cfg.GetMaxPageSize())),
		Deletion: audit.NewDeletionService(ar),
	})
	require.NoError(t, err)

	return &testFixture{userRepo: ur, auditRepo: ar, server: s}
}

type requestOption func(*http.Request)

func withToken(tok string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (f *testFixture) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type messageBody struct {
	Message string `json:"message"`
}

type listBody struct {
	Logs []struct {
		ID          string  `json:"id"`
		UserID      string  `json:"userId"`
		IPAddress   string  `json:"ipAddress"`
		LogoutTime  *string `json:"logoutTime"`
		FullName    *string `json:"fullName"`
		Role        *string `json:"role"`
		SessionRole string  `json:"sessionRole"`
	} `json:"logs"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func (f *testFixture) login(t *testing.T, email, password string) auth.Result {
	t.Helper()

	rec := f.do(t, http.MethodPost, server.RouteAuthLogin, auth.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[auth.Result](t, rec)
}

func (f *testFixture) register(t *testing.T, email, password string) auth.Result {
	t.Helper()

	rec := f.do(t, http.MethodPost, server.RouteAuthRegister, auth.RegisterRequest{
		FullName: "Jane Doe",
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[auth.Result](t, rec)
}

func TestNew_RequiresServices(t *testing.T) {
	_, err := server.New(config.FromValues(nil), server.Services{})
	require.Error(t, err)
}

func TestBootstrapAdmin(t *testing.T) {
	f := setupTestFixture(t)

	admin, err := f.userRepo.GetByEmail(context.Background(), adminEmail)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, admin.Role)
	require.Equal(t, "Administrator", admin.FullName)
}

func TestBootstrapAdmin_GeneratedPassword(t *testing.T) {
	f := setupTestFixture(t, map[string]any{"ADMIN_PASSWORD": ""})

	admin, err := f.userRepo.GetByEmail(context.Background(), adminEmail)
	require.NoError(t, err)
	require.NotEmpty(t, admin.PasswordHash)
	require.False(t, users.CheckPasswordHash("", admin.PasswordHash))
}

func TestRegisterAndLogin(t *testing.T) {
	f := setupTestFixture(t)

	registered := f.register(t, userEmail, userPassword)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, users.RoleUser, registered.User.Role)

	rec := f.do(t, http.MethodPost, server.RouteAuthRegister, auth.RegisterRequest{
		FullName: "Jane Again", Email: userEmail, Password: userPassword,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "User already exists", decode[messageBody](t, rec).Message)

	loggedIn := f.login(t, userEmail, userPassword)
	require.Equal(t, registered.User.UserID, loggedIn.User.UserID)
}

func TestRegister_AdminRole(t *testing.T) {
	body := auth.RegisterRequest{FullName: "Mallory", Email: "mallory@example.com", Password: userPassword, Role: users.RoleAdmin}

	f := setupTestFixture(t)
	rec := f.do(t, http.MethodPost, server.RouteAuthRegister, body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	f = setupTestFixture(t, map[string]any{"ALLOW_ADMIN_SIGNUP": true})
	rec = f.do(t, http.MethodPost, server.RouteAuthRegister, body)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestLogin_Failures(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t, userEmail, userPassword)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"unknown email", auth.LoginRequest{Email: "ghost@example.com", Password: userPassword}, http.StatusBadRequest, "Invalid credentials"},
		{"wrong password", auth.LoginRequest{Email: userEmail, Password: "nope-nope"}, http.StatusBadRequest, "Invalid credentials"},
		{"role mismatch", auth.LoginRequest{Email: userEmail, Password: userPassword, Role: users.RoleAdmin}, http.StatusForbidden, "Unauthorized login attempt"},
		{"missing password", map[string]string{"email": userEmail}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, server.RouteAuthLogin, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMsg != "" {
				require.Equal(t, tt.wantMsg, decode[messageBody](t, rec).Message)
			}
		})
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthLogin, bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	session := f.register(t, userEmail, userPassword)

	rec := f.do(t, http.MethodPost, server.RouteAuthLogout, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteAuthLogout, nil, withToken("garbage"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteAuthLogout, nil, withToken(session.Token))
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := f.auditRepo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].IsOpen())

	// nothing left open, still a success
	rec = f.do(t, http.MethodPost, server.RouteAuthLogout, nil, withToken(session.Token))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUserLogs_RequiresAdmin(t *testing.T) {
	f := setupTestFixture(t)
	session := f.register(t, userEmail, userPassword)

	rec := f.do(t, http.MethodGet, server.RouteUserLogs, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, server.RouteUserLogs, nil, withToken(session.Token))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Access denied: Admins only", decode[messageBody](t, rec).Message)

	rec = f.do(t, http.MethodDelete, "/api/user-logs/anything", nil, withToken(session.Token))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserLogs_ListAndDelete(t *testing.T) {
	f := setupTestFixture(t)
	user := f.register(t, userEmail, userPassword)
	for range 3 {
		f.login(t, userEmail, userPassword)
	}
	admin := f.login(t, adminEmail, adminPassword)

	rec := f.do(t, http.MethodGet, server.RouteUserLogs+"?page=1&limit=2", nil, withToken(admin.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[listBody](t, rec)
	require.EqualValues(t, 5, page.Total)
	require.Len(t, page.Logs, 2)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 2, page.Limit)
	require.Equal(t, admin.User.UserID, page.Logs[0].UserID)
	require.Equal(t, "admin", *page.Logs[0].Role)

	rec = f.do(t, http.MethodGet, server.RouteUserLogs+"?page=3&limit=2", nil, withToken(admin.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	last := decode[listBody](t, rec)
	require.Len(t, last.Logs, 1)
	require.Equal(t, user.User.UserID, last.Logs[0].UserID)

	// defaults
	rec = f.do(t, http.MethodGet, server.RouteUserLogs, nil, withToken(admin.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[listBody](t, rec)
	require.Len(t, all.Logs, 5)
	require.Equal(t, 20, all.Limit)

	// identity gone: entry survives with null name and role
	require.NoError(t, f.userRepo.Delete(context.Background(), user.User.UserID))
	rec = f.do(t, http.MethodGet, server.RouteUserLogs, nil, withToken(admin.Token))
	orphaned := decode[listBody](t, rec)
	require.Nil(t, orphaned.Logs[4].FullName)
	require.Nil(t, orphaned.Logs[4].Role)
	require.Equal(t, "user", orphaned.Logs[4].SessionRole)

	target := orphaned.Logs[4].ID
	rec = f.do(t, http.MethodDelete, "/api/user-logs/"+target, nil, withToken(admin.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Log deleted", decode[messageBody](t, rec).Message)

	rec = f.do(t, http.MethodDelete, "/api/user-logs/"+target, nil, withToken(admin.Token))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Log not found", decode[messageBody](t, rec).Message)
}

func TestUserLogs_PaginationValidation(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, adminEmail, adminPassword)

	for _, query := range []string{"?page=0", "?limit=0", "?limit=101", "?page=abc", "?limit=-5"} {
		t.Run(query, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, server.RouteUserLogs+query, nil, withToken(admin.Token))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := f.do(t, http.MethodGet, server.RouteUserLogs+"?page=9223372036854775807&limit=100", nil, withToken(admin.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[listBody](t, rec)
	require.Empty(t, page.Logs)
	require.EqualValues(t, 1, page.Total)
}

func TestLogin_RecordsClientIP(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.login(t, adminEmail, adminPassword)

	rec := f.do(t, http.MethodPost, server.RouteAuthLogin,
		auth.LoginRequest{Email: adminEmail, Password: adminPassword},
		withHeader("X-Forwarded-For", "198.51.100.4, 10.0.0.1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, server.RouteUserLogs, nil, withToken(admin.Token))
	page := decode[listBody](t, rec)
	require.Equal(t, "198.51.100.4", page.Logs[0].IPAddress)
}

func TestRateLimit(t *testing.T) {
	f := setupTestFixture(t, map[string]any{
		"RATE_LIMIT_ENABLED":  true,
		"RATE_LIMIT_REQUESTS": 2,
		"RATE_LIMIT_WINDOW":   "1m",
	})

	body := auth.LoginRequest{Email: userEmail, Password: userPassword}
	for i := range 2 {
		rec := f.do(t, http.MethodPost, server.RouteAuthLogin, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("request %d", i))
	}
	rec := f.do(t, http.MethodPost, server.RouteAuthLogin, body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_IgnoresForwardedFor(t *testing.T) {
	f := setupTestFixture(t, map[string]any{
		"RATE_LIMIT_ENABLED":  true,
		"RATE_LIMIT_REQUESTS": 2,
		"RATE_LIMIT_WINDOW":   "1m",
	})

	body := auth.LoginRequest{Email: userEmail, Password: "wrong-password"}
	limited := 0
	for i := range 20 {
		rec := f.do(t, http.MethodPost, server.RouteAuthLogin, body, withHeader("X-Forwarded-For", fmt.Sprintf("10.9.9.%d", i)))
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	require.Equal(t, 18, limited)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodOptions, server.RouteAuthLogin, nil, withHeader("Origin", "https://app.example.com"))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	rec = f.do(t, http.MethodOptions, server.RouteAuthLogin, nil, withHeader("Origin", "https://evil.example.com"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, server.RouteHealth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.login(t, adminEmail, adminPassword)
	rec = f.do(t, http.MethodGet, server.RouteMetrics, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "session_logins_total")
}
