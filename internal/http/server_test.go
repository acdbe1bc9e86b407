package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spence/internal/auth"
	"spence/internal/services"
	"spence/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	tokens := auth.NewTokenIssuer("test-secret-at-least-32-characters!!", time.Hour)
	authSvc := auth.NewService(repo, tokens, 4)

	srv := NewServer("127.0.0.1:0",
		authSvc,
		tokens,
		services.NewExpenseService(repo),
		services.NewBudgetService(repo),
		repo,
		Options{AllowedOrigin: "http://localhost:5173", AuthRateLimit: 1000},
	)
	t.Cleanup(func() { srv.authLimiter.Stop() })
	return srv
}

// do round-trips a JSON request through the full middleware stack.
func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, srv *Server, email string) string {
	t.Helper()

	rec := do(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "ada@example.com")

	// Duplicate registration must not leak whether the email exists beyond
	// the 401.
	rec := do(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"bad email", "not-an-email", "correct-horse", "email"},
		{"short password", "ada@example.com", "short", "password"},
		{"empty email", "", "correct-horse", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			})
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Fields, tt.field)
		})
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rec := do(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"title":    "Coffee",
		"amount":   4.5,
		"category": "Food",
		"date":     "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"id":1,"title":"Coffee","amount":4.5,"category":"Food","date":"2024-03-01"}`,
		rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	rec = do(t, srv, http.MethodGet, "/expenses/summary/category", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"category":"Food","total":4.5}]`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/expenses/1", token, map[string]any{
		"title":    "Espresso",
		"amount":   3.2,
		"category": "Food",
		"date":     "2024-03-02",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"id":1,"title":"Espresso","amount":3.2,"category":"Food","date":"2024-03-02"}`,
		rec.Body.String())

	rec = do(t, srv, http.MethodDelete, "/expenses/1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/expenses/1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rec := do(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"title":    "",
		"amount":   -3,
		"category": "",
		"date":     "not-a-date",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	for _, field := range []string{"title", "amount", "category", "date"} {
		assert.Contains(t, resp.Fields, field)
	}
}

func TestExpenseRejectsSubCentAmount(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rec := do(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"title":    "Fuel",
		"amount":   json.Number("1.005"),
		"category": "Car",
		"date":     "2024-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseOwnershipScoping(t *testing.T) {
	srv := newTestServer(t)
	owner := registerUser(t, srv, "owner@example.com")
	other := registerUser(t, srv, "other@example.com")

	rec := do(t, srv, http.MethodPost, "/expenses", owner, map[string]any{
		"title":    "Rent",
		"amount":   900,
		"category": "Housing",
		"date":     "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Another user sees an empty list and cannot touch the row.
	rec = do(t, srv, http.MethodGet, "/expenses", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/expenses/1", other, map[string]any{
		"title":    "Hijack",
		"amount":   1,
		"category": "X",
		"date":     "2024-03-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/expenses/1", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaries(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	seed := []map[string]any{
		{"title": "Coffee", "amount": 4.5, "category": "Food", "date": "2024-03-01"},
		{"title": "Groceries", "amount": 55.25, "category": "Food", "date": "2024-03-10"},
		{"title": "Train", "amount": 12, "category": "Transport", "date": "2024-04-02"},
	}
	for _, e := range seed {
		rec := do(t, srv, http.MethodPost, "/expenses", token, e)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodGet, "/expenses/summary/category", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var byCat []struct {
		Category string      `json:"category"`
		Total    json.Number `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byCat))
	totals := map[string]string{}
	for _, row := range byCat {
		totals[row.Category] = row.Total.String()
	}
	assert.Equal(t, map[string]string{"Food": "59.75", "Transport": "12"}, totals)

	rec = do(t, srv, http.MethodGet, "/expenses/summary/month", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var byMonth []struct {
		Month string      `json:"month"`
		Total json.Number `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byMonth))
	require.Len(t, byMonth, 2)
	assert.Equal(t, "2024-03", byMonth[0].Month)
	assert.Equal(t, "59.75", byMonth[0].Total.String())
	assert.Equal(t, "2024-04", byMonth[1].Month)
	assert.Equal(t, "12", byMonth[1].Total.String())
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rec := do(t, srv, http.MethodPost, "/budgets", token, map[string]any{
		"month":  "2024-03",
		"amount": 500,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"month":"2024-03","amount":500}`, rec.Body.String())

	// Second write for the same month replaces the amount in place.
	rec = do(t, srv, http.MethodPost, "/budgets", token, map[string]any{
		"month":  "2024-03",
		"amount": 650.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"month":"2024-03","amount":650.5}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/budgets/2024-03", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"month":"2024-03","amount":650.5}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/budgets/2024-12", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/budgets/garbage", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/budgets", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"month":"2024-03","amount":650.5}]`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/budgets", token, map[string]any{
		"month":  "2024-13",
		"amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/expenses"},
		{http.MethodPost, "/expenses"},
		{http.MethodPut, "/expenses/1"},
		{http.MethodDelete, "/expenses/1"},
		{http.MethodGet, "/expenses/summary/category"},
		{http.MethodGet, "/expenses/summary/month"},
		{http.MethodGet, "/budgets"},
		{http.MethodGet, "/budgets/2024-03"},
		{http.MethodPost, "/budgets"},
	}
	for _, p := range paths {
		t.Run(fmt.Sprintf("%s %s", p.method, p.path), func(t *testing.T) {
			rec := do(t, srv, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/expenses", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unknown origins get no CORS grant.
	req = httptest.NewRequest(http.MethodOptions, "/expenses", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
