package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos_backoffice/internal/config"
	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := utils.NewTokenIssuer("router-test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		ServiceChargeRate: decimal.RequireFromString("0.12"),
		TaxRate:           decimal.Zero,
		StockPolicy:       models.StockPolicyAllowNegative,
		TransferWebOrders: true,
	}
	svc := NewServices(repositories.NewMemoryStore(), tokens, cfg, nil)
	if err := svc.Auth.EnsureAdmin(context.Background(), "admin", "admin-password"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	engine := gin.New()
	Setup(engine, svc, tokens)
	return engine
}

func call(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, engine *gin.Engine, username, password string) string {
	t.Helper()
	w := call(t, engine, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.AccessToken == "" {
		t.Fatalf("login response %s: %v", w.Body.String(), err)
	}
	return resp.AccessToken
}

func TestRoutesEnforceRoles(t *testing.T) {
	engine := newTestServer(t)

	if w := call(t, engine, http.MethodGet, "/ping", "", nil); w.Code != http.StatusOK {
		t.Errorf("ping = %d", w.Code)
	}
	if w := call(t, engine, http.MethodGet, "/api/v1/orders", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous orders = %d, want 401", w.Code)
	}

	admin := login(t, engine, "admin", "admin-password")
	w := call(t, engine, http.MethodPost, "/api/v1/auth/register", admin, map[string]string{"username": "cashier1", "password": "cashier-pass"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d body %s", w.Code, w.Body.String())
	}
	cashier := login(t, engine, "cashier1", "cashier-pass")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"cashier cannot open day", http.MethodPost, "/api/v1/days/open", cashier, http.StatusForbidden},
		{"cashier cannot register users", http.MethodPost, "/api/v1/auth/register", cashier, http.StatusForbidden},
		{"cashier cannot read settings", http.MethodGet, "/api/v1/settings", cashier, http.StatusForbidden},
		{"cashier cannot open documents", http.MethodPost, "/api/v1/documents", cashier, http.StatusForbidden},
		{"admin opens day", http.MethodPost, "/api/v1/days/open", admin, http.StatusCreated},
		{"cashier starts shift", http.MethodPost, "/api/v1/shifts/start", cashier, http.StatusCreated},
		{"cashier lists orders", http.MethodGet, "/api/v1/orders", cashier, http.StatusOK},
		{"cashier reads products", http.MethodGet, "/api/v1/products", cashier, http.StatusOK},
		{"cashier cannot create products", http.MethodPost, "/api/v1/products", cashier, http.StatusForbidden},
		{"profile", http.MethodGet, "/api/v1/auth/me", cashier, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(t, engine, tc.method, tc.path, tc.token, map[string]interface{}{})
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d; body %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
