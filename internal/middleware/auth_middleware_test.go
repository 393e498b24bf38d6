package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

func newEngine(t *testing.T, tokens *utils.TokenIssuer, roles ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/private", AuthMiddleware(tokens), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		id := CurrentUserID(c)
		if id == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": *id, "role": c.GetString(ContextUserRole)})
	})
	return engine
}

func TestAuthMiddleware(t *testing.T) {
	tokens, err := utils.NewTokenIssuer("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	other, _ := utils.NewTokenIssuer("another-secret", time.Hour)
	engine := newEngine(t, tokens, "admin", "cashier")

	good, _, err := tokens.GenerateAccessToken(7, "maya", "cashier")
	if err != nil {
		t.Fatal(err)
	}
	forged, _, _ := other.GenerateAccessToken(7, "maya", "admin")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + forged, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusOK},
		{"lowercase scheme", "bearer " + good, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d; body %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens, _ := utils.NewTokenIssuer("secret", time.Hour)
	engine := newEngine(t, tokens, "admin")

	cashier, _, _ := tokens.GenerateAccessToken(2, "omar", "cashier")
	admin, _, _ := tokens.GenerateAccessToken(1, "root", "Admin")

	for token, want := range map[string]int{cashier: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("status = %d, want %d", w.Code, want)
		}
	}
}
