package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/models"
	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestEngine mounts the handlers without the JWT layer; every request acts
// as user 1.
func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	store := repositories.NewMemoryStore()
	stock := models.StockPolicyAllowNegative

	days := NewDayHandler(services.NewDayService(store))
	shifts := NewShiftHandler(services.NewShiftService(store, true))
	products := NewProductHandler(services.NewProductService(store))
	inventory := NewInventoryHandler(services.NewInventoryService(store, stock))
	orders := NewOrderHandler(services.NewOrderService(store, pricing.Policy{ServiceChargeRate: decimal.RequireFromString("0.1")}, stock, nil))
	settings := NewSettingHandler(services.NewSettingService(store))

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, int64(1))
		c.Next()
	})
	engine.POST("/days/open", days.OpenDay)
	engine.POST("/shifts/start", shifts.StartShift)
	engine.POST("/products", products.CreateProduct)
	engine.GET("/products/:id", products.GetProductByID)
	engine.POST("/inventory/adjustments", inventory.AdjustStock)
	engine.POST("/orders", orders.CreateOrder)
	engine.GET("/orders", orders.GetOrders)
	engine.GET("/orders/:id", orders.GetOrderByID)
	engine.POST("/orders/:id/complete", orders.CompleteOrder)
	engine.GET("/orders/:id/receipt", orders.GetReceipt)
	engine.POST("/external/orders", orders.PlaceExternalOrder)
	engine.POST("/settings", settings.CreateOrUpdateApplicationSetting)
	engine.GET("/settings/:key", settings.GetApplicationSettingByKey)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding %s: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body %s", w.Code, want, w.Body.String())
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// seedBurger opens a day and a shift and creates a stocked burger priced 10.
func seedBurger(t *testing.T, engine *gin.Engine) int64 {
	t.Helper()
	expectStatus(t, doJSON(t, engine, http.MethodPost, "/days/open", nil), http.StatusCreated)
	expectStatus(t, doJSON(t, engine, http.MethodPost, "/shifts/start", map[string]interface{}{"start_cash": "0"}), http.StatusCreated)

	w := doJSON(t, engine, http.MethodPost, "/products", map[string]interface{}{"name": "Bun", "type": "raw_material", "cost": "0.5"})
	expectStatus(t, w, http.StatusCreated)
	var bun models.Product
	decode(t, w, &bun)

	w = doJSON(t, engine, http.MethodPost, "/inventory/adjustments", map[string]interface{}{"product_id": bun.ID, "delta": "10", "reason": "opening stock"})
	expectStatus(t, w, http.StatusOK)

	w = doJSON(t, engine, http.MethodPost, "/products", map[string]interface{}{
		"name": "Burger", "type": "manufactured", "price": "10",
		"components": []map[string]interface{}{{"component_id": bun.ID, "quantity_per_unit": "1"}},
	})
	expectStatus(t, w, http.StatusCreated)
	var burger models.Product
	decode(t, w, &burger)
	return burger.ID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	engine := newTestEngine(t)
	burgerID := seedBurger(t, engine)

	w := doJSON(t, engine, http.MethodPost, "/orders", map[string]interface{}{
		"type":  "takeaway",
		"items": []map[string]interface{}{{"product_id": burgerID, "quantity": "2"}},
	})
	expectStatus(t, w, http.StatusCreated)
	var order models.Order
	decode(t, w, &order)
	if !order.Total.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("total = %s, want 20", order.Total)
	}

	path := fmt.Sprintf("/orders/%d/complete", order.ID)
	w = doJSON(t, engine, http.MethodPost, path, map[string]interface{}{"cash": "50"})
	expectStatus(t, w, http.StatusOK)
	var result services.CompleteOrderResult
	decode(t, w, &result)
	if !result.Change.Equal(decimal.NewFromInt(30)) || result.Replayed {
		t.Errorf("change = %s replayed = %v", result.Change, result.Replayed)
	}

	w = doJSON(t, engine, http.MethodPost, path, map[string]interface{}{"cash": "50"})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &result)
	if !result.Replayed {
		t.Error("second completion not reported as replay")
	}

	w = doJSON(t, engine, http.MethodGet, fmt.Sprintf("/orders/%d/receipt", order.ID), nil)
	expectStatus(t, w, http.StatusOK)

	w = doJSON(t, engine, http.MethodGet, "/orders?status=completed", nil)
	expectStatus(t, w, http.StatusOK)
	var page struct {
		Data     []models.Order `json:"data"`
		Total    int            `json:"total"`
		Page     int            `json:"page"`
		PageSize int            `json:"page_size"`
	}
	decode(t, w, &page)
	if page.Total != 1 || len(page.Data) != 1 || page.Page != 1 || page.PageSize != 20 {
		t.Errorf("page = %+v", page)
	}
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown order", http.MethodGet, "/orders/404", nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad id", http.MethodGet, "/orders/abc", nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"malformed body", http.MethodPost, "/orders", "{", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing type", http.MethodPost, "/orders", map[string]interface{}{}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"no open day", http.MethodPost, "/orders", map[string]interface{}{"type": "takeaway"}, http.StatusConflict, "CONFLICT"},
		{"bad rate", http.MethodPost, "/settings", map[string]interface{}{"setting_key": "tax_rate", "setting_value": "abc"}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown setting", http.MethodGet, "/settings/missing", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, engine, tc.method, tc.path, tc.body)
			expectStatus(t, w, tc.status)
			var body errorBody
			decode(t, w, &body)
			if body.Error.Code != tc.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tc.code)
			}
		})
	}
}

func TestUnknownComponentIsNotFound(t *testing.T) {
	engine := newTestEngine(t)
	w := doJSON(t, engine, http.MethodPost, "/products", map[string]interface{}{
		"name": "Loop", "type": "manufactured",
		"components": []map[string]interface{}{{"component_id": 999, "quantity_per_unit": "1"}},
	})
	expectStatus(t, w, http.StatusNotFound)
}

func TestExternalOrderReplayAnswers200(t *testing.T) {
	engine := newTestEngine(t)
	burgerID := seedBurger(t, engine)

	req := map[string]interface{}{
		"external_ref": "WEB-77",
		"type":         "web_takeaway",
		"customer":     map[string]interface{}{"name": "Sara", "phone": "+965 5555 1234"},
		"items":        []map[string]interface{}{{"product_id": burgerID, "quantity": "1"}},
		"sub_total":    "10",
		"total":        "10",
	}
	expectStatus(t, doJSON(t, engine, http.MethodPost, "/external/orders", req), http.StatusCreated)

	w := doJSON(t, engine, http.MethodPost, "/external/orders", req)
	expectStatus(t, w, http.StatusOK)
	var result services.ExternalOrderResult
	decode(t, w, &result)
	if !result.Replayed {
		t.Error("replay not reported")
	}
}

func TestRespondServiceErrorHidesUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondServiceError(c, "Test", fmt.Errorf("dial tcp: connection refused"))
	expectStatus(t, w, http.StatusInternalServerError)
	var body errorBody
	decode(t, w, &body)
	if body.Error.Message != "Internal server error" {
		t.Errorf("message = %q", body.Error.Message)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondServiceError(c, "Test", fmt.Errorf("%w: table 3", services.ErrTableAlreadyReserved))
	expectStatus(t, w, http.StatusConflict)
}
