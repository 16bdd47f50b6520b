package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/config"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/handler"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository/repotest"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/server"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("%032x", g.n)
}

type seqNumbers struct{ n int }

func (g *seqNumbers) Next(now time.Time) string {
	g.n++
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), 1000+g.n)
}

type testApp struct {
	e        *echo.Echo
	store    *repotest.Store
	issuer   usecase.JWTIssuer
	customer model.User
	admin    model.User
}

// 本番と同じルーティングを in-memory ストアで組み立てる
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Config{JWTSecret: "test-secret"}
	clk := clock.Func(func() time.Time { return fixedNow })
	store := repotest.NewStore(clk)

	// トークンの exp は実時間で判定されるので発行は Real
	issuer := usecase.JWTIssuer{Secret: []byte(cfg.JWTSecret), TTL: time.Hour, Clock: clock.Real{}}

	authUC := usecase.NewAuthUsecase(store, validator.NewAuthValidator(), issuer, 4)
	productUC := usecase.NewProductUsecase(store)
	promotionUC := usecase.NewPromotionUsecase(store, nil, clk)
	ids := &seqIDs{}
	numbers := &seqNumbers{}

	e := server.New(cfg, zerolog.Nop(), server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC, promotionUC),
		Cart:         handler.NewCartHandler(usecase.NewCartUsecase(store, promotionUC)),
		Order:        handler.NewOrderHandler(usecase.NewOrderUsecase(store, clk, ids, numbers), usecase.NewCheckoutUsecase(store, clk, ids, numbers)),
		Promotion:    handler.NewPromotionHandler(promotionUC),
		AdminOrder:   handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(store, clk)),
		AdminProduct: handler.NewAdminProductHandler(productUC),
	})

	return &testApp{
		e:        e,
		store:    store,
		issuer:   issuer,
		customer: store.AddUser(model.User{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith"}),
		admin:    store.AddUser(model.User{Username: "admin", Email: "admin@example.com", Role: model.RoleAdmin}),
	}
}

func (a *testApp) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, _, err := a.issuer.Issue(u)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestRoutes_Authorization(t *testing.T) {
	app := newTestApp(t)
	customer := app.token(t, app.customer)
	admin := app.token(t, app.admin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"catalog is public", http.MethodGet, "/products", "", http.StatusOK},
		{"active promotions are public", http.MethodGet, "/promotions/active", "", http.StatusOK},
		{"cart needs login", http.MethodGet, "/cart", "", http.StatusUnauthorized},
		{"cart for customer", http.MethodGet, "/cart", customer, http.StatusOK},
		{"my orders for customer", http.MethodGet, "/orders/my-orders", customer, http.StatusOK},
		{"admin orders forbidden for customer", http.MethodGet, "/admin/orders", customer, http.StatusForbidden},
		{"admin orders for admin", http.MethodGet, "/admin/orders", admin, http.StatusOK},
		{"audit logs forbidden for customer", http.MethodGet, "/admin/audit-logs", customer, http.StatusForbidden},
		{"promotion list forbidden for customer", http.MethodGet, "/promotions", customer, http.StatusForbidden},
		{"promotion list for admin", http.MethodGet, "/promotions", admin, http.StatusOK},
		{"order status needs login", http.MethodPatch, "/orders/1/status", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRoutes_ForbiddenBody(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/admin/products", app.token(t, app.customer), map[string]any{"name": "x"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	body := decode[errorBody](t, rec)
	assert.Equal(t, "forbidden", body.Error)
	assert.Equal(t, usecase.CodeForbidden, body.Code)
}

// カート → チェックアウト → 注文確認 → 管理者が配送済みにする
func TestCheckoutFlow(t *testing.T) {
	app := newTestApp(t)
	customer := app.token(t, app.customer)
	admin := app.token(t, app.admin)

	p := app.store.AddProduct(model.Product{Name: "Mug", Price: decimal.RequireFromString("12.50"), Stock: 10, IsActive: true})
	app.store.AddPromotion(model.Promotion{
		Name:          "Summer",
		Code:          "SUMMER15",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(15),
		IsActive:      true,
		StartDate:     fixedNow.AddDate(0, -1, 0),
		EndDate:       fixedNow.AddDate(0, 1, 0),
	})

	rec := app.do(t, http.MethodPost, "/cart/items", customer, map[string]any{"product_id": p.ID, "quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decode[usecase.CartResponse](t, rec)
	assert.True(t, decimal.RequireFromString("50").Equal(cart.SubTotal))

	rec = app.do(t, http.MethodPost, "/checkout", customer, map[string]any{
		"shipping_address": "1 Main St",
		"payment_method":   "CreditCard",
		"promotion_code":   "summer15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[usecase.CheckoutOutput](t, rec)
	assert.True(t, decimal.RequireFromString("42.5").Equal(out.Total), out.Total.String())
	assert.Equal(t, "ORD-20240615-1001", out.Order.OrderNumber)
	assert.Equal(t, model.PaymentStatusPending, out.Payment.Status)
	assert.Equal(t, int64(6), app.store.Product(p.ID).Stock)
	assert.Zero(t, app.store.CartItemCount())

	rec = app.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", out.Order.ID), customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice Smith", decode[usecase.OrderOutput](t, rec).UserName)

	rec = app.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/status", out.Order.ID), customer, map[string]any{"status": "Shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/status", out.Order.ID), admin, map[string]any{"status": "Delivered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[usecase.OrderOutput](t, rec)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveryDate)

	rec = app.do(t, http.MethodGet, "/admin/audit-logs?action=update_order_status,%20UPDATE_STOCK", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[usecase.AuditLogPage](t, rec)
	assert.Equal(t, int64(1), logs.Total)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, model.AuditResourceOrder, logs.Items[0].ResourceType)

	rec = app.do(t, http.MethodGet, "/admin/audit-logs?action=DROP_TABLE", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/checkout", app.token(t, app.customer), map[string]any{
		"shipping_address": "1 Main St",
		"payment_method":   "CreditCard",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, usecase.CodeCartEmpty, decode[errorBody](t, rec).Code)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	app := newTestApp(t)
	p := app.store.AddProduct(model.Product{Name: "Lamp", Price: decimal.NewFromInt(30), Stock: 1, IsActive: true})

	rec := app.do(t, http.MethodPost, "/orders", app.token(t, app.customer), map[string]any{
		"shipping_address": "1 Main St",
		"payment_method":   "CreditCard",
		"items":            []map[string]any{{"product_id": p.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[errorBody](t, rec)
	assert.Equal(t, usecase.CodeInsufficientStock, body.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "items[0]", body.Errors[0].Field)
	assert.Equal(t, int64(1), app.store.Product(p.ID).Stock)
	assert.Zero(t, app.store.OrderCount())
}

func TestRegisterThenLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "carol",
		"email":    "Carol@Example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "carol@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[usecase.AuthOutput](t, rec)
	assert.Equal(t, model.RoleCustomer, out.Role)

	// 発行されたトークンでカートが読める
	rec = app.do(t, http.MethodGet, "/cart", out.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", "", map[string]any{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[errorBody](t, rec)
	assert.Equal(t, usecase.CodeValidation, body.Code)
	fields := make([]string, 0, len(body.Errors))
	for _, fe := range body.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"username", "email", "password"}, fields)
}

func TestBadParams(t *testing.T) {
	app := newTestApp(t)
	admin := app.token(t, app.admin)

	tests := []struct {
		name string
		path string
	}{
		{"non numeric product id", "/products/abc"},
		{"bad page", "/products?page=x"},
		{"bad min price", "/products?min_price=cheap"},
		{"bad from", "/admin/orders?from=yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, tt.path, admin, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, usecase.CodeValidation, decode[errorBody](t, rec).Code)
		})
	}
}

func TestProductPrice_Preview(t *testing.T) {
	app := newTestApp(t)
	p := app.store.AddProduct(model.Product{Name: "Pen", Price: decimal.RequireFromString("8.00"), Stock: 5, IsActive: true})
	app.store.AddPromotion(model.Promotion{
		Name:          "Ten off",
		Code:          "TENOFF",
		DiscountType:  model.DiscountFixedAmount,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
		StartDate:     fixedNow.AddDate(0, -1, 0),
		EndDate:       fixedNow.AddDate(0, 1, 0),
	})

	rec := app.do(t, http.MethodGet, fmt.Sprintf("/products/%d/price?promotion_code=TENOFF", p.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[usecase.ProductPriceOutput](t, rec)
	assert.True(t, out.FinalPrice.IsZero(), out.FinalPrice.String())
}
