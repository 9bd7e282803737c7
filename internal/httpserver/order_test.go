package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/notify"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/tokens"
)

type handlerEnv struct {
	rp       *repo.GormRepo
	orders   *OrderHTTP
	payments *PaymentHTTP
	mw       *AuthMiddleware

	business models.Business
	waiter   models.User
	table    models.Table
	burger   models.Product
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	rp := &repo.GormRepo{DB: db}
	inventorySvc := &service.InventoryService{Repo: rp, Dispatcher: notify.Discard{}}
	orderSvc := &service.OrderService{Repo: rp, Dispatcher: notify.Discard{}}
	paymentSvc := &service.PaymentService{Repo: rp, Inventory: inventorySvc, Dispatcher: notify.Discard{}}

	env := &handlerEnv{
		rp:       rp,
		orders:   &OrderHTTP{Svc: orderSvc},
		payments: &PaymentHTTP{Svc: paymentSvc},
		mw:       &AuthMiddleware{JWTSecret: []byte("handler-test-secret"), Repo: rp},
	}

	env.business = models.Business{Name: "La Mesa", TaxRate: decimal.RequireFromString("0.10")}
	require.NoError(t, db.Create(&env.business).Error)
	env.waiter = models.User{
		BusinessID: env.business.ID, Username: "ana", Role: models.RoleWaiter,
		Pin: "4321", Active: true, PasswordHash: "x",
	}
	require.NoError(t, db.Create(&env.waiter).Error)
	env.table = models.Table{BusinessID: env.business.ID, Number: 1, Capacity: 4, Status: models.TableFree}
	require.NoError(t, db.Create(&env.table).Error)
	env.burger = models.Product{
		BusinessID: env.business.ID, Name: "burger",
		Price: decimal.RequireFromString("100"), Type: models.ProductFood, Active: true,
	}
	require.NoError(t, db.Create(&env.burger).Error)

	return env
}

// newContext builds an echo context with the auth triple already resolved, the
// way RequireAuth leaves it.
func (env *handlerEnv) newContext(t *testing.T, method, path string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	e := echo.New()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ctxUserID, env.waiter.ID.String())
	c.Set(ctxBusinessID, env.business.ID.String())
	c.Set(ctxRole, string(models.RoleWaiter))
	return c, rec
}

func TestOrderHTTP_Create(t *testing.T) {
	env := newHandlerEnv(t)

	body := map[string]any{
		"table_id": env.table.ID,
		"items":    []map[string]any{{"product_id": env.burger.ID, "quantity": 2}},
	}
	c, rec := env.newContext(t, http.MethodPost, "/api/orders", body)
	require.NoError(t, env.orders.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("220")))

	// The same table again maps the conflict sentinel to 409.
	c, _ = env.newContext(t, http.MethodPost, "/api/orders", body)
	err := env.orders.Create(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestOrderHTTP_Get_BadID(t *testing.T) {
	env := newHandlerEnv(t)

	c, _ := env.newContext(t, http.MethodGet, "/api/orders/nope", nil)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := env.orders.Get(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestOrderHTTP_Get_NotFound(t *testing.T) {
	env := newHandlerEnv(t)

	c, _ := env.newContext(t, http.MethodGet, "/api/orders/x", nil)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := env.orders.Get(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestPaymentHTTP_Pay_PendingOrderUnprocessable(t *testing.T) {
	env := newHandlerEnv(t)

	body := map[string]any{
		"table_id": env.table.ID,
		"items":    []map[string]any{{"product_id": env.burger.ID, "quantity": 1}},
	}
	c, rec := env.newContext(t, http.MethodPost, "/api/orders", body)
	require.NoError(t, env.orders.Create(c))
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	c, _ = env.newContext(t, http.MethodPost, "/api/orders/x/payments",
		map[string]any{"amount": "110", "method": "CASH"})
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())

	err := env.payments.Pay(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
}

func TestHTTPErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad input", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: order", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: busy", service.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: wrong state", service.ErrInvalidState), http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		he := httpError(tt.err)
		assert.Equal(t, tt.code, he.Code)
	}

	// Internals never leak detail.
	assert.Equal(t, "internal error", httpError(fmt.Errorf("pq: password")).Message)
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	env := newHandlerEnv(t)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := env.mw.RequireAuth(next)

	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)

	token, err := tokens.NewAccessToken(env.mw.JWTSecret,
		env.waiter.ID.String(), env.business.ID.String(), string(models.RoleWaiter),
		time.Now().Add(time.Hour))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	c = e.NewContext(req, httptest.NewRecorder())
	require.NoError(t, handler(c))
	assert.Equal(t, env.waiter.ID.String(), c.Get(ctxUserID))
	assert.Equal(t, env.business.ID.String(), c.Get(ctxBusinessID))
	assert.Equal(t, "waiter", c.Get(ctxRole))
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	env := newHandlerEnv(t)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := env.mw.RequireRole(models.RoleCashier)(next)

	c, _ := env.newContext(t, http.MethodPost, "/api/shifts", nil)
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)

	c, rec := env.newContext(t, http.MethodPost, "/api/shifts", nil)
	c.Set(ctxRole, string(models.RoleCashier))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// admin passes every role gate
	c, rec = env.newContext(t, http.MethodPost, "/api/shifts", nil)
	c.Set(ctxRole, string(models.RoleAdmin))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_RequireActiveLicense(t *testing.T) {
	env := newHandlerEnv(t)

	expired := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, env.rp.DB.Model(&models.Business{}).
		Where("id = ?", env.business.ID).
		Update("expires_at", expired).Error)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := env.mw.RequireActiveLicense(next)

	c, _ := env.newContext(t, http.MethodPost, "/api/orders", nil)
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)

	// Reads pass for a lapsed tenant.
	c, rec := env.newContext(t, http.MethodGet, "/api/orders", nil)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
