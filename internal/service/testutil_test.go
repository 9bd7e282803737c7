package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/notify"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/transport"
)

// recordingDispatcher captures dispatched events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recordingDispatcher) byType(t notify.EventType) []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Event
	for _, ev := range d.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	rp         *repo.GormRepo
	dispatcher *recordingDispatcher

	orders    *OrderService
	payments  *PaymentService
	inventory *InventoryService
	tables    *TableService
	shifts    *ShiftService
	auth      *AuthService
	catalog   *CatalogService

	business   models.Business
	waiter     models.User
	cashier    models.User
	supervisor models.User
	table      models.Table
	burger     models.Product
	beer       models.Product
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func eqDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled :memory: database is one database per connection; pin to one.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	rp := &repo.GormRepo{DB: db}
	dispatcher := &recordingDispatcher{}

	env := &testEnv{
		db:         db,
		rp:         rp,
		dispatcher: dispatcher,
	}
	env.inventory = &InventoryService{Repo: rp, Dispatcher: dispatcher}
	env.orders = &OrderService{Repo: rp, Dispatcher: dispatcher}
	env.payments = &PaymentService{Repo: rp, Inventory: env.inventory, Dispatcher: dispatcher}
	env.tables = &TableService{Repo: rp}
	env.shifts = &ShiftService{Repo: rp}
	env.auth = &AuthService{Repo: rp, JWTSecret: []byte("test-jwt-secret")}
	env.catalog = &CatalogService{Repo: rp}

	env.business = models.Business{Name: "La Mesa", TaxRate: dec("0.10")}
	require.NoError(t, db.Create(&env.business).Error)

	env.waiter = models.User{
		BusinessID: env.business.ID, Username: "ana", Role: models.RoleWaiter,
		Pin: "4321", Active: true, PasswordHash: "x",
	}
	env.cashier = models.User{
		BusinessID: env.business.ID, Username: "beto", Role: models.RoleCashier,
		Active: true, PasswordHash: "x",
	}
	env.supervisor = models.User{
		BusinessID: env.business.ID, Username: "carla", Role: models.RoleSupervisor,
		Pin: "9999", Active: true, PasswordHash: "x",
	}
	require.NoError(t, db.Create(&env.waiter).Error)
	require.NoError(t, db.Create(&env.cashier).Error)
	require.NoError(t, db.Create(&env.supervisor).Error)

	env.table = models.Table{BusinessID: env.business.ID, Number: 5, Capacity: 4, Status: models.TableFree}
	require.NoError(t, db.Create(&env.table).Error)

	env.burger = models.Product{
		BusinessID: env.business.ID, Name: "burger", Price: dec("100"),
		Type: models.ProductFood, Active: true,
	}
	env.beer = models.Product{
		BusinessID: env.business.ID, Name: "beer", Price: dec("150"),
		Type: models.ProductDrink, Active: true,
	}
	require.NoError(t, db.Create(&env.burger).Error)
	require.NoError(t, db.Create(&env.beer).Error)

	return env
}

// createOrder opens a standard order: 1 burger + 1 beer on table 5, total
// 275.00 with the 10% tax.
func (env *testEnv) createOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := env.orders.Create(context.Background(), env.business.ID, env.waiter.ID, transport.CreateOrderRequest{
		TableID: env.table.ID,
		Items: []transport.OrderItemRequest{
			{ProductID: env.burger.ID, Quantity: 1},
			{ProductID: env.beer.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

// readyOrder advances a fresh order to READY so it is payable.
func (env *testEnv) readyOrder(t *testing.T) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := env.createOrder(t)
	order, err := env.orders.Send(ctx, env.business.ID, order.ID)
	require.NoError(t, err)
	for _, item := range order.Items {
		order, err = env.orders.UpdateItemStatus(ctx, env.business.ID, item.ID, models.ItemReady)
		require.NoError(t, err)
	}
	require.Equal(t, models.OrderReady, order.Status)
	return order
}

func (env *testEnv) reloadTable(t *testing.T) *models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, env.db.First(&table, "id = ?", env.table.ID).Error)
	return &table
}

func (env *testEnv) seedStock(t *testing.T, productID uuid.UUID, qty, min string) {
	t.Helper()
	inv := models.Inventory{
		BusinessID: env.business.ID,
		ProductID:  productID,
		Quantity:   dec(qty),
		MinStock:   dec(min),
	}
	require.NoError(t, env.db.Create(&inv).Error)
}

func itemNamed(t *testing.T, order *models.Order, name string) models.OrderItem {
	t.Helper()
	for _, item := range order.Items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("order has no item %q", name)
	return models.OrderItem{}
}

func (env *testEnv) stockOf(t *testing.T, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	var inv models.Inventory
	require.NoError(t, env.db.First(&inv, "product_id = ?", productID).Error)
	return inv.Quantity
}
