package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/models"
)

// Deps bundles everything Register wires onto the echo instance.
type Deps struct {
	Auth      *AuthMiddleware
	AuthH     *AuthHTTP
	Orders    *OrderHTTP
	Payments  *PaymentHTTP
	Tables    *TableHTTP
	Catalog   *CatalogHTTP
	Inventory *InventoryHTTP
	Shifts    *ShiftHTTP
	Events    *EventsHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/auth/login", d.AuthH.Login)

	api := e.Group("/api")
	api.Use(d.Auth.RequireAuth, d.Auth.RequireActiveLicense)

	api.POST("/users", d.AuthH.Register, d.Auth.RequireRole())

	orders := api.Group("/orders")
	orders.POST("", d.Orders.Create, d.Auth.RequireRole(models.RoleWaiter, models.RoleCashier, models.RoleSupervisor))
	orders.GET("", d.Orders.ListActive)
	orders.GET("/:id", d.Orders.Get)
	orders.PUT("/:id/items", d.Orders.UpdateItems, d.Auth.RequireRole(models.RoleWaiter, models.RoleCashier, models.RoleSupervisor))
	orders.POST("/:id/send", d.Orders.Send, d.Auth.RequireRole(models.RoleWaiter, models.RoleCashier, models.RoleSupervisor))
	orders.PUT("/:id/status", d.Orders.UpdateStatus, d.Auth.RequireRole(models.RoleCashier, models.RoleSupervisor, models.RoleWaiter))
	orders.POST("/:id/cancel", d.Orders.Cancel, d.Auth.RequireRole(models.RoleCashier, models.RoleSupervisor))
	orders.PUT("/items/:itemId/status", d.Orders.UpdateItemStatus, d.Auth.RequireRole(
		models.RoleKitchen, models.RoleBar, models.RoleWaiter, models.RoleSupervisor))
	orders.POST("/:id/payments", d.Payments.Pay, d.Auth.RequireRole(models.RoleCashier, models.RoleSupervisor))
	orders.GET("/:id/payments", d.Payments.List)

	tables := api.Group("/tables")
	tables.POST("", d.Tables.Create, d.Auth.RequireRole())
	tables.GET("", d.Tables.List)
	tables.POST("/:id/reserve", d.Tables.Reserve, d.Auth.RequireRole(models.RoleWaiter, models.RoleCashier, models.RoleSupervisor))
	tables.POST("/:id/release", d.Tables.Release, d.Auth.RequireRole(models.RoleWaiter, models.RoleCashier, models.RoleSupervisor))
	tables.POST("/:id/cleaning", d.Tables.StartCleaning, d.Auth.RequireRole(models.RoleWaiter, models.RoleSupervisor))
	tables.POST("/:id/cleaned", d.Tables.FinishCleaning, d.Auth.RequireRole(models.RoleWaiter, models.RoleSupervisor))
	tables.POST("/:id/verify-pin", d.Tables.VerifyPin)

	products := api.Group("/products")
	products.POST("", d.Catalog.Create, d.Auth.RequireRole(models.RoleSupervisor))
	products.GET("", d.Catalog.List)
	products.GET("/search", d.Catalog.Search)
	products.GET("/:id", d.Catalog.Get)
	products.PATCH("/:id", d.Catalog.Patch, d.Auth.RequireRole(models.RoleSupervisor))
	products.PUT("/:id/recipe", d.Catalog.ReplaceRecipe, d.Auth.RequireRole(models.RoleSupervisor))

	inventory := api.Group("/inventory")
	inventory.GET("", d.Inventory.List)
	inventory.POST("/adjust", d.Inventory.Adjust, d.Auth.RequireRole(models.RoleSupervisor))
	inventory.POST("/decrement", d.Inventory.Decrement, d.Auth.RequireRole(models.RoleSupervisor))
	inventory.POST("/increment", d.Inventory.Increment, d.Auth.RequireRole(models.RoleSupervisor))

	shifts := api.Group("/shifts")
	shifts.POST("", d.Shifts.Open, d.Auth.RequireRole(models.RoleCashier, models.RoleSupervisor))
	shifts.GET("/current", d.Shifts.Current)
	shifts.POST("/movements", d.Shifts.AddMovement, d.Auth.RequireRole(models.RoleCashier, models.RoleSupervisor))
	shifts.POST("/close", d.Shifts.Close, d.Auth.RequireRole(models.RoleCashier, models.RoleSupervisor))

	api.GET("/events", d.Events.Stream)
}
