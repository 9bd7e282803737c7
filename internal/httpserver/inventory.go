package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/transport"
)

type InventoryHTTP struct {
	Svc *service.InventoryService
}

func (h *InventoryHTTP) List(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.List(c.Request().Context(), businessID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *InventoryHTTP) Adjust(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	inv, err := h.Svc.Adjust(c.Request().Context(), businessID, userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InventoryHTTP) Increment(c echo.Context) error {
	return h.apply(c, false)
}

func (h *InventoryHTTP) Decrement(c echo.Context) error {
	return h.apply(c, true)
}

func (h *InventoryHTTP) apply(c echo.Context, decrement bool) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	var reqs []transport.StockLineRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	lines := make([]service.StockLine, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, service.StockLine{ProductID: r.ProductID, Qty: r.Qty})
	}
	ctx := c.Request().Context()
	if decrement {
		err = h.Svc.Decrement(ctx, businessID, lines)
	} else {
		err = h.Svc.Increment(ctx, businessID, lines)
	}
	if err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
