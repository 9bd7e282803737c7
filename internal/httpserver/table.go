package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/transport"
)

type TableHTTP struct {
	Svc *service.TableService
}

func (h *TableHTTP) Create(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateTableRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	table, err := h.Svc.Create(c.Request().Context(), businessID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, table)
}

func (h *TableHTTP) List(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	tables, err := h.Svc.List(c.Request().Context(), businessID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *TableHTTP) Reserve(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.ReserveTableRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	table, err := h.Svc.Reserve(c.Request().Context(), businessID, tableID, req.ReservedFor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TableHTTP) Release(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	table, err := h.Svc.Release(c.Request().Context(), businessID, tableID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TableHTTP) StartCleaning(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	table, err := h.Svc.StartCleaning(c.Request().Context(), businessID, tableID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TableHTTP) FinishCleaning(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	table, err := h.Svc.FinishCleaning(c.Request().Context(), businessID, tableID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TableHTTP) VerifyPin(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.VerifyTablePinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	order, err := h.Svc.VerifyPinAndGetOrder(c.Request().Context(), businessID, tableID, req.Pin)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}
