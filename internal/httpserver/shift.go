package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/transport"
)

type ShiftHTTP struct {
	Svc *service.ShiftService
}

func (h *ShiftHTTP) Open(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.OpenShiftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	shift, err := h.Svc.Open(c.Request().Context(), businessID, userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, shift)
}

func (h *ShiftHTTP) Current(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	shift, err := h.Svc.Current(c.Request().Context(), businessID, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, shift)
}

func (h *ShiftHTTP) AddMovement(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.CashMovementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	movement, err := h.Svc.AddMovement(c.Request().Context(), businessID, userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, movement)
}

func (h *ShiftHTTP) Close(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.CloseShiftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	shift, err := h.Svc.Close(c.Request().Context(), businessID, userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, shift)
}
