package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Pay(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.PayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	result, err := h.Svc.Pay(c.Request().Context(), businessID, userID, orderID, req)
	if err != nil {
		return httpError(err)
	}
	status := http.StatusOK
	if result.Completed {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"completed": result.Completed,
		"order":     result.Order,
		"payment":   result.Payment,
	})
}

func (h *PaymentHTTP) List(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	payments, err := h.Svc.ListForOrder(c.Request().Context(), businessID, orderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payments)
}
