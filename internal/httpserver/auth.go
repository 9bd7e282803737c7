package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	result, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuthHTTP) Register(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	user, err := h.Svc.Register(c.Request().Context(), businessID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}
