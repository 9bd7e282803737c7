package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/service"
	"github.com/mesapos/mesapos/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) Create(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	product, err := h.Svc.CreateProduct(c.Request().Context(), businessID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) Get(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.Svc.GetProduct(c.Request().Context(), businessID, productID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) List(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	activeOnly := c.QueryParam("active") == "true"
	products, err := h.Svc.ListProducts(c.Request().Context(), businessID, activeOnly)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) Patch(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	product, err := h.Svc.PatchProduct(c.Request().Context(), businessID, productID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) ReplaceRecipe(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.ReplaceRecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	recipe, err := h.Svc.ReplaceRecipe(c.Request().Context(), businessID, productID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, recipe)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	businessID, err := businessIDFrom(c)
	if err != nil {
		return err
	}
	query := c.QueryParam("q")
	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size <= 0 || size > 100 {
		size = 20
	}
	total, products, err := h.Svc.SearchProducts(c.Request().Context(), businessID, query, from, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}
