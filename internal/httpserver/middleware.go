package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/tokens"
)

const (
	ctxUserID     = "user_id"
	ctxBusinessID = "business_id"
	ctxRole       = "role"
)

type AuthMiddleware struct {
	JWTSecret []byte
	Repo      *repo.GormRepo
}

// RequireAuth resolves the (userId, businessId, role) triple from the bearer
// token into the request context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		claims, err := tokens.AccessClaimsFromToken(tokenStr, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxBusinessID, claims.BusinessID)
		c.Set(ctxRole, claims.Role)
		return next(c)
	}
}

// RequireRole gates a route to specific roles; admin always passes.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := map[string]bool{string(models.RoleAdmin): true}
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ctxRole).(string)
			if !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// RequireActiveLicense blocks mutations for expired tenants. Reads still work
// so a lapsed restaurant can see its data.
func (m *AuthMiddleware) RequireActiveLicense(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			return next(c)
		}
		businessID, err := businessIDFrom(c)
		if err != nil {
			return err
		}
		business, err := m.Repo.GetBusiness(c.Request().Context(), businessID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown business")
		}
		if business.ExpiresAt != nil && business.ExpiresAt.Before(time.Now().UTC()) {
			return echo.NewHTTPError(http.StatusConflict, "license expired")
		}
		return next(c)
	}
}

func userIDFrom(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get(ctxUserID).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func businessIDFrom(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get(ctxBusinessID).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}
