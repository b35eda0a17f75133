package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/maternal-vitals/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated principal has one of the specified roles.  It assumes
// JWTAuth ran earlier in the chain; a request without a principal is
// rejected with 401, a principal with another role with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            p, ok := PrincipalFrom(c)
            if !ok {
                return unauthorized(c, "authentication required")
            }
            if !allowed[p.Role] {
                return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "forbidden"})
            }
            return next(c)
        }
    }
}
