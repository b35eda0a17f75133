package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/maternal-vitals/internal/model"
    "github.com/iliyamo/maternal-vitals/internal/service"
    "github.com/iliyamo/maternal-vitals/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// turns its subject and role claims into a service.Principal stored on the
// context.  The provided secret must match the one used when issuing tokens.
// Handlers read the caller through PrincipalFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            // HS256 only; expired or tampered tokens fail here.
            sub, role, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return unauthorized(c, "invalid token")
            }
            r := model.Role(role)
            if !r.Valid() {
                return unauthorized(c, "invalid claims")
            }

            SetPrincipal(c, service.Principal{AccountID: sub, Role: r})
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": msg})
}
