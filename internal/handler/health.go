package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

type pinger interface {
    PingContext(ctx context.Context) error
}

// Health returns a health-check endpoint used by load balancers.  It
// answers 200 when the database responds to a ping within two seconds and
// 503 otherwise.
func Health(db pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "error", "database": "unreachable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "ok"})
    }
}
