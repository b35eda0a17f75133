package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or generates a UUID, stores it
// as "request_id" on the context and echoes it in the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            rid := c.Request().Header.Get(RequestIDHeader)
            if rid == "" || len(rid) > 128 {
                rid = uuid.NewString()
            }
            c.Set("request_id", rid)
            c.Response().Header().Set(RequestIDHeader, rid)
            return next(c)
        }
    }
}

// RequestIDFrom returns the id set by RequestID, or "".
func RequestIDFrom(c echo.Context) string {
    rid, _ := c.Get("request_id").(string)
    return rid
}
