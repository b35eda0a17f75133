package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// Logger writes one structured line per request.  Principal ids are logged;
// request bodies never are.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            err := next(c)
            if err != nil {
                // Let echo render the error so the logged status is final.
                c.Error(err)
            }

            evt := logger.Info()
            if status := c.Response().Status; status >= 500 {
                evt = logger.Error().Err(err)
            } else if status >= 400 {
                evt = logger.Warn()
            }
            evt.
                Str("request_id", RequestIDFrom(c)).
                Str("method", req.Method).
                Str("path", req.URL.Path).
                Int("status", c.Response().Status).
                Dur("latency", time.Since(start)).
                Str("remote_ip", c.RealIP()).
                Str("principal", principalID(c)).
                Msg("request")
            return nil
        }
    }
}
