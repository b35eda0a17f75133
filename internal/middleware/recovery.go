package middleware

import (
    "fmt"
    "net/http"
    "runtime"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// Recovery turns a handler panic into a generic 500 and logs the stack.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                if r := recover(); r != nil {
                    var stack [4096]byte
                    n := runtime.Stack(stack[:], false)

                    logger.Error().
                        Str("request_id", RequestIDFrom(c)).
                        Str("panic", fmt.Sprintf("%v", r)).
                        Str("stack", string(stack[:n])).
                        Msg("panic recovered")

                    err = c.JSON(http.StatusInternalServerError, echo.Map{
                        "status":  "error",
                        "message": "An internal error occurred.",
                    })
                }
            }()
            return next(c)
        }
    }
}
