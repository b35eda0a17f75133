package handler // handler defines http handlers

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/maternal-vitals/internal/middleware"
    "github.com/iliyamo/maternal-vitals/internal/service"
)

// genericServerError is the only text a 5xx response ever carries.
const genericServerError = "An internal error occurred. Please try again later."

func errorJSON(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"status": "error", "message": msg})
}

// writeError maps a service error onto an HTTP status and body.  Client
// errors echo the error text; everything else is logged and answered with
// genericServerError.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
    switch {
    case errors.Is(err, service.ErrMissingField):
        return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
    case errors.Is(err, service.ErrValidation):
        return errorJSON(c, http.StatusBadRequest, err.Error())
    case errors.Is(err, service.ErrAuthentication):
        return errorJSON(c, http.StatusUnauthorized, "Invalid user ID or password.")
    case errors.Is(err, service.ErrUnauthorizedDevice):
        return errorJSON(c, http.StatusForbidden, err.Error())
    case errors.Is(err, service.ErrAuthorization):
        return errorJSON(c, http.StatusForbidden, "Access denied.")
    case errors.Is(err, service.ErrNotFound):
        return errorJSON(c, http.StatusNotFound, "Not found.")
    case errors.Is(err, service.ErrConflict):
        return errorJSON(c, http.StatusConflict, err.Error())
    }
    log.Error().Err(err).
        Str("request_id", middleware.RequestIDFrom(c)).
        Str("path", c.Request().URL.Path).
        Msg("request failed")
    return errorJSON(c, http.StatusInternalServerError, genericServerError)
}

// currentPrincipal returns the caller set by JWTAuth.  Routes using it are
// always mounted behind JWTAuth, so a miss means a wiring bug.
func currentPrincipal(c echo.Context) (service.Principal, error) {
    p, ok := middleware.PrincipalFrom(c)
    if !ok {
        return service.Principal{}, service.ErrAuthentication
    }
    return p, nil
}
