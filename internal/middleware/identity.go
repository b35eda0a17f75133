package middleware

// identity.go stores and retrieves the authenticated principal on the Echo
// context.  JWTAuth is the only writer; handlers, RequireRole, the rate
// limiter and the response cache read it.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/maternal-vitals/internal/service"
)

const principalKey = "principal"

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p service.Principal) {
    c.Set(principalKey, p)
    c.Set("user_id", p.AccountID)
    c.Set("role", string(p.Role))
}

// PrincipalFrom returns the principal set by JWTAuth.
func PrincipalFrom(c echo.Context) (service.Principal, bool) {
    p, ok := c.Get(principalKey).(service.Principal)
    if !ok || p.AccountID == "" || !p.Role.Valid() {
        return service.Principal{}, false
    }
    return p, true
}

// principalID returns the account id of the caller, or "guest".
func principalID(c echo.Context) string {
    if p, ok := PrincipalFrom(c); ok {
        return p.AccountID
    }
    return "guest"
}
