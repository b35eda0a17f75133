package handler

import (
    "context"             // provides context with cancellation for DB calls
    "database/sql"         // sql.ErrNoRows from the token store
    "errors"               // error matching
    "net/http"             // HTTP status codes and primitives
    "strings"              // string manipulation utilities
    "time"                 // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
    "github.com/rs/zerolog"       // structured logging

    "github.com/iliyamo/maternal-vitals/internal/config"  // app configuration
    "github.com/iliyamo/maternal-vitals/internal/model"   // account types
    "github.com/iliyamo/maternal-vitals/internal/service" // identity registry
    "github.com/iliyamo/maternal-vitals/internal/utils"   // token issuing and hashing
)

type identityService interface {
    Register(ctx context.Context, in service.Registration) (string, error)
    Verify(ctx context.Context, id, password string) (model.Account, error)
    Account(ctx context.Context, id string) (model.Account, error)
}

type tokenStore interface {
    StoreRefresh(ctx context.Context, accountID, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForAccount(ctx context.Context, accountID string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Identity identityService
    Tokens   tokenStore
    Log      zerolog.Logger
}

func NewAuthHandler(cfg config.Config, identity identityService, t tokenStore, log zerolog.Logger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Identity: identity, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerReq struct {
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Email     string `json:"email"`
    Password  string `json:"password"`
    Address   string `json:"address"`
    DoctorID  string `json:"doctor_id"` // optional DOC id
}
type loginReq struct {
    UserID   string `json:"user_id"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    string `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    Status  string    `json:"status"`
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// Register: create a patient account and return its PID.  No session is
// opened; the patient logs in with the PID afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid payload.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    pid, err := h.Identity.Register(ctx, service.Registration{
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Email:     req.Email,
        Password:  req.Password,
        Address:   req.Address,
        DoctorID:  req.DoctorID,
    })
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "status":  "success",
        "message": "Registration successful.",
        "data":    echo.Map{"pid": pid},
    })
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid payload.")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    a, err := h.Identity.Verify(ctx, req.UserID, req.Password)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    resp, err := h.issue(ctx, a)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return errorJSON(c, http.StatusBadRequest, "refresh_token required.")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if errors.Is(err, sql.ErrNoRows) {
        return errorJSON(c, http.StatusUnauthorized, "Invalid refresh token.")
    }
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return writeError(c, h.Log, err)
    }

    a, err := h.Identity.Account(ctx, accountID)
    if errors.Is(err, service.ErrNotFound) {
        return errorJSON(c, http.StatusUnauthorized, "Invalid refresh token.")
    }
    if err != nil {
        return writeError(c, h.Log, err)
    }
    resp, err := h.issue(ctx, a)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// issue signs an access token and stores a fresh refresh token for a.
func (h *AuthHandler) issue(ctx context.Context, a model.Account) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, string(a.Role), h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, a.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        Status:  "success",
        User:    userPart{ID: a.ID, Email: a.Email, Role: string(a.Role)},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Logout revokes one session when a refresh_token is posted, otherwise
// every session of the caller.  Mounted behind JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
    p, err := currentPrincipal(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    var req refreshReq
    _ = c.Bind(&req) // an empty or invalid body means "all sessions"
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if refreshToken == "" {
        if err := h.Tokens.RevokeAllForAccount(ctx, p.AccountID); err != nil {
            return writeError(c, h.Log, err)
        }
        return c.NoContent(http.StatusNoContent)
    }

    hash := utils.HashRefreshRaw(refreshToken)
    owner, err := h.Tokens.ValidateRefresh(ctx, hash)
    if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != p.AccountID) {
        return errorJSON(c, http.StatusUnauthorized, "Invalid refresh token.")
    }
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
    p, err := currentPrincipal(c)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "status":  "success",
        "user_id": p.AccountID,
        "role":    p.Role,
    })
}
