package handler

import (
	"net/http"
	"time"

	"scene-service/internal/audit"
	"scene-service/internal/auth"
	"scene-service/internal/config"
	"scene-service/internal/repository"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	hub          *auth.HubClient
	jwtService   *auth.JWTService
	hubCfg       *config.HubConfig
	userRepo     repository.UserRepository
	redirectURI  string
	cookieMaxAge time.Duration
	auditLogger  AuditLogger
}

func NewAuthHandler(hub *auth.HubClient, jwtService *auth.JWTService, hubCfg *config.HubConfig, userRepo repository.UserRepository, publicBaseURL string, cookieMaxAge time.Duration, auditLogger AuditLogger) *AuthHandler {
	return &AuthHandler{
		hub:          hub,
		jwtService:   jwtService,
		hubCfg:       hubCfg,
		userRepo:     userRepo,
		redirectURI:  hubCfg.RedirectURI(publicBaseURL),
		cookieMaxAge: cookieMaxAge,
		auditLogger:  auditLogger,
	}
}

// Login handles GET /login by redirecting the browser to the hub's
// OAuth2 authorization endpoint.
func (h *AuthHandler) Login(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.hubCfg.AuthorizeURL())
}

// OAuthCallback handles GET /oauth_callback: the authorization code is
// exchanged for a hub access token, which is wrapped in a locally signed
// JWT and set as an HTTP-only session cookie.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	code := c.QueryParam(queryCode)
	if code == "" {
		return respondError(c, http.StatusBadRequest, msgMissingAuthCode)
	}

	hubToken, err := h.hub.ExchangeCode(c.Request().Context(), code, h.redirectURI)
	if err != nil {
		h.auditLogger.LogError(c, audit.ResourceTypeUser, nil, audit.ActionLogin, err)
		return respondError(c, http.StatusUnauthorized, msgTokenExchangeFailed)
	}

	sessionToken, err := h.jwtService.Generate(hubToken)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, msgGenerateTokenFail)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.CookieAccessToken,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.auditLogger.LogFromContext(c, audit.ResourceTypeUser, nil, audit.ActionLogin, audit.StatusSuccess, nil)

	return c.Redirect(http.StatusFound, "/")
}

// Me handles GET /me, returning the stored user record for the request
// credential. Reading the row back rather than echoing the context user
// surfaces what was actually persisted at resolution time.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return err
	}

	u, err := h.userRepo.GetByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, u)
}
