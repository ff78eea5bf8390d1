package auth

import (
	"fmt"
	"net/http"
	"scene-service/internal/domain/user"
	"scene-service/internal/repository"
	apperrors "scene-service/pkg/errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	jwtService *JWTService
	hub        *HubClient
	userRepo   repository.UserRepository
}

func NewMiddleware(jwtService *JWTService, hub *HubClient, userRepo repository.UserRepository) *Middleware {
	return &Middleware{
		jwtService: jwtService,
		hub:        hub,
		userRepo:   userRepo,
	}
}

// RequireHubUser resolves the request credential to a user before any
// downstream handler runs. Credential lookup order: login_token query
// param, Authorization bearer header, access-token cookie.
func (m *Middleware) RequireHubUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractCredential(c)
			if token == "" {
				return respondError(c, http.StatusUnauthorized, msgMissingCredential)
			}

			claims, err := m.jwtService.Verify(token)
			if err != nil {
				return respondError(c, http.StatusUnauthorized, msgInvalidOrExpiredToken)
			}

			hubUser, err := m.hub.FetchUser(c.Request().Context(), claims.HubToken)
			if err != nil {
				return respondError(c, http.StatusUnauthorized, msgHubUserFetchFailed)
			}

			if !m.hub.HasAccess(hubUser) {
				return respondError(c, http.StatusForbidden, fmt.Sprintf(msgUserNotAuthorizedFmt, hubUser.Name))
			}

			// First successful resolution creates the local row; later
			// ones refresh the hub-derived fields.
			u, err := m.userRepo.UpsertByUsername(c.Request().Context(), user.UpsertUserInput{
				Username: hubUser.Name,
				IsAdmin:  hubUser.Admin,
				Scopes:   hubUser.Scopes,
			})
			if err != nil {
				return respondError(c, http.StatusInternalServerError, err.Error())
			}

			c.Set(ContextKeyUserID, u.ID)
			c.Set(ContextKeyAuthType, AuthTypeHub)

			return next(c)
		}
	}
}

func extractCredential(c echo.Context) string {
	if token := c.QueryParam(QueryLoginToken); token != "" {
		return token
	}

	if token := extractBearerToken(c); token != "" {
		return token
	}

	if cookie, err := c.Cookie(CookieAccessToken); err == nil && cookie != nil {
		return cookie.Value
	}

	return ""
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}

// GetUserID returns the id of the hub-resolved user stored on the
// context by RequireHubUser.
func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID := c.Get(ContextKeyUserID)
	if userID == nil {
		return uuid.Nil, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalServer(msgInvalidUserCtx, nil)
	}

	return id, nil
}

func GetAuthType(c echo.Context) AuthType {
	if authType, ok := c.Get(ContextKeyAuthType).(AuthType); ok {
		return authType
	}
	return ""
}
