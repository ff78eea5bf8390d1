package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scene-service/internal/config"
	"scene-service/internal/domain/user"
	apperrors "scene-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	upserts []user.UpsertUserInput
}

func (f *fakeUserRepo) UpsertByUsername(ctx context.Context, input user.UpsertUserInput) (*user.User, error) {
	f.upserts = append(f.upserts, input)
	return &user.User{
		ID:       uuid.New(),
		Username: input.Username,
		IsActive: true,
		IsAdmin:  input.IsAdmin,
		Scopes:   input.Scopes,
	}, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return nil, apperrors.NotFound("user not found")
}

// newHubServer serves the hub's /user endpoint, accepting only the given
// access token.
func newHubServer(t *testing.T, acceptToken string, respond HubUser) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hub/api/user" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+acceptToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(respond)
	}))
}

func newTestMiddleware(hubURL string, scopes []string, repo *fakeUserRepo) (*Middleware, *JWTService) {
	cfg := &config.HubConfig{
		Host:         hubURL,
		APIPrefix:    "/hub/api",
		ClientID:     "service-scenes",
		APIToken:     "api-token",
		AccessScopes: scopes,
	}
	jwtService := NewJWTService("k9Xm2pQ7vR4nW8jL3tY6bF1cH5dG0sZa", time.Hour)
	return NewMiddleware(jwtService, NewHubClient(cfg), repo), jwtService
}

func runMiddleware(m *Middleware, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	handler := m.RequireHubUser()(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	if captured == nil {
		captured = c
	}
	return rec, captured, err
}

func TestRequireHubUser_CookieCredential(t *testing.T) {
	hub := newHubServer(t, "hub-token", HubUser{
		Name:   "ada",
		Admin:  true,
		Scopes: []string{"access:services"},
	})
	defer hub.Close()

	repo := &fakeUserRepo{}
	m, jwtService := newTestMiddleware(hub.URL, []string{"access:services"}, repo)

	sessionToken, err := jwtService.Generate("hub-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)
	req.AddCookie(&http.Cookie{Name: CookieAccessToken, Value: sessionToken})

	rec, c, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	userID, err := GetUserID(c)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, userID)
	assert.Equal(t, AuthTypeHub, GetAuthType(c))

	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "ada", repo.upserts[0].Username)
	assert.True(t, repo.upserts[0].IsAdmin)
}

func TestRequireHubUser_BearerCredential(t *testing.T) {
	hub := newHubServer(t, "hub-token", HubUser{
		Name:   "ada",
		Scopes: []string{"access:services"},
	})
	defer hub.Close()

	m, jwtService := newTestMiddleware(hub.URL, []string{"access:services"}, &fakeUserRepo{})

	sessionToken, err := jwtService.Generate("hub-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	rec, _, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireHubUser_LoginTokenQueryParam(t *testing.T) {
	hub := newHubServer(t, "hub-token", HubUser{
		Name:   "ada",
		Scopes: []string{"access:services"},
	})
	defer hub.Close()

	m, jwtService := newTestMiddleware(hub.URL, []string{"access:services"}, &fakeUserRepo{})

	sessionToken, err := jwtService.Generate("hub-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes?login_token="+sessionToken, nil)

	rec, _, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireHubUser_MissingCredential(t *testing.T) {
	m, _ := newTestMiddleware("http://hub.invalid", []string{"access:services"}, &fakeUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)

	rec, _, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireHubUser_InvalidToken(t *testing.T) {
	m, _ := newTestMiddleware("http://hub.invalid", []string{"access:services"}, &fakeUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	rec, _, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireHubUser_HubRejectsToken(t *testing.T) {
	hub := newHubServer(t, "other-token", HubUser{Name: "ada"})
	defer hub.Close()

	m, jwtService := newTestMiddleware(hub.URL, []string{"access:services"}, &fakeUserRepo{})

	sessionToken, err := jwtService.Generate("hub-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	rec, _, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireHubUser_ScopeMismatchForbidden(t *testing.T) {
	hub := newHubServer(t, "hub-token", HubUser{
		Name:   "ada",
		Scopes: []string{"read:users"},
	})
	defer hub.Close()

	repo := &fakeUserRepo{}
	m, jwtService := newTestMiddleware(hub.URL, []string{"access:services"}, repo)

	sessionToken, err := jwtService.Generate("hub-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	rec, _, err := runMiddleware(m, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, repo.upserts)
}

func TestHubClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/hub/api/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "service-scenes", r.PostForm.Get("client_id"))
		assert.Equal(t, "api-token", r.PostForm.Get("client_secret"))
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "hub-token",
			"token_type":   "Bearer",
		})
	}))
	defer srv.Close()

	client := NewHubClient(&config.HubConfig{
		Host:      srv.URL,
		APIPrefix: "/hub/api",
		ClientID:  "service-scenes",
		APIToken:  "api-token",
	})

	token, err := client.ExchangeCode(context.Background(), "the-code", "http://localhost:8080/oauth_callback")
	require.NoError(t, err)
	assert.Equal(t, "hub-token", token)
}

func TestHubClient_ExchangeCodeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewHubClient(&config.HubConfig{
		Host:      srv.URL,
		APIPrefix: "/hub/api",
		ClientID:  "service-scenes",
		APIToken:  "api-token",
	})

	_, err := client.ExchangeCode(context.Background(), "bad-code", "http://localhost:8080/oauth_callback")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestHasAccess(t *testing.T) {
	client := NewHubClient(&config.HubConfig{
		AccessScopes: []string{"access:services", "admin:users"},
	})

	assert.True(t, client.HasAccess(&HubUser{Scopes: []string{"access:services"}}))
	assert.True(t, client.HasAccess(&HubUser{Scopes: []string{"read:users", "admin:users"}}))
	assert.False(t, client.HasAccess(&HubUser{Scopes: []string{"read:users"}}))
	assert.False(t, client.HasAccess(&HubUser{}))
}
