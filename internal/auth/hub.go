package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"scene-service/internal/config"
	apperrors "scene-service/pkg/errors"
	"strings"
	"time"
)

const (
	hubRequestTimeout = 10 * time.Second
	maxHubResponse    = 1 << 20
)

// HubUser is the user model returned by the hub's /user endpoint.
type HubUser struct {
	Name   string   `json:"name"`
	Admin  bool     `json:"admin"`
	Scopes []string `json:"scopes"`
}

// HubClient talks to the JupyterHub-style OAuth2 provider.
type HubClient struct {
	cfg        *config.HubConfig
	httpClient *http.Client
}

func NewHubClient(cfg *config.HubConfig) *HubClient {
	return &HubClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: hubRequestTimeout},
	}
}

// ExchangeCode trades an authorization code for the hub access token. The
// service's API token acts as the OAuth client secret.
func (c *HubClient) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.APIToken},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Unauthorized(fmt.Sprintf("token exchange rejected by hub: %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHubResponse)).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	if payload.AccessToken == "" {
		return "", apperrors.Unauthorized("hub returned empty access token")
	}

	return payload.AccessToken, nil
}

// FetchUser resolves a hub access token to the hub's user model. The
// request authenticates as the user, not as the service.
func (c *HubClient) FetchUser(ctx context.Context, accessToken string) (*HubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set(headerAuthorization, "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Unauthorized(msgHubUserFetchFailed)
	}

	hubUser := &HubUser{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHubResponse)).Decode(hubUser); err != nil {
		return nil, fmt.Errorf("failed to decode hub user: %w", err)
	}

	if hubUser.Name == "" {
		return nil, apperrors.Unauthorized(msgHubUserFetchFailed)
	}

	return hubUser, nil
}

// HasAccess reports whether the user's granted scopes intersect the
// configured allow-list.
func (c *HubClient) HasAccess(u *HubUser) bool {
	for _, allowed := range c.cfg.AccessScopes {
		for _, granted := range u.Scopes {
			if allowed == granted {
				return true
			}
		}
	}
	return false
}
