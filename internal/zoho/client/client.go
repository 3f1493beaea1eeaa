// Package client talks to Zoho Accounts (OAuth) and the Zoho Mail API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/confeitaria/internal/config"
	obstracing "github.com/smallbiznis/confeitaria/internal/observability/tracing"
)

const (
	DefaultTimeout = 15 * time.Second
	MailScope      = "ZohoMail.organization.accounts.ALL"

	authPath  = "/oauth/v2/auth"
	tokenPath = "/oauth/v2/token"

	maxBodyBytes = 1 << 20
)

var (
	ErrTokenRejected  = errors.New("zoho token endpoint rejected the request")
	ErrMissingCode    = errors.New("authorization code is empty")
	ErrMissingRefresh = errors.New("refresh token is empty")
)

// TokenResponse is what Zoho returns from the token endpoint. ExpiresIn is
// in seconds. RefreshToken is only present on code exchange and when Zoho
// rotates it.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	APIDomain    string `json:"api_domain"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error"`
}

func (t TokenResponse) Scopes() []string {
	if strings.TrimSpace(t.Scope) == "" {
		return []string{}
	}
	return strings.FieldsFunc(t.Scope, func(r rune) bool { return r == ',' || r == ' ' })
}

// StatusError is a non-2xx response from Zoho.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("zoho %s returned status %d", e.Endpoint, e.Status)
}

type Client struct {
	httpClient     *http.Client
	accountsURL    string
	mailAPIURL     string
	clientID       string
	clientSecret   string
	redirectURI    string
	organizationID string
}

func New(cfg config.Config) *Client {
	return NewWithHTTPClient(cfg.Zoho, &http.Client{Timeout: DefaultTimeout})
}

func NewWithHTTPClient(cfg config.ZohoConfig, httpClient *http.Client) *Client {
	return &Client{
		httpClient:     obstracing.WrapHTTPClient(httpClient, "zoho"),
		accountsURL:    strings.TrimRight(cfg.AccountsURL, "/"),
		mailAPIURL:     strings.TrimRight(cfg.MailAPIURL, "/"),
		clientID:       cfg.ClientID,
		clientSecret:   cfg.ClientSecret,
		redirectURI:    cfg.RedirectURI,
		organizationID: cfg.OrganizationID,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.clientID != "" && c.clientSecret != ""
}

func (c *Client) AuthorizationURL(state string) (string, error) {
	parsed, err := url.Parse(c.accountsURL + authPath)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("scope", MailScope)
	query.Set("client_id", c.clientID)
	query.Set("response_type", "code")
	query.Set("access_type", "offline")
	query.Set("prompt", "consent")
	query.Set("redirect_uri", c.redirectURI)
	if state != "" {
		query.Set("state", state)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	return c.token(ctx, form)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMissingRefresh
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.token(ctx, form)
}

func (c *Client) token(ctx context.Context, form url.Values) (*TokenResponse, error) {
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &StatusError{Endpoint: "token", Status: status, Body: string(body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	// Zoho reports grant errors with a 200 and an error field.
	if token.Error != "" || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s", ErrTokenRejected, token.Error)
	}
	return &token, nil
}

// ListAccounts returns the raw "data" array of the organization accounts
// endpoint.
func (c *Client) ListAccounts(ctx context.Context, accessToken string) (json.RawMessage, int, error) {
	endpoint := fmt.Sprintf("%s/api/organization/%s/accounts", c.mailAPIURL, url.PathEscape(c.organizationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, 0, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, status, &StatusError{Endpoint: "accounts", Status: status, Body: string(body)}
	}

	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, status, fmt.Errorf("decode accounts response: %w", err)
	}
	if len(payload.Data) == 0 {
		return json.RawMessage("[]"), status, nil
	}
	return payload.Data, status, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
