package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationURL(t *testing.T) {
	c := NewWithHTTPClient(config.ZohoConfig{
		ClientID:    "abc",
		AccountsURL: "https://accounts.zoho.com/",
		RedirectURI: "http://localhost:8080/api/zoho/callback",
	}, http.DefaultClient)

	raw, err := c.AuthorizationURL("xyz")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.zoho.com", parsed.Host)
	assert.Equal(t, "/oauth/v2/auth", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, MailScope, q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "abc", q.Get("client_id"))
	assert.Equal(t, "xyz", q.Get("state"))
}

func TestTokenErrorFieldIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"invalid_code"}`))
	}))
	defer srv.Close()

	c := NewWithHTTPClient(config.ZohoConfig{ClientID: "a", ClientSecret: "b", AccountsURL: srv.URL}, srv.Client())
	_, err := c.Refresh(context.Background(), "refresh")
	assert.True(t, errors.Is(err, ErrTokenRejected))
}

func TestTokenStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(config.ZohoConfig{ClientID: "a", ClientSecret: "b", AccountsURL: srv.URL}, srv.Client())
	_, err := c.Refresh(context.Background(), "refresh")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)

	_, err = c.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingRefresh)
}

func TestListAccountsForwardsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Zoho-oauthtoken tkn", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":{"code":403}}`))
	}))
	defer srv.Close()

	c := NewWithHTTPClient(config.ZohoConfig{MailAPIURL: srv.URL, OrganizationID: "1"}, srv.Client())
	_, status, err := c.ListAccounts(context.Background(), "tkn")
	assert.Equal(t, http.StatusForbidden, status)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Contains(t, statusErr.Body, "403")
}
