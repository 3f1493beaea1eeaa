package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/smallbiznis/confeitaria/internal/clock"
	"github.com/smallbiznis/confeitaria/internal/config"
	zohoclient "github.com/smallbiznis/confeitaria/internal/zoho/client"
	"github.com/smallbiznis/confeitaria/internal/zoho/domain"
	"github.com/smallbiznis/confeitaria/internal/zoho/repository"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const zohoSchema = `CREATE TABLE zoho_tokens (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL UNIQUE,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	scopes TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

type fakeZoho struct {
	server        *httptest.Server
	refreshCalls  atomic.Int32
	tokenStatus   int
	accountsToken atomic.Value
}

func newFakeZoho(t *testing.T) *fakeZoho {
	t.Helper()
	f := &fakeZoho{tokenStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			f.refreshCalls.Add(1)
			if f.tokenStatus != http.StatusOK {
				w.WriteHeader(f.tokenStatus)
				_, _ = w.Write([]byte(`{"error":"invalid_code"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"fresh-access","expires_in":3600,"scope":"ZohoMail.organization.accounts.ALL"}`))
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				_, _ = w.Write([]byte(`{"error":"invalid_code"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"first-access","refresh_token":"first-refresh","expires_in":3600,"scope":"ZohoMail.organization.accounts.ALL"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/api/organization/777/accounts", func(w http.ResponseWriter, r *http.Request) {
		f.accountsToken.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":{"code":200},"data":[{"accountId":"1","primaryEmailAddress":"vendas@confeitaria.test"}]}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	repo  domain.Repository
	clock *clock.FakeClock
	node  *snowflake.Node
	zoho  *fakeZoho
}

func setupZohoService(t *testing.T) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	zoho := newFakeZoho(t)
	client := zohoclient.NewWithHTTPClient(config.ZohoConfig{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		RedirectURI:    "http://localhost:8080/api/zoho/callback",
		AccountsURL:    zoho.server.URL,
		MailAPIURL:     zoho.server.URL,
		OrganizationID: "777",
	}, zoho.server.Client())

	conn := db.NewTest(t, zohoSchema)
	repo := repository.Provide()
	fake := clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	return &fixture{
		svc: New(Params{
			DB:     conn,
			Log:    zaptest.NewLogger(t),
			GenID:  node,
			Repo:   repo,
			Client: client,
			Clock:  fake,
		}),
		db:    conn,
		repo:  repo,
		clock: fake,
		node:  node,
		zoho:  zoho,
	}
}

func (f *fixture) storeToken(t *testing.T, userID snowflake.ID, expiresAt time.Time) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.repo.Upsert(context.Background(), f.db, &domain.Token{
		ID:           f.node.Generate(),
		UserID:       userID,
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    expiresAt,
		Scopes:       pq.StringArray{"ZohoMail.organization.accounts.ALL"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func TestAccessTokenRefreshWindowBoundary(t *testing.T) {
	cases := []struct {
		name        string
		expiresIn   time.Duration
		wantRefresh bool
		wantToken   string
	}{
		{name: "inside window", expiresIn: 4*time.Minute + 59*time.Second, wantRefresh: true, wantToken: "fresh-access"},
		{name: "exactly at window", expiresIn: 5 * time.Minute, wantRefresh: true, wantToken: "fresh-access"},
		{name: "outside window", expiresIn: 5*time.Minute + 1*time.Second, wantRefresh: false, wantToken: "stored-access"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupZohoService(t)
			userID := f.node.Generate()
			f.storeToken(t, userID, f.clock.Now().Add(tc.expiresIn))

			token, err := f.svc.AccessToken(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)

			calls := int32(0)
			if tc.wantRefresh {
				calls = 1
			}
			assert.Equal(t, calls, f.zoho.refreshCalls.Load())
		})
	}
}

func TestExpiredTokenIsRefreshedAndPersisted(t *testing.T) {
	f := setupZohoService(t)
	ctx := context.Background()
	userID := f.node.Generate()
	f.storeToken(t, userID, f.clock.Now().Add(-time.Hour))

	accounts, err := f.svc.ListAccounts(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.zoho.refreshCalls.Load())
	assert.Equal(t, "Zoho-oauthtoken fresh-access", f.zoho.accountsToken.Load())

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(accounts, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "vendas@confeitaria.test", decoded[0]["primaryEmailAddress"])

	stored, err := f.repo.FindByUserID(ctx, f.db, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "fresh-access", stored.AccessToken)
	assert.Equal(t, "stored-refresh", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)))

	// The refreshed token is valid, so the next read makes no call.
	_, err = f.svc.AccessToken(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.zoho.refreshCalls.Load())
}

func TestRejectedRefreshRequiresReauthentication(t *testing.T) {
	f := setupZohoService(t)
	f.zoho.tokenStatus = http.StatusBadRequest
	ctx := context.Background()
	userID := f.node.Generate()
	f.storeToken(t, userID, f.clock.Now().Add(-time.Minute))

	_, err := f.svc.ListAccounts(ctx, userID)
	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, "Zoho authentication required", err.Error())
	assert.Equal(t, int32(1), f.zoho.refreshCalls.Load())
	assert.Nil(t, f.zoho.accountsToken.Load())

	stored, err := f.repo.FindByUserID(ctx, f.db, userID)
	require.NoError(t, err)
	assert.Equal(t, "stored-access", stored.AccessToken)
}

func TestAccessTokenWithoutGrant(t *testing.T) {
	f := setupZohoService(t)

	_, err := f.svc.AccessToken(context.Background(), f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Zero(t, f.zoho.refreshCalls.Load())
}

func TestConnectStoresGrant(t *testing.T) {
	f := setupZohoService(t)
	ctx := context.Background()
	userID := f.node.Generate()

	conn, err := f.svc.Connect(ctx, userID, "good-code")
	require.NoError(t, err)
	assert.True(t, conn.Connected)
	assert.Equal(t, "valid", conn.State)
	assert.Equal(t, []string{"ZohoMail.organization.accounts.ALL"}, conn.Scopes)

	stored, err := f.repo.FindByUserID(ctx, f.db, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "first-access", stored.AccessToken)
	assert.Equal(t, "first-refresh", stored.RefreshToken)

	_, err = f.svc.Connect(ctx, userID, "bad-code")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = f.svc.Connect(ctx, userID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestStatusReportsDisconnected(t *testing.T) {
	f := setupZohoService(t)

	conn, err := f.svc.Status(context.Background(), f.node.Generate())
	require.NoError(t, err)
	assert.False(t, conn.Connected)
}

func TestUnconfiguredClient(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := New(Params{
		DB:     db.NewTest(t, zohoSchema),
		Log:    zaptest.NewLogger(t),
		GenID:  node,
		Repo:   repository.Provide(),
		Client: zohoclient.NewWithHTTPClient(config.ZohoConfig{}, http.DefaultClient),
	})

	_, err = svc.AuthorizationURL("state")
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))
}
