package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	"github.com/smallbiznis/confeitaria/internal/auth/session"
	"github.com/smallbiznis/confeitaria/internal/authorization"
	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	cartservice "github.com/smallbiznis/confeitaria/internal/cart/service"
	"github.com/smallbiznis/confeitaria/internal/cart/store"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	"github.com/smallbiznis/confeitaria/internal/config"
	"github.com/smallbiznis/confeitaria/internal/homepage"
	"github.com/smallbiznis/confeitaria/internal/identity"
	orderdomain "github.com/smallbiznis/confeitaria/internal/order/domain"
	"github.com/smallbiznis/confeitaria/internal/pricing"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	zohodomain "github.com/smallbiznis/confeitaria/internal/zoho/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	adminToken  = "admin-token"
	clientToken = "client-token"
)

type fakeAuthService struct {
	authdomain.Service
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Principal, error) {
	switch rawToken {
	case adminToken:
		return &authdomain.Principal{User: &authdomain.User{ID: 1, Email: "admin@doces.test", Role: identity.RoleAdmin}}, nil
	case clientToken:
		return &authdomain.Principal{User: &authdomain.User{ID: 2, Email: "padaria@doces.test", Role: identity.RoleClient}}, nil
	default:
		return nil, authdomain.ErrInvalidSession
	}
}

type fakeClientService struct {
	clientdomain.Service
}

func (f *fakeClientService) ActiveClientID(ctx context.Context, userID snowflake.ID) (snowflake.ID, error) {
	if userID == 2 {
		return 77, nil
	}
	return 0, nil
}

type fakePricer struct{}

func (fakePricer) Catalog(ctx context.Context, viewer identity.Viewer, filter productdomain.ListRequest) ([]pricing.PricedProduct, error) {
	p, err := fakePricer{}.Product(ctx, viewer, "1001")
	if err != nil {
		return nil, err
	}
	return []pricing.PricedProduct{*p}, nil
}

func (fakePricer) Product(ctx context.Context, viewer identity.Viewer, id string) (*pricing.PricedProduct, error) {
	if id != "1001" {
		return nil, productdomain.ErrNotFound
	}
	price := int64(250)
	source := pricing.SourceDefault
	if !viewer.Anonymous() {
		price = 200
		source = pricing.SourceOverride
	}
	return &pricing.PricedProduct{
		ID:         id,
		Name:       "Brigadeiro",
		Category:   "doces",
		Resolution: pricing.Resolution{PriceCents: &price, Source: source},
	}, nil
}

func (fakePricer) ClientPrices(ctx context.Context, items []clientpricedomain.ClientProductPrice) ([]pricing.ClientPrice, error) {
	out := make([]pricing.ClientPrice, 0, len(items))
	for _, item := range items {
		def := int64(250)
		override := item.PriceCents
		out = append(out, pricing.ClientPrice{
			ClientProductPrice: item,
			ProductName:        "Brigadeiro",
			DefaultPriceCents:  &def,
			Resolution:         pricing.Resolution{PriceCents: &override, Source: pricing.SourceOverride},
		})
	}
	return out, nil
}

type fakeClientPriceService struct {
	clientpricedomain.Service
	items []clientpricedomain.ClientProductPrice
}

func (f *fakeClientPriceService) List(ctx context.Context, clientID string) ([]clientpricedomain.ClientProductPrice, error) {
	return f.items, nil
}

type fakeHomepage struct {
	invalidated int
}

func (f *fakeHomepage) Get(ctx context.Context) (*homepage.Page, error) {
	return &homepage.Page{ShopName: "Doces"}, nil
}

func (f *fakeHomepage) Invalidate() { f.invalidated++ }

type fakeOrderService struct {
	orderdomain.Service
	submitted []orderdomain.SubmitRequest
}

func (f *fakeOrderService) Submit(ctx context.Context, req orderdomain.SubmitRequest) (*orderdomain.Order, error) {
	if len(req.Items) == 0 {
		return nil, errors.Join(orderdomain.ErrEmptyCart, orderdomain.ErrInvalidEmail)
	}
	f.submitted = append(f.submitted, req)
	return &orderdomain.Order{ID: 42, Status: orderdomain.StatusPending}, nil
}

func (f *fakeOrderService) List(ctx context.Context, req orderdomain.ListRequest) (orderdomain.ListResponse, error) {
	return orderdomain.ListResponse{Orders: []orderdomain.Order{}}, nil
}

func (f *fakeOrderService) ListForClient(ctx context.Context, req orderdomain.ListRequest) (orderdomain.ListResponse, error) {
	if !identity.ViewerFromContext(ctx).HasClient() {
		return orderdomain.ListResponse{}, orderdomain.ErrNoClient
	}
	return orderdomain.ListResponse{Orders: []orderdomain.Order{}}, nil
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, req orderdomain.UpdateStatusRequest) (*orderdomain.Order, error) {
	if req.ID != "42" {
		return nil, orderdomain.ErrNotFound
	}
	return &orderdomain.Order{ID: 42, Status: orderdomain.Status(req.Status)}, nil
}

type fakeAuditService struct {
	auditdomain.Service
	entries []auditdomain.Entry
	ips     []string
}

func (f *fakeAuditService) Record(ctx context.Context, entry auditdomain.Entry) error {
	ip, _ := auditdomain.RequestFromContext(ctx)
	f.entries = append(f.entries, entry)
	f.ips = append(f.ips, ip)
	return nil
}

type fakeZohoService struct {
	zohodomain.Service
	err error
}

func (f *fakeZohoService) ListAccounts(ctx context.Context, userID snowflake.ID) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`[{"accountId":"1"}]`), nil
}

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	cfg := config.Config{RevalidateSecret: "s3cret"}
	s := &Server{
		engine:    engine,
		cfg:       cfg,
		log:       log,
		authsvc:   &fakeAuthService{},
		sessions:  session.NewManager(cfg),
		authzSvc:  authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		clientSvc: &fakeClientService{},
		pricing:   fakePricer{},
		homepage:  &fakeHomepage{},
		cartSvc:   cartservice.New(cartservice.Params{Log: log, Store: store.NewMemoryStore()}),
		orderSvc:  &fakeOrderService{},
		zohoSvc:   &fakeZohoService{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: session.DefaultCookieName, Value: token}
}

func cartCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CartCookieName {
			return c
		}
	}
	t.Fatal("cart cookie not set")
	return nil
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartdomain.Summary {
	t.Helper()
	var body struct {
		Data cartdomain.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func TestAnonymousCartToOrder(t *testing.T) {
	orders := &fakeOrderService{}
	s := newTestServer(t, func(s *Server) { s.orderSvc = orders })

	rec := doJSON(t, s, http.MethodPost, "/api/cart/items", gin.H{"product_id": "1001", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := cartCookie(t, rec)
	summary := decodeCart(t, rec)
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, int64(750), summary.TotalCents)

	rec = doJSON(t, s, http.MethodPost, "/api/cart/items", gin.H{"product_id": "1001"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1000), decodeCart(t, rec).TotalCents)

	rec = doJSON(t, s, http.MethodPatch, "/api/cart/items/1001", gin.H{"quantity": 2}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(500), decodeCart(t, rec).TotalCents)

	rec = doJSON(t, s, http.MethodPost, "/api/orders", gin.H{
		"name":  "Ana",
		"email": "ana@example.com",
		"phone": "11999990000",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "42", created.ID)

	require.Len(t, orders.submitted, 1)
	require.Len(t, orders.submitted[0].Items, 1)
	assert.Equal(t, 2, orders.submitted[0].Items[0].Quantity)
	assert.Equal(t, int64(250), *orders.submitted[0].Items[0].UnitPriceCents)

	rec = doJSON(t, s, http.MethodGet, "/api/cart", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestClientCartUsesNegotiatedPrice(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/cart/items", gin.H{"product_id": "1001", "quantity": 2}, sessionCookie(clientToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(400), decodeCart(t, rec).TotalCents)
}

func TestAddUnknownProduct(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/cart/items", gin.H{"product_id": "9"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/cart/items", gin.H{"product_id": "1001", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/cart/items", gin.H{"product_id": "1001", "quantity": cartdomain.MaxQuantity + 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyOrderReportsFields(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/orders", gin.H{"name": "Ana"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation error", body.Error)
	assert.Equal(t, map[string]string{
		"items": "invalid_items",
		"email": "invalid_email",
	}, body.Fields)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/admin/orders", nil, sessionCookie(clientToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/admin/orders", nil, sessionCookie(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPortalIsForClients(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/portal/orders", nil, sessionCookie(clientToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/portal/orders", nil, sessionCookie("stale"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeIncludesClient(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/auth/me", nil, sessionCookie(clientToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data meResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "77", body.Data.ClientID)
	assert.Equal(t, identity.RoleClient, body.Data.Role)

	rec = doJSON(t, s, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestZohoAccountsErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "ok", status: http.StatusOK},
		{name: "auth required", err: zohodomain.ErrAuthRequired, status: http.StatusUnauthorized, message: "Zoho authentication required"},
		{name: "upstream forbidden", err: &zohodomain.UpstreamError{Status: http.StatusForbidden}, status: http.StatusForbidden, message: "zoho upstream returned status 403"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, func(s *Server) { s.zohoSvc = &fakeZohoService{err: tc.err} })

			rec := doJSON(t, s, http.MethodGet, "/api/zoho/accounts", nil, sessionCookie(adminToken))
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.message != "" {
				var body errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tc.message, body.Error)
			}
		})
	}
}

func TestRevalidate(t *testing.T) {
	hp := &fakeHomepage{}
	s := newTestServer(t, func(s *Server) { s.homepage = hp })

	req := httptest.NewRequest(http.MethodPost, "/api/revalidate", nil)
	req.Header.Set(headerRevalidateSecret, "wrong")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, hp.invalidated)

	req = httptest.NewRequest(http.MethodPost, "/api/revalidate", nil)
	req.Header.Set(headerRevalidateSecret, "s3cret")
	rec = httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hp.invalidated)

	rec = doJSON(t, s, http.MethodPost, "/api/revalidate", nil, sessionCookie(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, hp.invalidated)
}

func TestMapErrorMixedJoinIsInternal(t *testing.T) {
	status, body := mapError(errors.Join(orderdomain.ErrInvalidEmail, errors.New("db down")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Empty(t, body.Fields)

	status, _ = mapError(productdomain.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrderStatusChangeIsAudited(t *testing.T) {
	audit := &fakeAuditService{}
	s := newTestServer(t, func(s *Server) {
		s.orderSvc = &fakeOrderService{}
		s.auditSvc = audit
	})

	rec := doJSON(t, s, http.MethodPatch, "/api/admin/orders/42/status", gin.H{"status": "processing"}, sessionCookie(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "order.status_updated", audit.entries[0].Action)
	assert.Equal(t, auditdomain.TargetOrder, audit.entries[0].TargetType)
	assert.Equal(t, "42", audit.entries[0].TargetID)
	assert.NotEmpty(t, audit.ips[0])

	rec = doJSON(t, s, http.MethodPatch, "/api/admin/orders/7/status", gin.H{"status": "processing"}, sessionCookie(adminToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, audit.entries, 1)
}

func TestClientPricesShowDefaultAndSource(t *testing.T) {
	prices := &fakeClientPriceService{items: []clientpricedomain.ClientProductPrice{
		{ID: 500, ClientID: 77, ProductID: 1001, PriceCents: 200},
	}}
	s := newTestServer(t, func(s *Server) { s.clientPriceSvc = prices })

	rec := doJSON(t, s, http.MethodGet, "/api/admin/clients/77/prices", nil, sessionCookie(clientToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/admin/clients/77/prices", nil, sessionCookie(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			ProductID         string `json:"product_id"`
			PriceCents        int64  `json:"price_cents"`
			DefaultPriceCents *int64 `json:"default_price_cents"`
			Resolution        struct {
				PriceCents *int64 `json:"price_cents"`
				Source     string `json:"price_source"`
			} `json:"resolution"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	row := body.Data[0]
	assert.Equal(t, int64(200), row.PriceCents)
	require.NotNil(t, row.DefaultPriceCents)
	assert.Equal(t, int64(250), *row.DefaultPriceCents)
	assert.Equal(t, string(pricing.SourceOverride), row.Resolution.Source)
	assert.Equal(t, int64(200), *row.Resolution.PriceCents)
}
