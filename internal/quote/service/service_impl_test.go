package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/providers/email"
	"github.com/smallbiznis/confeitaria/internal/quote/domain"
	"github.com/smallbiznis/confeitaria/internal/quote/repository"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const quoteSchema = `CREATE TABLE quote_requests (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	product_interest TEXT NOT NULL DEFAULT '',
	quantity TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

type notifierStub struct {
	mu     sync.Mutex
	quotes []email.QuoteEmail
}

func (n *notifierStub) QuoteRequested(_ context.Context, data email.QuoteEmail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quotes = append(n.quotes, data)
}

func setupQuoteService(t *testing.T) (*Service, *notifierStub) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db.NewTest(t, quoteSchema),
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
	}).(*Service)
	stub := &notifierStub{}
	svc.notifier = stub
	return svc, stub
}

func TestCreateQuoteNotifiesShop(t *testing.T) {
	svc, stub := setupQuoteService(t)

	quote, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:            "Festa Ltda",
		Email:           "COMPRAS@festa.com.br",
		ProductInterest: "Brigadeiro gourmet",
		Quantity:        "500 unidades",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, quote.Status)
	assert.Equal(t, "compras@festa.com.br", quote.Email)

	require.Len(t, stub.quotes, 1)
	assert.Equal(t, "Brigadeiro gourmet", stub.quotes[0].ProductInterest)
}

func TestCreateQuoteValidation(t *testing.T) {
	svc, stub := setupQuoteService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Email: "bad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	assert.Empty(t, stub.quotes)
}

func TestUpdateQuoteStatus(t *testing.T) {
	svc, _ := setupQuoteService(t)
	ctx := context.Background()

	quote, err := svc.Create(ctx, domain.CreateRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, quote.ID.String(), "Answered")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAnswered, updated.Status)

	_, err = svc.UpdateStatus(ctx, quote.ID.String(), "lost")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, "12345", domain.StatusArchived)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	answered, err := svc.List(ctx, domain.ListRequest{Status: domain.StatusAnswered})
	require.NoError(t, err)
	assert.Len(t, answered.Quotes, 1)

	fresh, err := svc.List(ctx, domain.ListRequest{Status: domain.StatusNew})
	require.NoError(t, err)
	assert.Empty(t, fresh.Quotes)
}
