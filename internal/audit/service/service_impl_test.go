package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/confeitaria/internal/audit/domain"
	"github.com/smallbiznis/confeitaria/internal/audit/repository"
	"github.com/smallbiznis/confeitaria/internal/clock"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"github.com/smallbiznis/confeitaria/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const auditSchema = `CREATE TABLE audit_logs (
	id INTEGER PRIMARY KEY,
	actor_id INTEGER,
	actor_role TEXT NOT NULL,
	action TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id TEXT,
	metadata TEXT,
	ip_address TEXT,
	user_agent TEXT,
	created_at DATETIME NOT NULL
)`

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db.NewTest(t, auditSchema),
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
	})
	return svc, fake
}

func TestRecordCapturesActorAndRequest(t *testing.T) {
	svc, fake := newTestService(t)

	ctx := identity.WithViewer(context.Background(), identity.Viewer{UserID: 9, Role: identity.RoleAdmin})
	ctx = domain.WithRequest(ctx, "10.0.0.1", "curl/8")

	require.NoError(t, svc.Record(ctx, domain.Entry{
		Action:     "order.status_updated",
		TargetType: domain.TargetOrder,
		TargetID:   "42",
		Metadata:   map[string]any{"status": "shipped", "access_token": "1000.secretvalue"},
	}))

	resp, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, snowflake.ID(9), *entry.ActorID)
	assert.Equal(t, identity.RoleAdmin, entry.ActorRole)
	assert.Equal(t, "42", *entry.TargetID)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Equal(t, "shipped", entry.Metadata["status"])
	assert.Equal(t, "****alue", entry.Metadata["access_token"])
	assert.True(t, entry.CreatedAt.Equal(fake.Now()))
}

func TestRecordWithoutViewerIsSystem(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), domain.Entry{Action: "product.created"}))
	assert.ErrorIs(t, svc.Record(context.Background(), domain.Entry{Action: " "}), domain.ErrInvalidAction)

	resp, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, domain.ActorRoleSystem, resp.AuditLogs[0].ActorRole)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestListFiltersAndPages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, domain.Entry{Action: "product.updated", TargetType: domain.TargetProduct}))
	}
	require.NoError(t, svc.Record(ctx, domain.Entry{Action: "quote.status_updated", TargetType: domain.TargetQuote}))

	first, err := svc.List(ctx, domain.ListRequest{PageSize: 2, TargetType: domain.TargetProduct})
	require.NoError(t, err)
	assert.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(ctx, domain.ListRequest{PageSize: 2, TargetType: domain.TargetProduct, PageToken: first.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.Less(t, second.AuditLogs[0].ID.Int64(), first.AuditLogs[1].ID.Int64())
}
