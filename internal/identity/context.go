// Package identity carries the authenticated viewer through request contexts.
package identity

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Viewer is whoever is making the current request. The zero value is an
// anonymous shopper.
type Viewer struct {
	UserID   snowflake.ID
	Role     string
	ClientID snowflake.ID
	Email    string
}

func (v Viewer) Authenticated() bool { return v.UserID != 0 }

func (v Viewer) IsAdmin() bool { return v.Role == RoleAdmin }

// HasClient reports whether the viewer is linked to an active client record,
// which is what unlocks negotiated prices.
func (v Viewer) HasClient() bool { return v.ClientID != 0 }

// Anonymous reports whether negotiated pricing must be skipped. A signed-in
// user without an active client record is anonymous for pricing.
func (v Viewer) Anonymous() bool { return !v.HasClient() }

type viewerKey struct{}

func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

func ViewerFromContext(ctx context.Context) Viewer {
	if ctx == nil {
		return Viewer{}
	}
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
