package seed

import (
	"context"
	"strings"

	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	"github.com/smallbiznis/confeitaria/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultAdminDisplay = "Administrador"

// AdminEnsurer creates an admin account unless the email is taken.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error)
}

// EnsureAdmin bootstraps the shop owner's account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Nothing happens when either is empty.
func EnsureAdmin(ctx context.Context, auth AdminEnsurer, cfg config.AdminBootstrapConfig) (*authdomain.User, error) {
	email := strings.TrimSpace(cfg.Email)
	if email == "" || cfg.Password == "" {
		return nil, nil
	}
	display := strings.TrimSpace(cfg.DisplayName)
	if display == "" {
		display = defaultAdminDisplay
	}
	return auth.EnsureAdmin(ctx, authdomain.CreateUserRequest{
		Email:       email,
		Password:    cfg.Password,
		DisplayName: display,
	})
}

// Module must be registered after the migrations module.
var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, auth authdomain.Service, cfg config.Config, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				user, err := EnsureAdmin(ctx, auth, cfg.Admin)
				if err != nil {
					return err
				}
				if user != nil {
					log.Info("admin account ready", zap.String("user_id", user.ID.String()))
				}
				return nil
			},
		})
	}),
)
