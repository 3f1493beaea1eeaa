package zoho

import (
	zohoclient "github.com/smallbiznis/confeitaria/internal/zoho/client"
	"github.com/smallbiznis/confeitaria/internal/zoho/repository"
	"github.com/smallbiznis/confeitaria/internal/zoho/service"
	"go.uber.org/fx"
)

var Module = fx.Module("zoho.service",
	fx.Provide(zohoclient.New),
	fx.Provide(func(c *zohoclient.Client) service.OAuthClient { return c }),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
