package cart

import (
	"github.com/smallbiznis/confeitaria/internal/cart/service"
	"github.com/smallbiznis/confeitaria/internal/cart/store"
	"go.uber.org/fx"
)

var Module = fx.Module("cart.service",
	fx.Provide(store.Provide),
	fx.Provide(service.New),
)
