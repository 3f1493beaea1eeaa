package clientprice

import (
	"github.com/smallbiznis/confeitaria/internal/clientprice/repository"
	"github.com/smallbiznis/confeitaria/internal/clientprice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("clientprice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
