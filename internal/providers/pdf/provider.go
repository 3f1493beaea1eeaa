package pdf

import (
	"context"

	"go.uber.org/fx"
)

type Provider interface {
	OrderSheet(ctx context.Context, data OrderSheet) ([]byte, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
