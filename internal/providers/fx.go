package providers

import (
	"github.com/smallbiznis/confeitaria/internal/providers/email"
	"github.com/smallbiznis/confeitaria/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
