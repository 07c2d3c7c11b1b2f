package registration

import (
	"github.com/zapdash/zapdash/internal/registration/service"
	"go.uber.org/fx"
)

var Module = fx.Module("registration.service",
	fx.Provide(service.NewService),
)
