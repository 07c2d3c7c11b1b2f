package organization

import (
	"github.com/zapdash/zapdash/internal/organization/repository"
	"github.com/zapdash/zapdash/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
