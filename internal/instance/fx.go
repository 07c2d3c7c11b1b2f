package instance

import (
	"github.com/zapdash/zapdash/internal/instance/repository"
	"github.com/zapdash/zapdash/internal/instance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("instance.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
