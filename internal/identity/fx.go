package identity

import (
	"github.com/zapdash/zapdash/internal/identity/repository"
	"github.com/zapdash/zapdash/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(service.New),
)
