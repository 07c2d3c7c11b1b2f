package teardown

import (
	"github.com/zapdash/zapdash/internal/teardown/service"
	"go.uber.org/fx"
)

var Module = fx.Module("teardown.service",
	fx.Provide(service.NewOrchestrator),
)
