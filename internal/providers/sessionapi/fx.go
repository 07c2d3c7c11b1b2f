package sessionapi

import "go.uber.org/fx"

var Module = fx.Module("providers.sessionapi",
	fx.Provide(New),
)
