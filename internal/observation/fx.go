package observation

import (
	"github.com/climaverse/meteo/internal/observation/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("observation",
	fx.Provide(repository.Provide),
)
