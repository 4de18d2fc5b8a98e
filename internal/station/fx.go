package station

import (
	"github.com/climaverse/meteo/internal/station/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("station",
	fx.Provide(repository.Provide),
)
