package scheduler

import (
	"context"

	"github.com/climaverse/meteo/internal/config"
	"github.com/climaverse/meteo/internal/ingest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func register(lc fx.Lifecycle, cfg config.Config, svc *ingest.Service, log *zap.Logger) {
	if !cfg.SchedulerEnabled {
		return
	}

	s := New(svc, log, cfg.SchedulerAtUTC)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			s.Stop()
			return nil
		},
	})
}

var Module = fx.Module("scheduler",
	fx.Invoke(register),
)
