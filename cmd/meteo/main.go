package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/clock"
	"github.com/climaverse/meteo/internal/config"
	"github.com/climaverse/meteo/internal/ingest"
	"github.com/climaverse/meteo/internal/logger"
	"github.com/climaverse/meteo/internal/metrics"
	"github.com/climaverse/meteo/internal/migration"
	"github.com/climaverse/meteo/internal/observation"
	"github.com/climaverse/meteo/internal/scheduler"
	"github.com/climaverse/meteo/internal/server"
	"github.com/climaverse/meteo/internal/station"
	"github.com/climaverse/meteo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		station.Module,
		observation.Module,
		ingest.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
