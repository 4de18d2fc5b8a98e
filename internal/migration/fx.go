package migration

import (
	"github.com/climaverse/meteo/internal/config"
	obsdomain "github.com/climaverse/meteo/internal/observation/domain"
	stationdomain "github.com/climaverse/meteo/internal/station/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite is only used for local/dev runs; gorm's automigrate
			// covers it without the postgres migration driver.
			return conn.AutoMigrate(&stationdomain.Station{}, &obsdomain.Observation{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
