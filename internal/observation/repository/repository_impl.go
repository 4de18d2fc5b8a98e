package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/observation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, obs *domain.Observation) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "station_id"}, {Name: "ts"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tmin", "tmax", "tavg", "precip", "raw", "updated_at",
		}),
	}).Create(obs).Error
}

func (r *repo) LatestTs(ctx context.Context, db *gorm.DB, stationID snowflake.ID) (*time.Time, error) {
	var obs domain.Observation
	err := db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("ts DESC").
		Limit(1).
		Find(&obs).Error
	if err != nil {
		return nil, err
	}
	if obs.ID == 0 {
		return nil, nil
	}
	ts := obs.Ts.UTC()
	return &ts, nil
}

func (r *repo) FindRange(ctx context.Context, db *gorm.DB, stationID snowflake.ID, startTs, endTs time.Time, limit, offset int) ([]*domain.Observation, int64, error) {
	query := func() *gorm.DB {
		return db.WithContext(ctx).
			Model(&domain.Observation{}).
			Where("station_id = ? AND ts >= ? AND ts <= ?", stationID, startTs, endTs)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*domain.Observation
	err := query().
		Order("ts ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
