package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/station/domain"
	pkgdb "github.com/climaverse/meteo/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, station *domain.Station) (*domain.Station, error) {
	existing, err := r.FindBySource(ctx, db, station.Source, station.SourceStationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := db.WithContext(ctx).Create(station).Error; err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// Lost the insert race; the winner's row is authoritative.
			return r.FindBySource(ctx, db, station.Source, station.SourceStationID)
		}
		return nil, err
	}
	return station, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Station, error) {
	var station domain.Station
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&station).Error
	if err != nil {
		return nil, err
	}
	if station.ID == 0 {
		return nil, nil
	}
	return &station, nil
}

func (r *repo) FindBySource(ctx context.Context, db *gorm.DB, source, sourceStationID string) (*domain.Station, error) {
	var station domain.Station
	err := db.WithContext(ctx).
		Where("source = ? AND source_station_id = ?", source, sourceStationID).
		Limit(1).
		Find(&station).Error
	if err != nil {
		return nil, err
	}
	if station.ID == 0 {
		return nil, nil
	}
	return &station, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, limit, offset int) ([]*domain.Station, int64, error) {
	query := func() *gorm.DB {
		stmt := db.WithContext(ctx).Model(&domain.Station{})
		if filter.Source != "" {
			stmt = stmt.Where("source = ?", filter.Source)
		}
		return stmt
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stations []*domain.Station
	err := query().
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&stations).Error
	if err != nil {
		return nil, 0, err
	}
	return stations, total, nil
}
