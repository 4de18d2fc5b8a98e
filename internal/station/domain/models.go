package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Station is a weather station as identified by an external provider.
// The (source, source_station_id) pair is globally unique; the internal
// snowflake ID is assigned on first insert and stable thereafter.
type Station struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Source          string       `gorm:"not null;uniqueIndex:uq_station_source_id,priority:1" json:"source"`
	SourceStationID string       `gorm:"column:source_station_id;not null;uniqueIndex:uq_station_source_id,priority:2" json:"source_station_id"`
	Name            *string      `json:"name"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (Station) TableName() string { return "stations" }
