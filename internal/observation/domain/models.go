package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Observation is one day of measurements for one station. Ts is the
// observation day stored as UTC midnight; the (station_id, ts) pair is
// globally unique and every upsert replaces the row entirely.
//
// Measurement fields are independently nullable: a provider may report any
// subset, and an upsert carrying nulls overwrites previously stored values.
type Observation struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	StationID snowflake.ID   `gorm:"not null;uniqueIndex:uq_obs_station_ts,priority:1" json:"station_id"`
	Ts        time.Time      `gorm:"not null;uniqueIndex:uq_obs_station_ts,priority:2" json:"ts"`
	TMin      *float64       `gorm:"column:tmin" json:"tmin"`
	TMax      *float64       `gorm:"column:tmax" json:"tmax"`
	TAvg      *float64       `gorm:"column:tavg" json:"tavg"`
	Precip    *float64       `gorm:"column:precip" json:"precip"`
	Raw       datatypes.JSON `gorm:"column:raw" json:"raw,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Observation) TableName() string { return "observations" }
