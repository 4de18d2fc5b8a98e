package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Source string
}

type Repository interface {
	// Upsert inserts the station if its (source, source_station_id) pair is
	// unseen and returns the stored row either way. Safe under concurrent
	// callers: a duplicate-insert race resolves by re-fetching the winner.
	// The name of an existing station is not refreshed (first write wins).
	Upsert(ctx context.Context, db *gorm.DB, station *Station) (*Station, error)

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Station, error)
	FindBySource(ctx context.Context, db *gorm.DB, source, sourceStationID string) (*Station, error)

	// List returns stations ordered by internal id ascending plus the total
	// count matching the filter.
	List(ctx context.Context, db *gorm.DB, filter ListFilter, limit, offset int) ([]*Station, int64, error)
}
