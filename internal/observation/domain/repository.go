package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert inserts the observation or fully replaces the existing row for
	// the same (station_id, ts). All measurement fields and the raw payload
	// are overwritten; this is not a merge of non-null fields.
	Upsert(ctx context.Context, db *gorm.DB, obs *Observation) error

	// LatestTs returns the most recent observation timestamp stored for the
	// station, or nil when the station has no observations yet.
	LatestTs(ctx context.Context, db *gorm.DB, stationID snowflake.ID) (*time.Time, error)

	// FindRange returns observations with ts inside [startTs, endTs]
	// inclusive, ordered by ts ascending, plus the total matching count.
	FindRange(ctx context.Context, db *gorm.DB, stationID snowflake.ID, startTs, endTs time.Time, limit, offset int) ([]*Observation, int64, error)
}
