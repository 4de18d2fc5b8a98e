package provider

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Provider sources. These double as the station `source` enumeration values
// and as the counter keys in ingestion reports.
const (
	SourceAemet    = "aemet"
	SourceMeteocat = "meteocat"
)

var (
	// ErrRateLimited marks a remote call rejected with HTTP 429. Only this
	// error is retried by the ingestion retry controller.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrMissingAPIKey is returned by adapter constructors when the provider
	// credential is not configured.
	ErrMissingAPIKey = errors.New("provider api key is not configured")
)

// StationEntry is one row of a provider's station inventory.
type StationEntry struct {
	NativeID string
	Name     *string
}

// Measurements holds the normalized daily values. Each field is nil when the
// provider did not report it or the raw value could not be parsed.
type Measurements struct {
	TMin   *float64
	TMax   *float64
	TAvg   *float64
	Precip *float64
}

// DailyRecord is one station-day as returned by a provider, normalized plus
// the verbatim payload for traceability.
type DailyRecord struct {
	NativeID     string
	Day          time.Time // UTC midnight
	Measurements Measurements
	Raw          datatypes.JSON
}

// Provider is the capability every adapter has: a source name and a station
// inventory. Fetch capabilities are split per shape so the orchestrator can
// pick the cheapest path a provider supports.
type Provider interface {
	Source() string
	ListStations(ctx context.Context) ([]StationEntry, error)
}

// BulkDailyProvider retrieves all stations' values for one day in one call.
type BulkDailyProvider interface {
	Provider
	FetchDayForAllStations(ctx context.Context, day time.Time) ([]DailyRecord, error)
}

// RangeProvider retrieves a bounded day range for one station per call.
// MaxRangeMonths is the server-enforced span limit; longer ranges must be
// chunked by the caller.
type RangeProvider interface {
	Provider
	FetchRangeForStation(ctx context.Context, nativeID string, start, end time.Time) ([]DailyRecord, error)
	MaxRangeMonths() int
}

// DailyProvider retrieves one station-day per call. Lowest throughput;
// used when a provider offers nothing better.
type DailyProvider interface {
	Provider
	FetchDayForStation(ctx context.Context, nativeID string, day time.Time) (DailyRecord, error)
}

// Factory builds a provider adapter at run time. Construction fails when the
// provider credential is missing; the orchestrator records that as a
// provider-section failure instead of aborting the whole run.
type Factory struct {
	Source string
	New    func() (Provider, error)
}
