package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/clock"
	"github.com/climaverse/meteo/internal/config"
	"github.com/climaverse/meteo/internal/metrics"
	obsdomain "github.com/climaverse/meteo/internal/observation/domain"
	"github.com/climaverse/meteo/internal/provider"
	stationdomain "github.com/climaverse/meteo/internal/station/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Request selects the run mode. With Date set the run fetches that single
// day for every station (bulk where the provider supports it). Otherwise the
// run backfills incrementally per station; StartDate forces the planner
// start instead of resuming from the latest stored day.
type Request struct {
	Date      *time.Time
	StartDate *time.Time
}

// Report accumulates per-provider counters for one run. Failures stays
// compact regardless of how many stations fail: provider-level failures are
// one descriptive string, unit-level failures one count.
type Report struct {
	Date                 string         `json:"date"`
	StationsUpserted     map[string]int `json:"stations_upserted"`
	ObservationsUpserted map[string]int `json:"observations_upserted"`
	Failures             map[string]any `json:"failures"`
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Stations     stationdomain.Repository
	Observations obsdomain.Repository
	Factories    []provider.Factory
	Holder       *config.IngestConfigHolder
	Metrics      *metrics.Metrics
}

// Service drives one ingestion run: providers in order, stations
// sequentially within a provider, chunks or days sequentially within a
// station. No fetch concurrency, deliberately, to respect provider rate
// limits. Every upsert commits on its own, so a mid-run failure never rolls
// back completed units.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	stations     stationdomain.Repository
	observations obsdomain.Repository
	factories    []provider.Factory
	holder       *config.IngestConfigHolder
	metrics      *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("ingest"),
		genID:        p.GenID,
		clock:        p.Clock,
		stations:     p.Stations,
		observations: p.Observations,
		factories:    p.Factories,
		holder:       p.Holder,
		metrics:      p.Metrics,
	}
}

// Run executes one synchronous ingestion run and always returns a report; a
// provider-level failure only voids that provider's section.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	cfg := s.holder.Get()

	report := &Report{
		StationsUpserted:     map[string]int{},
		ObservationsUpserted: map[string]int{},
		Failures:             map[string]any{},
	}
	for _, f := range s.factories {
		report.StationsUpserted[f.Source] = 0
		report.ObservationsUpserted[f.Source] = 0
	}

	for _, f := range s.factories {
		s.syncProvider(ctx, cfg, f, req, report)
	}

	if req.Date != nil {
		report.Date = FormatDay(*req.Date)
	} else {
		report.Date = FormatDay(s.clock.Now())
	}
	s.metrics.RunsTotal.Inc()

	s.log.Info("ingestion run finished",
		zap.String("date", report.Date),
		zap.Any("stations_upserted", report.StationsUpserted),
		zap.Any("observations_upserted", report.ObservationsUpserted),
		zap.Int("failure_keys", len(report.Failures)),
	)
	return report, nil
}

func (s *Service) syncProvider(ctx context.Context, cfg config.IngestConfig, f provider.Factory, req Request, report *Report) {
	log := s.log.Named(f.Source)

	p, err := f.New()
	if err != nil {
		log.Warn("provider unavailable", zap.Error(err))
		report.Failures[f.Source] = err.Error()
		return
	}

	entries, err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryDelay, func(ctx context.Context) ([]provider.StationEntry, error) {
		return p.ListStations(ctx)
	})
	if err != nil {
		log.Warn("station list fetch failed", zap.Error(err))
		report.Failures[f.Source+"_station_list"] = err.Error()
		return
	}

	stations := make([]*stationdomain.Station, 0, len(entries))
	byNative := make(map[string]*stationdomain.Station, len(entries))
	for _, entry := range entries {
		if entry.NativeID == "" {
			continue
		}
		st, err := s.stations.Upsert(ctx, s.db, &stationdomain.Station{
			ID:              s.genID.Generate(),
			Source:          f.Source,
			SourceStationID: entry.NativeID,
			Name:            entry.Name,
		})
		if err != nil {
			report.Failures[f.Source] = err.Error()
			return
		}
		report.StationsUpserted[f.Source]++
		s.metrics.StationsUpserted.WithLabelValues(f.Source).Inc()
		stations = append(stations, st)
		byNative[st.SourceStationID] = st
	}

	var sectionErr error
	failedUnits := 0

	if req.Date != nil {
		day := DayStart(*req.Date)
		sectionErr = s.syncTargetDay(ctx, cfg, log, p, day, stations, byNative, report, &failedUnits)
	} else {
		horizon := DayStart(s.clock.Now()).AddDate(0, 0, -1)
		sectionErr = s.backfill(ctx, cfg, log, p, req.StartDate, horizon, stations, report, &failedUnits)
	}

	if sectionErr != nil {
		report.Failures[f.Source] = sectionErr.Error()
	}
	if failedUnits > 0 {
		report.Failures[f.Source+"_station_errors"] = failedUnits
	}
}

// syncTargetDay fetches a single explicit day: one bulk call when the
// provider supports it, otherwise one call per station.
func (s *Service) syncTargetDay(ctx context.Context, cfg config.IngestConfig, log *zap.Logger, p provider.Provider, day time.Time, stations []*stationdomain.Station, byNative map[string]*stationdomain.Station, report *Report, failedUnits *int) error {
	if bulk, ok := p.(provider.BulkDailyProvider); ok {
		records, err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryDelay, func(ctx context.Context) ([]provider.DailyRecord, error) {
			return bulk.FetchDayForAllStations(ctx, day)
		})
		if err != nil {
			*failedUnits++
			s.metrics.UnitFailures.WithLabelValues(p.Source()).Inc()
			log.Warn("bulk day fetch failed", zap.String("day", FormatDay(day)), zap.Error(err))
			return nil
		}
		for _, rec := range records {
			st, err := s.resolveStation(ctx, p.Source(), rec.NativeID, byNative)
			if err != nil {
				return err
			}
			if err := s.upsertRecord(ctx, p.Source(), st.ID, rec, report); err != nil {
				return err
			}
		}
		return nil
	}

	daily, ok := p.(provider.DailyProvider)
	if !ok {
		return fmt.Errorf("provider %s supports no daily fetch", p.Source())
	}
	for _, st := range stations {
		rec, err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryDelay, func(ctx context.Context) (provider.DailyRecord, error) {
			return daily.FetchDayForStation(ctx, st.SourceStationID, day)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			*failedUnits++
			s.metrics.UnitFailures.WithLabelValues(p.Source()).Inc()
			log.Warn("day fetch failed",
				zap.String("station", st.SourceStationID),
				zap.String("day", FormatDay(day)),
				zap.Error(err),
			)
			continue
		}
		if err := s.upsertRecord(ctx, p.Source(), st.ID, rec, report); err != nil {
			return err
		}
	}
	return nil
}

// backfill brings every station forward from its last stored day (or the
// configured epoch) to the availability horizon. A failed unit abandons the
// rest of that station only; chunks already upserted stay committed.
func (s *Service) backfill(ctx context.Context, cfg config.IngestConfig, log *zap.Logger, p provider.Provider, forcedStart *time.Time, horizon time.Time, stations []*stationdomain.Station, report *Report, failedUnits *int) error {
	for _, st := range stations {
		start, end, ok, err := s.planStation(ctx, st, forcedStart, horizon, cfg.Epoch())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch fetcher := p.(type) {
		case provider.RangeProvider:
			months := fetcher.MaxRangeMonths()
			if cfg.MaxChunkMonths < months {
				months = cfg.MaxChunkMonths
			}
			for _, chunk := range SplitIntoChunks(start, end, months) {
				records, err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryDelay, func(ctx context.Context) ([]provider.DailyRecord, error) {
					return fetcher.FetchRangeForStation(ctx, st.SourceStationID, chunk.Start, chunk.End)
				})
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					*failedUnits++
					s.metrics.UnitFailures.WithLabelValues(p.Source()).Inc()
					log.Warn("range fetch failed",
						zap.String("station", st.SourceStationID),
						zap.String("from", FormatDay(chunk.Start)),
						zap.String("to", FormatDay(chunk.End)),
						zap.Error(err),
					)
					break // abandon remaining chunks for this station
				}
				for _, rec := range records {
					if err := s.upsertRecord(ctx, p.Source(), st.ID, rec, report); err != nil {
						return err
					}
				}
			}

		case provider.DailyProvider:
			for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
				rec, err := withRetry(ctx, cfg.RetryAttempts, cfg.RetryDelay, func(ctx context.Context) (provider.DailyRecord, error) {
					return fetcher.FetchDayForStation(ctx, st.SourceStationID, day)
				})
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					*failedUnits++
					s.metrics.UnitFailures.WithLabelValues(p.Source()).Inc()
					log.Warn("day fetch failed",
						zap.String("station", st.SourceStationID),
						zap.String("day", FormatDay(day)),
						zap.Error(err),
					)
					break // abandon remaining days for this station
				}
				if err := s.upsertRecord(ctx, p.Source(), st.ID, rec, report); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("provider %s supports no backfill fetch", p.Source())
		}
	}
	return nil
}

func (s *Service) planStation(ctx context.Context, st *stationdomain.Station, forcedStart *time.Time, horizon, epoch time.Time) (time.Time, time.Time, bool, error) {
	if forcedStart != nil {
		start := DayStart(*forcedStart)
		end := DayStart(horizon)
		return start, end, !start.After(end), nil
	}
	latest, err := s.observations.LatestTs(ctx, s.db, st.ID)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	start, end, ok := PlanRange(latest, horizon, epoch)
	return start, end, ok, nil
}

// resolveStation returns the station for a native id seen in an observation
// row, creating it on first sight. Stations created this way are not counted
// as inventory upserts.
func (s *Service) resolveStation(ctx context.Context, source, nativeID string, byNative map[string]*stationdomain.Station) (*stationdomain.Station, error) {
	if st, ok := byNative[nativeID]; ok {
		return st, nil
	}
	st, err := s.stations.Upsert(ctx, s.db, &stationdomain.Station{
		ID:              s.genID.Generate(),
		Source:          source,
		SourceStationID: nativeID,
	})
	if err != nil {
		return nil, err
	}
	byNative[nativeID] = st
	return st, nil
}

func (s *Service) upsertRecord(ctx context.Context, source string, stationID snowflake.ID, rec provider.DailyRecord, report *Report) error {
	now := s.clock.Now()
	obs := &obsdomain.Observation{
		ID:        s.genID.Generate(),
		StationID: stationID,
		Ts:        DayStart(rec.Day),
		TMin:      rec.Measurements.TMin,
		TMax:      rec.Measurements.TMax,
		TAvg:      rec.Measurements.TAvg,
		Precip:    rec.Measurements.Precip,
		Raw:       rec.Raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.observations.Upsert(ctx, s.db, obs); err != nil {
		return err
	}
	report.ObservationsUpserted[source]++
	s.metrics.ObservationsUpserted.WithLabelValues(source).Inc()
	return nil
}
