package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes ingestion-level instruments, labeled by provider.
type Metrics struct {
	StationsUpserted     *prometheus.CounterVec
	ObservationsUpserted *prometheus.CounterVec
	UnitFailures         *prometheus.CounterVec
	RunsTotal            prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StationsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meteo",
			Name:      "stations_upserted_total",
			Help:      "Stations upserted during ingestion runs.",
		}, []string{"provider"}),
		ObservationsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meteo",
			Name:      "observations_upserted_total",
			Help:      "Observations upserted during ingestion runs.",
		}, []string{"provider"}),
		UnitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meteo",
			Name:      "ingest_unit_failures_total",
			Help:      "Per-station or per-chunk fetch failures.",
		}, []string{"provider"}),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meteo",
			Name:      "ingest_runs_total",
			Help:      "Completed ingestion runs.",
		}),
	}

	reg.MustRegister(
		m.StationsUpserted,
		m.ObservationsUpserted,
		m.UnitFailures,
		m.RunsTotal,
	)
	return m
}

func newDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

var Module = fx.Module("metrics",
	fx.Provide(newDefault),
)
