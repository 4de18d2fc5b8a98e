package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// IngestConfig holds the tunables of the ingestion engine. Values come from
// an optional ingest.yml; defaults cover every field so the file is not
// required.
type IngestConfig struct {
	// BackfillEpoch is the first day fetched for a station with no stored
	// observations yet, in YYYY-MM-DD.
	BackfillEpoch string `mapstructure:"backfillEpoch"`

	// MaxChunkMonths bounds the span of a single AEMET range call.
	MaxChunkMonths int `mapstructure:"maxChunkMonths"`

	// RetryAttempts is the total number of attempts for a rate-limited call.
	RetryAttempts int           `mapstructure:"retryAttempts"`
	RetryDelay    time.Duration `mapstructure:"retryDelay"`

	// HTTPTimeout applies to every provider request.
	HTTPTimeout time.Duration `mapstructure:"httpTimeout"`
}

func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		BackfillEpoch:  "2024-01-01",
		MaxChunkMonths: 6,
		RetryAttempts:  3,
		RetryDelay:     5 * time.Second,
		HTTPTimeout:    30 * time.Second,
	}
}

// Epoch returns the parsed backfill epoch at UTC midnight.
func (c IngestConfig) Epoch() time.Time {
	t, err := time.Parse("2006-01-02", c.BackfillEpoch)
	if err != nil {
		t, _ = time.Parse("2006-01-02", DefaultIngestConfig().BackfillEpoch)
	}
	return t.UTC()
}

// IngestConfigHolder exposes the current ingest configuration and reloads it
// when the backing file changes.
type IngestConfigHolder struct {
	current atomic.Value // holds IngestConfig
}

func NewIngestConfigHolder() (*IngestConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ingest")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/meteo")
	v.AddConfigPath(".")

	v.SetEnvPrefix("METEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultIngestConfig()
	v.SetDefault("ingest.backfillEpoch", defaults.BackfillEpoch)
	v.SetDefault("ingest.maxChunkMonths", defaults.MaxChunkMonths)
	v.SetDefault("ingest.retryAttempts", defaults.RetryAttempts)
	v.SetDefault("ingest.retryDelay", defaults.RetryDelay)
	v.SetDefault("ingest.httpTimeout", defaults.HTTPTimeout)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg IngestConfig
	if err := v.UnmarshalKey("ingest", &cfg); err != nil {
		return nil, err
	}
	if err := validateIngestConfig(cfg); err != nil {
		return nil, err
	}

	holder := &IngestConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated IngestConfig
		if err := v.UnmarshalKey("ingest", &updated); err != nil {
			log.Printf("[ingest-config] reload failed: %v", err)
			return
		}
		if err := validateIngestConfig(updated); err != nil {
			log.Printf("[ingest-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ingest-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticIngestConfigHolder wraps a fixed configuration with no file
// watching. Useful in tests.
func NewStaticIngestConfigHolder(cfg IngestConfig) *IngestConfigHolder {
	h := &IngestConfigHolder{}
	h.current.Store(cfg)
	return h
}

func (h *IngestConfigHolder) Get() IngestConfig {
	return h.current.Load().(IngestConfig)
}

func validateIngestConfig(cfg IngestConfig) error {
	if _, err := time.Parse("2006-01-02", cfg.BackfillEpoch); err != nil {
		return errors.New("ingest.backfillEpoch must be YYYY-MM-DD")
	}
	if cfg.MaxChunkMonths < 1 {
		return errors.New("ingest.maxChunkMonths must be >= 1")
	}
	if cfg.RetryAttempts < 1 {
		return errors.New("ingest.retryAttempts must be >= 1")
	}
	if cfg.RetryDelay <= 0 {
		return errors.New("ingest.retryDelay must be positive")
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.New("ingest.httpTimeout must be positive")
	}
	return nil
}
