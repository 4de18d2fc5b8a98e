package ingest

import (
	"net/http"
	"time"

	"github.com/climaverse/meteo/internal/config"
	"github.com/climaverse/meteo/internal/provider"
	"github.com/climaverse/meteo/internal/provider/aemet"
	"github.com/climaverse/meteo/internal/provider/meteocat"
	"go.uber.org/fx"
)

// provideFactories wires the concrete adapters behind lazy factories, in run
// order: AEMET first, Meteocat second. Construction is deferred to run time
// so a missing credential disables one provider's section instead of
// failing startup.
func provideFactories(cfg config.Config, holder *config.IngestConfigHolder) []provider.Factory {
	newHTTPClient := func() *http.Client {
		timeout := holder.Get().HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return &http.Client{Timeout: timeout}
	}

	return []provider.Factory{
		{
			Source: provider.SourceAemet,
			New: func() (provider.Provider, error) {
				return aemet.New(cfg.AemetAPIKey,
					aemet.WithBaseURL(cfg.AemetBaseURL),
					aemet.WithHTTPClient(newHTTPClient()),
				)
			},
		},
		{
			Source: provider.SourceMeteocat,
			New: func() (provider.Provider, error) {
				return meteocat.New(cfg.MeteocatAPIKey,
					meteocat.WithBaseURL(cfg.MeteocatBaseURL),
					meteocat.WithHTTPClient(newHTTPClient()),
				)
			},
		},
	}
}

var Module = fx.Module("ingest",
	fx.Provide(provideFactories),
	fx.Provide(New),
)
