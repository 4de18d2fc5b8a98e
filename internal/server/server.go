package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/config"
	"github.com/climaverse/meteo/internal/ingest"
	obsdomain "github.com/climaverse/meteo/internal/observation/domain"
	stationdomain "github.com/climaverse/meteo/internal/station/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IngestRunner is what the HTTP layer needs from the ingestion service. Tests
// substitute a fake so handler behavior can be checked without providers.
type IngestRunner interface {
	Run(ctx context.Context, req ingest.Request) (*ingest.Report, error)
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	stations     stationdomain.Repository
	observations obsdomain.Repository
	ingestSvc    IngestRunner
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Stations     stationdomain.Repository
	Observations obsdomain.Repository
	IngestSvc    IngestRunner
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("server"),
		genID:        p.GenID,
		stations:     p.Stations,
		observations: p.Observations,
		ingestSvc:    p.IngestSvc,
	}

	s.registerRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health/db", s.HealthDB)
	s.engine.GET("/stations", s.ListStations)
	s.engine.GET("/observations", s.ListObservations)

	ingestion := s.engine.Group("/ingestion")
	ingestion.POST("/daily", s.RunDailyIngestion)
}

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(func(svc *ingest.Service) IngestRunner { return svc }),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)
