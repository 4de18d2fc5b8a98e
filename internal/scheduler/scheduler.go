package scheduler

import (
	"context"
	"time"

	"github.com/climaverse/meteo/internal/ingest"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler triggers one ingestion run per day at a fixed UTC time. Runs are
// idempotent, so an overlap with a manually triggered run only wastes work.
type Scheduler struct {
	scheduler *gocron.Scheduler
	svc       *ingest.Service
	log       *zap.Logger
	at        string
}

func New(svc *ingest.Service, log *zap.Logger, at string) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		svc:       svc,
		log:       log.Named("scheduler"),
		at:        at,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		s.log.Info("starting scheduled ingestion run")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		report, err := s.svc.Run(ctx, ingest.Request{})
		if err != nil {
			s.log.Error("scheduled ingestion run failed", zap.Error(err))
			return
		}
		s.log.Info("scheduled ingestion run finished",
			zap.String("date", report.Date),
			zap.Any("failures", report.Failures),
		)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
