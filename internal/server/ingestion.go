package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/climaverse/meteo/internal/ingest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type runIngestionRequest struct {
	Date      string `json:"date"`
	StartDate string `json:"start_date"`
}

// RunDailyIngestion triggers one synchronous ingestion run. With a date the
// run targets that single day; without one it backfills every station up to
// yesterday. Per-provider failures are reported inside the 200 body, only a
// failure of the run itself maps to 500.
func (s *Server) RunDailyIngestion(c *gin.Context) {
	var body runIngestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	var req ingest.Request
	if trimmed := strings.TrimSpace(body.Date); trimmed != "" {
		day, err := ingest.ParseDay(trimmed)
		if err != nil {
			AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD"))
			return
		}
		req.Date = &day
	}
	if trimmed := strings.TrimSpace(body.StartDate); trimmed != "" {
		day, err := ingest.ParseDay(trimmed)
		if err != nil {
			AbortWithError(c, newValidationError("start_date", "invalid_date", "start_date must be YYYY-MM-DD"))
			return
		}
		req.StartDate = &day
	}
	if req.Date != nil && req.StartDate != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_request", "date and start_date are mutually exclusive"))
		return
	}

	started := time.Now()
	report, err := s.ingestSvc.Run(c.Request.Context(), req)
	if err != nil {
		s.log.Error("ingestion run failed", zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}

	s.log.Info("ingestion run finished",
		zap.String("date", report.Date),
		zap.Duration("duration", time.Since(started)),
		zap.Any("failures", report.Failures),
	)

	c.JSON(http.StatusOK, report)
}
