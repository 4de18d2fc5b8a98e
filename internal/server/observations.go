package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/climaverse/meteo/internal/ingest"
	stationdomain "github.com/climaverse/meteo/internal/station/domain"
	"github.com/gin-gonic/gin"
)

type observationItem struct {
	Date   string   `json:"date"`
	TMin   *float64 `json:"tmin"`
	TMax   *float64 `json:"tmax"`
	TAvg   *float64 `json:"tavg"`
	Precip *float64 `json:"precip"`
}

// ListObservations returns the stored daily observations for one station
// inside an inclusive date range. The station is addressed either by its
// internal id or by the (source, source_station_id) pair.
func (s *Server) ListObservations(c *gin.Context) {
	station, err := s.resolveStationParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	startDay, err := parseRequiredDay(c.Query("start_date"))
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_date", "start_date must be YYYY-MM-DD"))
		return
	}
	endDay, err := parseRequiredDay(c.Query("end_date"))
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_date", "end_date must be YYYY-MM-DD"))
		return
	}
	if endDay.Before(startDay) {
		AbortWithError(c, newValidationError("end_date", "invalid_range", "end_date is before start_date"))
		return
	}

	limit, offset, err := parsePagination(c.Query("limit"), c.Query("offset"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_pagination", "invalid limit or offset"))
		return
	}

	// The range filter is inclusive of the whole end day.
	endTs := endDay.AddDate(0, 0, 1).Add(-time.Nanosecond)

	rows, total, err := s.observations.FindRange(c.Request.Context(), s.db, station.ID, startDay, endTs, limit, offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]observationItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, observationItem{
			Date:   ingest.FormatDay(row.Ts),
			TMin:   row.TMin,
			TMax:   row.TMax,
			TAvg:   row.TAvg,
			Precip: row.Precip,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"station": station,
		"items":   items,
		"total":   total,
	})
}

func (s *Server) resolveStationParam(c *gin.Context) (*stationdomain.Station, error) {
	stationID, err := parseOptionalSnowflakeID(c.Query("station_id"))
	if err != nil {
		return nil, newValidationError("station_id", "invalid_station_id", "invalid station_id")
	}

	source := strings.TrimSpace(c.Query("source"))
	sourceStationID := strings.TrimSpace(c.Query("source_station_id"))

	var station *stationdomain.Station
	switch {
	case stationID != nil:
		station, err = s.stations.FindByID(c.Request.Context(), s.db, *stationID)
	case source != "" && sourceStationID != "":
		station, err = s.stations.FindBySource(c.Request.Context(), s.db, source, sourceStationID)
	default:
		return nil, newValidationError("station_id", "missing_station", "station_id or source and source_station_id is required")
	}

	if err != nil {
		return nil, err
	}
	// The repositories report an unknown station as a nil row, not an error.
	if station == nil {
		return nil, ErrNotFound
	}
	return station, nil
}
