package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/config"
	"github.com/climaverse/meteo/internal/ingest"
	obsdomain "github.com/climaverse/meteo/internal/observation/domain"
	obsrepo "github.com/climaverse/meteo/internal/observation/repository"
	stationdomain "github.com/climaverse/meteo/internal/station/domain"
	stationrepo "github.com/climaverse/meteo/internal/station/repository"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeIngestRunner struct {
	lastReq ingest.Request
	report  *ingest.Report
	err     error
	calls   int
}

func (f *fakeIngestRunner) Run(ctx context.Context, req ingest.Request) (*ingest.Report, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.report != nil {
		return f.report, nil
	}
	return &ingest.Report{
		Date:                 "2024-06-01",
		StationsUpserted:     map[string]int{"aemet": 0, "meteocat": 0},
		ObservationsUpserted: map[string]int{"aemet": 0, "meteocat": 0},
		Failures:             map[string]any{},
	}, nil
}

type testEnv struct {
	srv    *Server
	db     *gorm.DB
	node   *snowflake.Node
	runner *fakeIngestRunner
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&stationdomain.Station{}, &obsdomain.Observation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	runner := &fakeIngestRunner{}
	srv := NewServer(ServerParams{
		Gin:          NewEngine(zap.NewNop()),
		Cfg:          config.Config{HTTPAddr: ":0"},
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Stations:     stationrepo.Provide(),
		Observations: obsrepo.Provide(),
		IngestSvc:    runner,
	})
	return &testEnv{srv: srv, db: db, node: node, runner: runner}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedStation(t *testing.T, source, nativeID, stationName string) *stationdomain.Station {
	t.Helper()
	st := &stationdomain.Station{
		ID:              e.node.Generate(),
		Source:          source,
		SourceStationID: nativeID,
		Name:            &stationName,
	}
	require.NoError(t, e.db.Create(st).Error)
	return st
}

func (e *testEnv) seedObservation(t *testing.T, stationID snowflake.ID, ts time.Time, tavg float64) {
	t.Helper()
	require.NoError(t, e.db.Create(&obsdomain.Observation{
		ID:        e.node.Generate(),
		StationID: stationID,
		Ts:        ts,
		TAvg:      &tavg,
	}).Error)
}

func TestHealth(t *testing.T) {
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/health/db", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListStationsEndpoint(t *testing.T) {
	env := newTestServer(t)
	env.seedStation(t, "aemet", "0001", "MADRID RETIRO")
	env.seedStation(t, "aemet", "0002", "BARCELONA FABRA")
	env.seedStation(t, "meteocat", "X1", "GIRONA")

	t.Run("all stations", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stations", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Items []stationdomain.Station `json:"items"`
			Total int64                   `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, 3, resp.Total)
		assert.Len(t, resp.Items, 3)
	})

	t.Run("filtered by source", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stations?source=meteocat", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Items []stationdomain.Station `json:"items"`
			Total int64                   `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, 1, resp.Total)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "X1", resp.Items[0].SourceStationID)
	})

	t.Run("bad pagination", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stations?limit=zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListObservationsEndpoint(t *testing.T) {
	env := newTestServer(t)
	st := env.seedStation(t, "aemet", "0001", "MADRID RETIRO")
	for d := 1; d <= 5; d++ {
		env.seedObservation(t, st.ID, time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC), 20.0+float64(d))
	}

	t.Run("by station id", func(t *testing.T) {
		w := env.do(t, http.MethodGet,
			fmt.Sprintf("/observations?station_id=%s&start_date=2024-06-02&end_date=2024-06-04", st.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Items []observationItem `json:"items"`
			Total int64             `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, 3, resp.Total)
		require.Len(t, resp.Items, 3)
		assert.Equal(t, "2024-06-02", resp.Items[0].Date)
		assert.Equal(t, "2024-06-04", resp.Items[2].Date)
		require.NotNil(t, resp.Items[0].TAvg)
		assert.Equal(t, 22.0, *resp.Items[0].TAvg)
	})

	t.Run("by source pair", func(t *testing.T) {
		w := env.do(t, http.MethodGet,
			"/observations?source=aemet&source_station_id=0001&start_date=2024-06-01&end_date=2024-06-05", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, 5, resp.Total)
	})

	t.Run("missing selector", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/observations?start_date=2024-06-01&end_date=2024-06-05", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing dates", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/observations?station_id=%s", st.ID), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("inverted range", func(t *testing.T) {
		w := env.do(t, http.MethodGet,
			fmt.Sprintf("/observations?station_id=%s&start_date=2024-06-05&end_date=2024-06-01", st.ID), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown station", func(t *testing.T) {
		w := env.do(t, http.MethodGet,
			fmt.Sprintf("/observations?station_id=%s&start_date=2024-06-01&end_date=2024-06-05", env.node.Generate()), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})

	t.Run("unknown source pair", func(t *testing.T) {
		w := env.do(t, http.MethodGet,
			"/observations?source=aemet&source_station_id=nope&start_date=2024-06-01&end_date=2024-06-05", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})
}

func TestRunDailyIngestionEndpoint(t *testing.T) {
	t.Run("no body triggers a backfill run", func(t *testing.T) {
		env := newTestServer(t)
		w := env.do(t, http.MethodPost, "/ingestion/daily", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, env.runner.calls)
		assert.Nil(t, env.runner.lastReq.Date)
		assert.Nil(t, env.runner.lastReq.StartDate)
	})

	t.Run("date selects target day mode", func(t *testing.T) {
		env := newTestServer(t)
		w := env.do(t, http.MethodPost, "/ingestion/daily", map[string]string{"date": "2024-06-01"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, env.runner.lastReq.Date)
		assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), *env.runner.lastReq.Date)

		var resp ingest.Report
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2024-06-01", resp.Date)
	})

	t.Run("start date forces the planner start", func(t *testing.T) {
		env := newTestServer(t)
		w := env.do(t, http.MethodPost, "/ingestion/daily", map[string]string{"start_date": "2024-03-05"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, env.runner.lastReq.StartDate)
		assert.Nil(t, env.runner.lastReq.Date)
	})

	t.Run("invalid date", func(t *testing.T) {
		env := newTestServer(t)
		w := env.do(t, http.MethodPost, "/ingestion/daily", map[string]string{"date": "June 1st"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, env.runner.calls)
	})

	t.Run("date and start_date together are rejected", func(t *testing.T) {
		env := newTestServer(t)
		w := env.do(t, http.MethodPost, "/ingestion/daily", map[string]string{
			"date":       "2024-06-01",
			"start_date": "2024-03-05",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("run failure maps to a generic 500", func(t *testing.T) {
		env := newTestServer(t)
		env.runner.err = errors.New("db gone: password=hunter2")
		w := env.do(t, http.MethodPost, "/ingestion/daily", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		// Internal detail must not leak into the response body.
		assert.NotContains(t, w.Body.String(), "hunter2")
		assert.Contains(t, w.Body.String(), "internal server error")
	})
}
