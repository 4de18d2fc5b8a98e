package aemet

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/climaverse/meteo/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"5,0", f(5.0)},
		{"-1,5", f(-1.5)},
		{"12.3", f(12.3)},
		{"0,0", f(0.0)},
		{"", nil},
		{"Ip", nil},
		{"5,0abc", nil},
		{"abc", nil},
	}
	for _, tc := range cases {
		got := ParseNumeric(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, "input %q", tc.in)
			continue
		}
		require.NotNil(t, got, "input %q", tc.in)
		assert.Equal(t, *tc.want, *got, "input %q", tc.in)
	}
}

func f(v float64) *float64 { return &v }

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)

	_, err = New("   ")
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

// newServer serves the indirection shape: every API path returns an envelope
// whose datos field points at the matching /data path.
func newServer(t *testing.T, data map[string]string) (*httptest.Server, *Client) {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	for path, payload := range data {
		path, payload := path, payload
		mux.HandleFunc("/api"+path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("api_key") != "test-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprintf(w, `{"estado":200,"datos":"%s/data%s"}`, srv.URL, path)
		})
		mux.HandleFunc("/data"+path, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		})
	}
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New("test-key", WithBaseURL(srv.URL+"/api"))
	require.NoError(t, err)
	return srv, c
}

func TestListStations(t *testing.T) {
	_, c := newServer(t, map[string]string{
		"/valores/climatologicos/inventarioestaciones/todasestaciones": `[
			{"indicativo":"0001","nombre":"MADRID RETIRO"},
			{"idema":"0002"},
			{"nombre":"NO ID"}
		]`,
	})

	entries, err := c.ListStations(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "0001", entries[0].NativeID)
	require.NotNil(t, entries[0].Name)
	assert.Equal(t, "MADRID RETIRO", *entries[0].Name)

	assert.Equal(t, "0002", entries[1].NativeID)
	assert.Nil(t, entries[1].Name)
}

func TestFetchRangeForStation(t *testing.T) {
	_, c := newServer(t, map[string]string{
		"/valores/climatologicos/diarios/datos/fechaini/2024-01-01T00:00:00UTC/fechafin/2024-01-03T23:59:00UTC/estacion/0001": `[
			{"indicativo":"0001","fecha":"2024-01-01","tmin":"-1,2","tmax":"8,4","tmed":"3,6","prec":"0,0"},
			{"indicativo":"0001","fecha":"2024-01-02","tmin":"2,0","tmax":"10,0","tmed":"6,0","prec":"Ip"},
			{"indicativo":"0001","fecha":"not-a-date","tmin":"1,0"},
			{"fecha":"2024-01-03","tmin":"1,0"}
		]`,
	})

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	records, err := c.FetchRangeForStation(context.Background(), "0001", start, end)
	require.NoError(t, err)

	// Rows without a parseable date or a station id are dropped.
	require.Len(t, records, 2)

	assert.Equal(t, "0001", records[0].NativeID)
	assert.Equal(t, start, records[0].Day)
	require.NotNil(t, records[0].Measurements.TMin)
	assert.Equal(t, -1.2, *records[0].Measurements.TMin)
	require.NotNil(t, records[0].Measurements.TAvg)
	assert.Equal(t, 3.6, *records[0].Measurements.TAvg)
	require.NotNil(t, records[0].Measurements.Precip)
	assert.Equal(t, 0.0, *records[0].Measurements.Precip)

	// "Ip" (inappreciable precipitation) is not numeric and stays nil.
	assert.Nil(t, records[1].Measurements.Precip)
	assert.NotEmpty(t, records[1].Raw)
}

func TestFetchDayForAllStations(t *testing.T) {
	_, c := newServer(t, map[string]string{
		"/valores/climatologicos/diarios/datos/fechaini/2024-06-01T00:00:00UTC/fechafin/2024-06-01T23:59:00UTC/todasestaciones": `[
			{"indicativo":"0001","tmed":"21,5"},
			{"indicativo":"0002","tmed":"23,0"}
		]`,
	})

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	records, err := c.FetchDayForAllStations(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// The requested day is authoritative even when rows carry no fecha.
	assert.Equal(t, day, records[0].Day)
	assert.Equal(t, day, records[1].Day)
	assert.Equal(t, "0001", records[0].NativeID)
	assert.Equal(t, "0002", records[1].NativeID)
}

func TestMissingDatosYieldsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"estado":404,"descripcion":"No hay datos"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	records, err := c.FetchDayForAllStations(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRateLimitedMapsToSentinel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.ListStations(context.Background())
	assert.ErrorIs(t, err, provider.ErrRateLimited)
}

func TestMaxRangeMonths(t *testing.T) {
	c, err := New("test-key")
	require.NoError(t, err)
	assert.Equal(t, 6, c.MaxRangeMonths())
}
