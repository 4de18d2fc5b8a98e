package aemet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/climaverse/meteo/internal/provider"
	"github.com/sony/gobreaker"
)

const maxRangeMonths = 6

// Client talks to the AEMET OpenData climatological-values API.
//
// Every endpoint returns an indirection payload whose `datos` field is a
// follow-up URL; the actual array lives behind that second fetch. Numeric
// fields use comma as decimal separator.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("aemet: %w", provider.ErrMissingAPIKey)
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: "https://opendata.aemet.es/opendata/api",
		http:    &http.Client{Timeout: 30 * time.Second},
		breaker: provider.NewBreaker("aemet"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Source() string { return provider.SourceAemet }

func (c *Client) MaxRangeMonths() int { return maxRangeMonths }

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("api_key", c.apiKey)
	return h
}

// followDataURL fetches the indirection payload at apiURL and then the array
// behind its datos URL. A missing datos field yields an empty result.
func (c *Client) followDataURL(ctx context.Context, apiURL string) ([]json.RawMessage, error) {
	meta, err := provider.GetJSON(ctx, c.http, c.breaker, apiURL, c.header())
	if err != nil {
		return nil, err
	}

	var indirection struct {
		Estado int    `json:"estado"`
		Datos  string `json:"datos"`
	}
	if err := json.Unmarshal(meta, &indirection); err != nil {
		return nil, fmt.Errorf("aemet: decode indirection: %w", err)
	}
	if indirection.Datos == "" {
		return nil, nil
	}

	body, err := provider.GetJSON(ctx, c.http, c.breaker, indirection.Datos, c.header())
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		// Non-array payloads (error envelopes) count as no data.
		return nil, nil
	}
	return items, nil
}

type stationItem struct {
	Idema      string `json:"idema"`
	Indicativo string `json:"indicativo"`
	Nombre     string `json:"nombre"`
}

func (c *Client) ListStations(ctx context.Context) ([]provider.StationEntry, error) {
	url := c.baseURL + "/valores/climatologicos/inventarioestaciones/todasestaciones"
	items, err := c.followDataURL(ctx, url)
	if err != nil {
		return nil, err
	}

	entries := make([]provider.StationEntry, 0, len(items))
	for _, raw := range items {
		var item stationItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		id := item.Idema
		if id == "" {
			id = item.Indicativo
		}
		if id == "" {
			continue
		}
		entry := provider.StationEntry{NativeID: id}
		if item.Nombre != "" {
			name := item.Nombre
			entry.Name = &name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FetchDayForAllStations downloads daily values for every station on one day.
func (c *Client) FetchDayForAllStations(ctx context.Context, day time.Time) ([]provider.DailyRecord, error) {
	url := fmt.Sprintf("%s/valores/climatologicos/diarios/datos/fechaini/%s/fechafin/%s/todasestaciones",
		c.baseURL, rangeStart(day), rangeEnd(day))
	items, err := c.followDataURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.toRecords(items, &day), nil
}

// FetchRangeForStation downloads daily values for one station between start
// and end inclusive. The server bounds the span at MaxRangeMonths calendar
// months; longer intervals must be chunked by the caller.
func (c *Client) FetchRangeForStation(ctx context.Context, nativeID string, start, end time.Time) ([]provider.DailyRecord, error) {
	url := fmt.Sprintf("%s/valores/climatologicos/diarios/datos/fechaini/%s/fechafin/%s/estacion/%s",
		c.baseURL, rangeStart(start), rangeEnd(end), nativeID)
	items, err := c.followDataURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.toRecords(items, nil), nil
}

type dailyItem struct {
	Indicativo string `json:"indicativo"`
	Idema      string `json:"idema"`
	Fecha      string `json:"fecha"`
	TMin       string `json:"tmin"`
	TMax       string `json:"tmax"`
	TMed       string `json:"tmed"`
	Prec       string `json:"prec"`
}

// toRecords normalizes raw daily rows. When day is nil the observation day is
// taken from each row's fecha field; rows without a usable station id or day
// are dropped, never fatal.
func (c *Client) toRecords(items []json.RawMessage, day *time.Time) []provider.DailyRecord {
	records := make([]provider.DailyRecord, 0, len(items))
	for _, raw := range items {
		var item dailyItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}

		id := item.Indicativo
		if id == "" {
			id = item.Idema
		}
		if id == "" {
			continue
		}

		recordDay := time.Time{}
		if day != nil {
			recordDay = *day
		} else {
			parsed, err := time.Parse("2006-01-02", item.Fecha)
			if err != nil {
				continue
			}
			recordDay = parsed
		}

		records = append(records, provider.DailyRecord{
			NativeID: id,
			Day:      recordDay.UTC(),
			Measurements: provider.Measurements{
				TMin:   ParseNumeric(item.TMin),
				TMax:   ParseNumeric(item.TMax),
				TAvg:   ParseNumeric(item.TMed),
				Precip: ParseNumeric(item.Prec),
			},
			Raw: append([]byte(nil), raw...),
		})
	}
	return records
}

// ParseNumeric parses an AEMET numeric field, which uses comma as decimal
// separator. Absent or malformed values yield nil, never an error.
func ParseNumeric(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &f
}

func rangeStart(d time.Time) string {
	return d.UTC().Format("2006-01-02") + "T00:00:00UTC"
}

func rangeEnd(d time.Time) string {
	return d.UTC().Format("2006-01-02") + "T23:59:00UTC"
}
