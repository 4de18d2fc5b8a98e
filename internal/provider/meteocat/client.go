package meteocat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/climaverse/meteo/internal/provider"
	"github.com/sony/gobreaker"
)

// XEMA variable codes extracted from the daily measurement payload.
const (
	codeTAvg   = 32
	codePrecip = 35
	codeTMax   = 40
	codeTMin   = 42
)

// wrapperKeys are probed in priority order when the station metadata
// endpoint wraps its list in an object instead of returning it bare.
var wrapperKeys = []string{"content", "estacions", "data"}

// Client talks to the Meteocat XEMA API. There is no bulk endpoint: every
// station-day is one call.
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
		return nil, fmt.Errorf("meteocat: %w", provider.ErrMissingAPIKey)
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: "https://api.meteo.cat/xema/v1",
		http:    &http.Client{Timeout: 30 * time.Second},
		breaker: provider.NewBreaker("meteocat"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Source() string { return provider.SourceMeteocat }

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("X-Api-Key", c.apiKey)
	return h
}

type stationItem struct {
	Codi string `json:"codi"`
	Code string `json:"code"`
	ID   string `json:"id"`
	Nom  string `json:"nom"`
	Name string `json:"name"`
}

func (c *Client) ListStations(ctx context.Context) ([]provider.StationEntry, error) {
	body, err := provider.GetJSON(ctx, c.http, c.breaker, c.baseURL+"/estacions/metadades", c.header())
	if err != nil {
		return nil, err
	}

	items := unwrapStationList(body)
	entries := make([]provider.StationEntry, 0, len(items))
	for _, raw := range items {
		var item stationItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		id := firstNonEmpty(item.Codi, item.Code, item.ID)
		if id == "" {
			continue
		}
		entry := provider.StationEntry{NativeID: id}
		if name := firstNonEmpty(item.Nom, item.Name); name != "" {
			entry.Name = &name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// unwrapStationList accepts either a bare array or an object wrapping the
// array under one of the known keys. Unknown shapes yield an empty list.
func unwrapStationList(body []byte) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return items
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil
	}
	for _, key := range wrapperKeys {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			return items
		}
	}
	return nil
}

type dailyPayload struct {
	Variables []struct {
		Codi     int `json:"codi"`
		Lectures []struct {
			Valor float64 `json:"valor"`
		} `json:"lectures"`
	} `json:"variables"`
}

// FetchDayForStation downloads one station-day of measurements. The payload
// may arrive wrapped in a one-element array; absent variable codes or empty
// reading arrays degrade to nil values, never an error.
func (c *Client) FetchDayForStation(ctx context.Context, nativeID string, day time.Time) (provider.DailyRecord, error) {
	d := day.UTC()
	url := fmt.Sprintf("%s/estacions/mesurades/%s/%04d/%02d/%02d",
		c.baseURL, nativeID, d.Year(), int(d.Month()), d.Day())

	body, err := provider.GetJSON(ctx, c.http, c.breaker, url, c.header())
	if err != nil {
		return provider.DailyRecord{}, err
	}

	return provider.DailyRecord{
		NativeID:     nativeID,
		Day:          d,
		Measurements: extractMeasurements(body),
		Raw:          append([]byte(nil), body...),
	}, nil
}

// extractMeasurements pulls the four daily values out of the variable array.
// Precipitation is the MEAN of the sub-daily readings, not the sum, matching
// the legacy collector this service replaces.
func extractMeasurements(body []byte) provider.Measurements {
	payload, ok := unwrapDaily(body)
	if !ok {
		return provider.Measurements{}
	}

	readings := map[int][]float64{}
	for _, v := range payload.Variables {
		for _, l := range v.Lectures {
			readings[v.Codi] = append(readings[v.Codi], l.Valor)
		}
	}

	return provider.Measurements{
		TAvg:   mean(readings[codeTAvg]),
		Precip: mean(readings[codePrecip]),
		TMax:   maxOf(readings[codeTMax]),
		TMin:   minOf(readings[codeTMin]),
	}
}

func unwrapDaily(body []byte) (dailyPayload, bool) {
	var payload dailyPayload
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Variables) > 0 {
		return payload, true
	}

	var wrapped []dailyPayload
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped) > 0 {
		return wrapped[0], true
	}
	return dailyPayload{}, false
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

func maxOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return &m
}

func minOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return &m
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
