package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/climaverse/meteo/internal/ingest"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func parsePagination(limitRaw, offsetRaw string) (limit, offset int, err error) {
	limit = defaultPageSize
	if trimmed := strings.TrimSpace(limitRaw); trimmed != "" {
		limit, err = strconv.Atoi(trimmed)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New("invalid_limit")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if trimmed := strings.TrimSpace(offsetRaw); trimmed != "" {
		offset, err = strconv.Atoi(trimmed)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("invalid_offset")
		}
	}
	return limit, offset, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

func parseRequiredDay(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("missing_date")
	}
	return ingest.ParseDay(trimmed)
}
