package server

import (
	"net/http"
	"strings"

	stationdomain "github.com/climaverse/meteo/internal/station/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListStations(c *gin.Context) {
	limit, offset, err := parsePagination(c.Query("limit"), c.Query("offset"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_pagination", "invalid limit or offset"))
		return
	}

	filter := stationdomain.ListFilter{
		Source: strings.TrimSpace(c.Query("source")),
	}

	items, total, err := s.stations.List(c.Request.Context(), s.db, filter, limit, offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}
