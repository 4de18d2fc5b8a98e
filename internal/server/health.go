package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthDB reports whether the database answers a ping. A failing ping maps
// to 503 so load balancers can take the instance out of rotation.
func (s *Server) HealthDB(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
