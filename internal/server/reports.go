package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/amber/internal/clock"
	"github.com/smallbiznis/amber/internal/reconcile"
)

func (s *Server) GetReport(c *gin.Context) {
	asOf, err := s.parseOptionalDate(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "as_of must be YYYY-MM-DD"))
		return
	}

	result, err := s.reportSvc.Reconcile(c.Request.Context(), reconcile.Scope{AsOf: asOf})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetPickup compares two snapshot dates. to defaults to today and from to the
// day before it.
func (s *Server) GetPickup(c *gin.Context) {
	to, err := s.parseOptionalDate(c.Query("to"))
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "to must be YYYY-MM-DD"))
		return
	}
	from, err := s.parseOptionalDate(c.Query("from"))
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "from must be YYYY-MM-DD"))
		return
	}

	if to == nil {
		today := clock.Today(s.clock)
		to = &today
	}
	if from == nil {
		previous := to.AddDate(0, 0, -1)
		from = &previous
	}

	pickup, err := s.reportSvc.Pickup(c.Request.Context(), *from, *to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pickup})
}

func (s *Server) ListSnapshots(c *gin.Context) {
	dates, err := s.reportSvc.Snapshots(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dates})
}
