package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
)

type putBudgetsRequest struct {
	Targets []budgetdomain.Target `json:"targets"`
}

func (s *Server) ListBudgets(c *gin.Context) {
	targets, err := s.budgetSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": targets})
}

// PutBudgets upserts monthly targets. Months not named in the request keep
// their current target.
func (s *Server) PutBudgets(c *gin.Context) {
	var req putBudgetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Targets) == 0 {
		AbortWithError(c, newValidationError("targets", "required", "at least one target is required"))
		return
	}

	targets, err := s.budgetSvc.Upsert(c.Request.Context(), req.Targets)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": targets})
}
