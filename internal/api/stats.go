package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsHandler serves workspace aggregate endpoints.
type StatsHandler struct {
	repo StatsRepository
	log  *logrus.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(repo StatsRepository, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{repo: repo, log: log}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	stats, err := h.repo.WorkspaceStats(c.Request.Context(), workspaceID)
	if err != nil {
		respondDomainError(c, h.log, err, "getting workspace stats")

		return
	}

	c.JSON(http.StatusOK, stats)
}
