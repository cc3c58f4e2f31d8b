package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/models"
)

// RoundHandler serves round import and read endpoints.
type RoundHandler struct {
	repo RoundRepository
	log  *logrus.Logger
}

// NewRoundHandler creates a RoundHandler with the given service and logger.
func NewRoundHandler(repo RoundRepository, log *logrus.Logger) *RoundHandler {
	return &RoundHandler{repo: repo, log: log}
}

// Import handles POST /api/v1/sessions/:id/rounds.
//
// Returns 201 for a freshly imported round and 200 when the same
// content was already imported (idempotent replay).
func (h *RoundHandler) Import(c *gin.Context) {
	sessionID := c.Param("id")
	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.ImportRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	result, err := h.repo.ImportRound(c.Request.Context(), workspaceID, sessionID, req)
	if err != nil {
		respondDomainError(c, h.log, err, "importing round")

		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	c.JSON(status, result)
}

// List handles GET /api/v1/sessions/:id/rounds. Snapshot bodies are
// omitted; fetch a single round for the full content.
func (h *RoundHandler) List(c *gin.Context) {
	sessionID := c.Param("id")
	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	rounds, err := h.repo.ListRounds(c.Request.Context(), workspaceID, sessionID)
	if err != nil {
		respondDomainError(c, h.log, err, "listing rounds")

		return
	}

	c.JSON(http.StatusOK, gin.H{"rounds": rounds, "count": len(rounds)})
}

// Get handles GET /api/v1/sessions/:id/rounds/:round_id.
func (h *RoundHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")
	roundID := c.Param("round_id")

	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}
	if err := validatePathID(roundID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	round, err := h.repo.GetRound(c.Request.Context(), workspaceID, sessionID, roundID)
	if err != nil {
		respondDomainError(c, h.log, err, "getting round")

		return
	}

	c.JSON(http.StatusOK, round)
}
