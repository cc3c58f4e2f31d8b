// Package api provides the negotiation engine's HTTP handlers.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/models"
)

// SessionHandler serves session lifecycle endpoints.
type SessionHandler struct {
	repo SessionRepository
	log  *logrus.Logger
}

// NewSessionHandler creates a SessionHandler with the given service and logger.
func NewSessionHandler(repo SessionRepository, log *logrus.Logger) *SessionHandler {
	return &SessionHandler{repo: repo, log: log}
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	var req models.CreateSessionRequest
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

	sess, err := h.repo.CreateSession(c.Request.Context(), workspaceID, req)
	if err != nil {
		respondDomainError(c, h.log, err, "creating session")

		return
	}

	c.JSON(http.StatusCreated, sess)
}

// List handles GET /api/v1/sessions.
func (h *SessionHandler) List(c *gin.Context) {
	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	opts := models.ListSessionsOpts{
		DocID:  c.Query("doc_id"),
		Limit:  parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset: parseOffset(c.DefaultQuery("offset", "0")),
	}

	if status := c.Query("status"); status != "" {
		s := models.SessionStatus(status)
		if !s.Valid() {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown session status")

			return
		}
		opts.Status = s
	}

	sessions, err := h.repo.ListSessions(c.Request.Context(), workspaceID, opts)
	if err != nil {
		respondDomainError(c, h.log, err, "listing sessions")

		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// Get handles GET /api/v1/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")
	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	sess, err := h.repo.GetSession(c.Request.Context(), workspaceID, sessionID)
	if err != nil {
		respondDomainError(c, h.log, err, "getting session")

		return
	}

	c.JSON(http.StatusOK, sess)
}

// closeRequest is the optional body for settle and abandon.
type closeRequest struct {
	Actor string `json:"actor"`
}

// Settle handles POST /api/v1/sessions/:id/settle.
func (h *SessionHandler) Settle(c *gin.Context) {
	h.close(c, h.repo.SettleSession)
}

// Abandon handles POST /api/v1/sessions/:id/abandon.
func (h *SessionHandler) Abandon(c *gin.Context) {
	h.close(c, h.repo.AbandonSession)
}

func (h *SessionHandler) close(c *gin.Context, closeFn func(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error)) {
	sessionID := c.Param("id")
	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	var req closeRequest
	// Body is optional; ignore bind errors on an empty body.
	_ = c.ShouldBindJSON(&req)

	sess, err := closeFn(c.Request.Context(), workspaceID, sessionID, req.Actor)
	if err != nil {
		respondDomainError(c, h.log, err, "closing session")

		return
	}

	c.JSON(http.StatusOK, sess)
}
