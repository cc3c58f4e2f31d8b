package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/models"
)

// ChangeHandler serves change read and resolution endpoints.
type ChangeHandler struct {
	repo ChangeRepository
	log  *logrus.Logger
}

// NewChangeHandler creates a ChangeHandler with the given service and logger.
func NewChangeHandler(repo ChangeRepository, log *logrus.Logger) *ChangeHandler {
	return &ChangeHandler{repo: repo, log: log}
}

// List handles GET /api/v1/sessions/:id/changes.
func (h *ChangeHandler) List(c *gin.Context) {
	sessionID := c.Param("id")
	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	opts := models.ListChangesOpts{
		RoundID: c.Query("round_id"),
		Limit:   parseInt(c.DefaultQuery("limit", "100"), 100),
		Offset:  parseOffset(c.DefaultQuery("offset", "0")),
	}

	if status := c.Query("status"); status != "" {
		s := models.ChangeStatus(status)
		if !s.Valid() {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown change status")

			return
		}
		opts.Status = s
	}

	changes, err := h.repo.ListChanges(c.Request.Context(), workspaceID, sessionID, opts)
	if err != nil {
		respondDomainError(c, h.log, err, "listing changes")

		return
	}

	c.JSON(http.StatusOK, gin.H{"changes": changes, "count": len(changes)})
}

// Get handles GET /api/v1/changes/:id.
func (h *ChangeHandler) Get(c *gin.Context) {
	changeID := c.Param("id")
	if err := validatePathID(changeID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	change, err := h.repo.GetChange(c.Request.Context(), workspaceID, changeID)
	if err != nil {
		respondDomainError(c, h.log, err, "getting change")

		return
	}

	c.JSON(http.StatusOK, change)
}

// UpdateStatus handles PATCH /api/v1/changes/:id/status. A change can
// leave pending exactly once; repeated attempts return 409.
func (h *ChangeHandler) UpdateStatus(c *gin.Context) {
	changeID := c.Param("id")
	if err := validatePathID(changeID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.UpdateChangeStatusRequest
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

	change, sess, err := h.repo.ResolveChange(c.Request.Context(), workspaceID, changeID, req)
	if err != nil {
		respondDomainError(c, h.log, err, "resolving change")

		return
	}

	c.JSON(http.StatusOK, gin.H{"change": change, "session": sess})
}

// bulkResolveRequest is the optional body for accept-all and reject-all.
type bulkResolveRequest struct {
	Actor string `json:"actor"`
}

// AcceptAll handles POST /api/v1/sessions/:id/changes/accept-all.
func (h *ChangeHandler) AcceptAll(c *gin.Context) {
	h.bulkResolve(c, h.repo.AcceptAllPending)
}

// RejectAll handles POST /api/v1/sessions/:id/changes/reject-all.
func (h *ChangeHandler) RejectAll(c *gin.Context) {
	h.bulkResolve(c, h.repo.RejectAllPending)
}

func (h *ChangeHandler) bulkResolve(c *gin.Context, resolveFn func(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error)) {
	sessionID := c.Param("id")
	if err := validatePathID(sessionID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	var req bulkResolveRequest
	// Body is optional; ignore bind errors on an empty body.
	_ = c.ShouldBindJSON(&req)

	result, err := resolveFn(c.Request.Context(), workspaceID, sessionID, req.Actor)
	if err != nil {
		respondDomainError(c, h.log, err, "bulk resolving changes")

		return
	}

	c.JSON(http.StatusOK, result)
}
