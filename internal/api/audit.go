package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/models"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	repo AuditRepository
	log  *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(repo AuditRepository, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	opts := models.AuditQueryOpts{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
		Limit:      parseInt(c.Query("limit"), 100),
		Offset:     parseOffset(c.Query("offset")),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	entries, err := h.repo.QueryAudit(c.Request.Context(), workspaceID, opts)
	if err != nil {
		respondDomainError(c, h.log, err, "querying audit log")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// Purge handles DELETE /api/v1/audit.
func (h *AuditHandler) Purge(c *gin.Context) {
	workspaceID := getWorkspaceID(c)
	if workspaceID == "" {
		return
	}

	retentionDays := 90
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = v
	}

	deleted, err := h.repo.PurgeOldEntries(c.Request.Context(), workspaceID, retentionDays)
	if err != nil {
		respondDomainError(c, h.log, err, "purging audit entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}
