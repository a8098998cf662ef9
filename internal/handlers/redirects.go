package handlers

import (
	"net/http"
	"strconv"

	"linksnap/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// RedirectFeed pages the caller's hit records newest-first. The cursor is
// "older than this id"; the live click stream backfills through it after a
// disconnect.
func (h *Handler) RedirectFeed(c *gin.Context) {
	userID := currentUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultFeedLimit)))
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	cursor, _ := strconv.ParseUint(c.DefaultQuery("cursor", "0"), 10, 64)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Redirect{}).
		Joins("JOIN links ON links.id = redirects.link_id").
		Where("links.user_id = ? AND links.deleted_at IS NULL", userID)
	if cursor > 0 {
		q = q.Where("redirects.id < ?", cursor)
	}

	var hits []models.Redirect
	if err := q.Order("redirects.id desc").Limit(limit).Find(&hits).Error; err != nil {
		h.fail(c, err, "redirect feed")
		return
	}

	var nextCursor uint
	if len(hits) == limit {
		nextCursor = hits[len(hits)-1].ID
	}

	respond(c, http.StatusOK, gin.H{
		"items":       hits,
		"next_cursor": nextCursor,
	}, "")
}
