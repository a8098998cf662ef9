package handlers

import (
	"io"
	"net/http"

	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

// Stream subscribes the caller to their own click channel over SSE.
// Delivery is best-effort with no replay; clients backfill missed events
// through the redirect feed. Naming another user's channel is rejected.
func (h *Handler) Stream(c *gin.Context) {
	userID := currentUserID(c)
	topic := services.UserTopic(userID)

	if requested := c.Query("channel"); requested != "" && requested != topic {
		respond(c, http.StatusForbidden, nil, "forbidden channel")
		return
	}

	if h.rdb == nil {
		respond(c, http.StatusServiceUnavailable, nil, "live stream unavailable")
		return
	}

	sub := h.rdb.Subscribe(c.Request.Context(), topic)
	defer sub.Close()
	events := sub.Channel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("click", msg.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
