package handlers

import (
	"errors"
	"net/http"
	"time"

	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

// Redirect resolves a slug and issues the 302. The hit record is written
// before the response; the counter increment and broadcast happen behind it.
func (h *Handler) Redirect(c *gin.Context) {
	start := time.Now()
	slug := c.Param("slug")

	link, err := h.links.Resolve(c.Request.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			h.metrics.IncRedirect("not_found")
			respond(c, http.StatusNotFound, nil, "link not found")
		case errors.Is(err, services.ErrExpired):
			h.metrics.IncRedirect("expired")
			respond(c, http.StatusGone, nil, "link expired")
		default:
			h.fail(c, err, "redirect")
		}
		return
	}

	_, err = h.recorder.Record(c.Request.Context(), link, c.ClientIP(), c.Request.UserAgent(), c.Request.Referer())
	if err != nil {
		h.fail(c, err, "redirect")
		return
	}

	h.metrics.IncRedirect("found")
	h.metrics.ObserveRedirectDuration(time.Since(start))
	c.Redirect(http.StatusFound, link.TargetURL)
}
