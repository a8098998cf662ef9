package handlers

import (
	"net/http"

	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) analyticsParams(c *gin.Context) (int, bool, error) {
	days, err := services.ParsePeriod(c.Query("period"))
	if err != nil {
		return 0, false, err
	}
	return days, c.Query("fresh") == "true", nil
}

func (h *Handler) AnalyticsSummary(c *gin.Context) {
	days, fresh, err := h.analyticsParams(c)
	if err != nil {
		h.fail(c, err, "analytics summary")
		return
	}

	summary, err := h.analytics.Summary(c.Request.Context(), currentUserID(c), days, fresh)
	if err != nil {
		h.fail(c, err, "analytics summary")
		return
	}
	respond(c, http.StatusOK, summary, "")
}

func (h *Handler) AnalyticsClicks(c *gin.Context) {
	days, fresh, err := h.analyticsParams(c)
	if err != nil {
		h.fail(c, err, "analytics clicks")
		return
	}

	series, err := h.analytics.Series(c.Request.Context(), currentUserID(c), days, fresh)
	if err != nil {
		h.fail(c, err, "analytics clicks")
		return
	}
	respond(c, http.StatusOK, series, "")
}

// AnalyticsBreakdown serves the devices/browsers/referrers/countries
// endpoints; the grouping dimension is bound at route setup.
func (h *Handler) AnalyticsBreakdown(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		days, fresh, err := h.analyticsParams(c)
		if err != nil {
			h.fail(c, err, "analytics breakdown")
			return
		}

		entries, err := h.analytics.Breakdown(c.Request.Context(), currentUserID(c), kind, days, fresh)
		if err != nil {
			h.fail(c, err, "analytics breakdown")
			return
		}
		respond(c, http.StatusOK, entries, "")
	}
}

func (h *Handler) AnalyticsLink(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respond(c, http.StatusNotFound, nil, "not found")
		return
	}

	days, fresh, perr := h.analyticsParams(c)
	if perr != nil {
		h.fail(c, perr, "analytics link")
		return
	}

	stats, err := h.analytics.LinkBreakdown(c.Request.Context(), currentUserID(c), id, days, fresh)
	if err != nil {
		h.fail(c, err, "analytics link")
		return
	}
	respond(c, http.StatusOK, stats, "")
}

func (h *Handler) AnalyticsExport(c *gin.Context) {
	days, _, err := h.analyticsParams(c)
	if err != nil {
		h.fail(c, err, "analytics export")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="analytics.csv"`)
	if err := h.analytics.ExportCSV(c.Request.Context(), currentUserID(c), days, c.Writer); err != nil {
		h.logger.Error("Analytics export failed", "user_id", currentUserID(c), "error", err)
	}
}
