package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linksnap/internal/models"
	"linksnap/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsEndpoints(t *testing.T) {
	h, db, _ := setupTestHandler(t)
	r := setupTestRouter(h)
	cookies := registerAndLogin(t, r, "omar")

	link := createLinkViaAPI(t, r, cookies, map[string]any{
		"target_url": "https://example.com",
		"slug":       "stats",
	})
	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		require.NoError(t, db.Create(&models.Redirect{
			LinkID:    link.Link.ID,
			Country:   "Germany",
			Device:    "Desktop",
			Browser:   "Chrome",
			Referrer:  "Direct",
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		}).Error)
	}
	require.NoError(t, db.Create(&models.Redirect{
		LinkID:    link.Link.ID,
		Country:   "Unknown",
		Device:    "Mobile",
		Browser:   "Safari",
		Referrer:  "google.com",
		CreatedAt: now,
	}).Error)
	// Seeding redirects directly bypasses the counter worker, so settle
	// links.hits by hand the way the worker would have.
	require.NoError(t, db.Model(&models.Link{}).Where("id = ?", link.Link.ID).Update("hits", 5).Error)

	t.Run("summary counts the period", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/analytics/summary", nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		var summary services.Summary
		require.NoError(t, json.Unmarshal(resp.Data, &summary))
		assert.Equal(t, int64(1), summary.TotalLinks)
		assert.Equal(t, int64(1), summary.ActiveLinks)
		assert.Equal(t, int64(5), summary.TotalClicks)
		assert.Equal(t, int64(5), summary.PeriodClicks)
		assert.Equal(t, "up", summary.Direction)
	})

	t.Run("clicks series is zero-filled", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/analytics/clicks?period=7", nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var series []services.SeriesPoint
		require.NoError(t, json.Unmarshal(mustData(t, w), &series))
		assert.Len(t, series, 7*24)

		var total int64
		for _, p := range series {
			total += p.Count
		}
		assert.Equal(t, int64(5), total)
	})

	t.Run("device breakdown sums to total", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/analytics/devices", nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var entries []services.BreakdownEntry
		require.NoError(t, json.Unmarshal(mustData(t, w), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "Desktop", entries[0].Label)
		assert.Equal(t, int64(4), entries[0].Count)
		assert.InDelta(t, 80.0, entries[0].Percentage, 0.01)
	})

	t.Run("second call serves the cached copy", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		r.ServeHTTP(w1, authedRequest("GET", "/api/v1/analytics/browsers", nil, cookies))
		require.Equal(t, http.StatusOK, w1.Code)

		// A hit recorded after caching must not show up until the TTL or an
		// invalidation, unless fresh=true is passed.
		require.NoError(t, db.Create(&models.Redirect{
			LinkID: link.Link.ID, Country: "Unknown", Device: "Desktop", Browser: "Firefox", Referrer: "Direct",
			CreatedAt: now,
		}).Error)

		w2 := httptest.NewRecorder()
		r.ServeHTTP(w2, authedRequest("GET", "/api/v1/analytics/browsers", nil, cookies))
		require.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, w1.Body.String(), w2.Body.String())

		w3 := httptest.NewRecorder()
		r.ServeHTTP(w3, authedRequest("GET", "/api/v1/analytics/browsers?fresh=true", nil, cookies))
		require.Equal(t, http.StatusOK, w3.Code)
		assert.NotEqual(t, w1.Body.String(), w3.Body.String())
	})

	t.Run("invalid period rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/analytics/summary?period=13", nil, cookies))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("per-link stats respect ownership", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/analytics/links/%d?fresh=true", link.Link.ID), nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var stats services.LinkStats
		require.NoError(t, json.Unmarshal(mustData(t, w), &stats))
		assert.Equal(t, "stats", stats.Slug)
		assert.Equal(t, int64(6), stats.Total)

		other := registerAndLogin(t, r, "pria")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/analytics/links/%d", link.Link.ID), nil, other))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("export is a multi-section csv", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/analytics/export", nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "analytics.csv")

		body := w.Body.String()
		assert.True(t, strings.HasPrefix(body, "\uFEFF"))
		assert.Contains(t, body, "Total")
	})
}
