package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linksnap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkData struct {
	Link     models.Link `json:"link"`
	ShortURL string      `json:"short_url"`
	QRURL    string      `json:"qr_url"`
}

func createLinkViaAPI(t *testing.T, r http.Handler, cookies []*http.Cookie, body map[string]any) linkData {
	t.Helper()

	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := authedRequest("POST", "/api/v1/links", payload, cookies)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data linkData
	require.NoError(t, json.Unmarshal(mustData(t, w), &data))
	return data
}

func mustData(t *testing.T, w *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	return decodeResponse(t, w).Data
}

func TestCreateLinkEndpoint(t *testing.T) {
	h, _, _ := setupTestHandler(t)
	r := setupTestRouter(h)
	cookies := registerAndLogin(t, r, "erin")

	t.Run("generates slug and short url", func(t *testing.T) {
		data := createLinkViaAPI(t, r, cookies, map[string]any{
			"target_url": "https://example.com/page",
			"title":      "Example",
		})
		assert.Len(t, data.Link.Slug, 6)
		assert.Equal(t, "https://lsnp.io/"+data.Link.Slug, data.ShortURL)
		assert.Contains(t, data.QRURL, fmt.Sprintf("/api/v1/links/%d/qr", data.Link.ID))
	})

	t.Run("honors custom slug", func(t *testing.T) {
		data := createLinkViaAPI(t, r, cookies, map[string]any{
			"target_url": "https://example.com",
			"slug":       "my-page",
		})
		assert.Equal(t, "my-page", data.Link.Slug)
	})

	t.Run("duplicate custom slug rejected", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]any{
			"target_url": "https://example.com",
			"slug":       "my-page",
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("POST", "/api/v1/links", payload, cookies))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("invalid target rejected", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]any{"target_url": "ftp://example.com/file"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("POST", "/api/v1/links", payload, cookies))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("missing target rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("POST", "/api/v1/links", []byte("{}"), cookies))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestLinkCRUDEndpoints(t *testing.T) {
	h, _, _ := setupTestHandler(t)
	r := setupTestRouter(h)
	cookies := registerAndLogin(t, r, "frank")
	otherCookies := registerAndLogin(t, r, "grace")

	link := createLinkViaAPI(t, r, cookies, map[string]any{
		"target_url": "https://example.com/original",
		"title":      "Original",
	})

	t.Run("get returns the link", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/links/%d", link.Link.ID), nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var data linkData
		require.NoError(t, json.Unmarshal(mustData(t, w), &data))
		assert.Equal(t, "Original", data.Link.Title)
	})

	t.Run("foreign link looks absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/links/%d", link.Link.ID), nil, otherCookies))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update changes target and title", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]any{
			"target_url": "https://example.com/updated",
			"title":      "Updated",
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("PUT", fmt.Sprintf("/api/v1/links/%d", link.Link.ID), payload, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var data linkData
		require.NoError(t, json.Unmarshal(mustData(t, w), &data))
		assert.Equal(t, "https://example.com/updated", data.Link.TargetURL)
		assert.Equal(t, "Updated", data.Link.Title)
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("DELETE", fmt.Sprintf("/api/v1/links/%d", link.Link.ID), nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/links/%d", link.Link.ID), nil, cookies))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bulk delete skips foreign ids", func(t *testing.T) {
		mine := createLinkViaAPI(t, r, cookies, map[string]any{"target_url": "https://example.com/a"})
		theirs := createLinkViaAPI(t, r, otherCookies, map[string]any{"target_url": "https://example.com/b"})

		payload, _ := json.Marshal(map[string]any{"ids": []uint{mine.Link.ID, theirs.Link.ID}})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("POST", "/api/v1/links/bulk-delete", payload, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			Deleted int64 `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(mustData(t, w), &data))
		assert.Equal(t, int64(1), data.Deleted)

		// The foreign link must survive.
		w = httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/links/%d", theirs.Link.ID), nil, otherCookies))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestListLinksEndpoint(t *testing.T) {
	h, _, _ := setupTestHandler(t)
	r := setupTestRouter(h)
	cookies := registerAndLogin(t, r, "heidi")

	for i := 0; i < 5; i++ {
		createLinkViaAPI(t, r, cookies, map[string]any{
			"target_url": fmt.Sprintf("https://example.com/page-%d", i),
			"title":      fmt.Sprintf("Page %d", i),
		})
	}
	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	createLinkViaAPI(t, r, cookies, map[string]any{
		"target_url": "https://example.com/limited",
		"title":      "Limited",
		"expires_at": expiry,
	})

	type listData struct {
		Items   []linkData `json:"items"`
		Total   int64      `json:"total"`
		Page    int        `json:"page"`
		PerPage int        `json:"per_page"`
	}

	t.Run("paginates", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/links?page=1&per_page=4", nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var data listData
		require.NoError(t, json.Unmarshal(mustData(t, w), &data))
		assert.Len(t, data.Items, 4)
		assert.Equal(t, int64(6), data.Total)
		assert.Equal(t, 1, data.Page)
	})

	t.Run("keyword filter matches title", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("GET", "/api/v1/links?q=Limited", nil, cookies))
		require.Equal(t, http.StatusOK, w.Code)

		var data listData
		require.NoError(t, json.Unmarshal(mustData(t, w), &data))
		require.Len(t, data.Items, 1)
		assert.Equal(t, "Limited", data.Items[0].Link.Title)
	})
}

func TestLinkQRCodeEndpoint(t *testing.T) {
	h, _, _ := setupTestHandler(t)
	r := setupTestRouter(h)
	cookies := registerAndLogin(t, r, "ivan")

	link := createLinkViaAPI(t, r, cookies, map[string]any{"target_url": "https://example.com"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest("GET", fmt.Sprintf("/api/v1/links/%d/qr", link.Link.ID), nil, cookies))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestExportLinksEndpoint(t *testing.T) {
	h, _, _ := setupTestHandler(t)
	r := setupTestRouter(h)
	cookies := registerAndLogin(t, r, "judy")

	createLinkViaAPI(t, r, cookies, map[string]any{
		"target_url": "https://example.com/export-me",
		"slug":       "export-me",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest("GET", "/api/v1/links/export", nil, cookies))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "links.csv")
	assert.True(t, strings.Contains(w.Body.String(), "export-me"))
}
