package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"linksnap/internal/cache"
	"linksnap/internal/config"
	"linksnap/internal/metrics"
	"linksnap/internal/models"
	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB, *services.Recorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Link{}, &models.Redirect{}, &models.AuditLog{}))

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Config{
		AppEnv:            "test",
		AppURL:            "https://lsnp.io",
		JWTSecret:         "test-secret-12345678901234567890123456789012",
		GeoTimeoutSeconds: 1,
		// No GeoAPIURL: public IPs resolve to "Unknown" without network access.
	}

	audit := services.NewAuditService(db, logger)
	store := cache.NewMemoryStore()
	analytics := services.NewAnalytics(db, logger, store, metrics.NopRecorder{})
	geo := services.NewGeoService(cfg, logger)
	recorder := services.NewRecorder(db, logger, geo, analytics, services.NopPublisher{})
	links := services.NewLinkService(db, audit, metrics.NopRecorder{})
	qr := services.NewQRService()

	h := NewHandler(cfg, logger, db, nil, links, recorder, analytics, audit, qr, metrics.NopRecorder{})
	return h, db, recorder
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil, nil)
}

// registerAndLogin creates an account through the API and returns the auth
// cookies for follow-up requests.
func registerAndLogin(t *testing.T, r *gin.Engine, username string) []*http.Cookie {
	t.Helper()

	body := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	login, _ := json.Marshal(map[string]string{"username": username, "password": "secret123"})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(login))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func authedRequest(method, url string, body []byte, cookies []*http.Cookie) *http.Request {
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
