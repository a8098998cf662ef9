package services

import (
	"log/slog"
	"os"
	"testing"

	"linksnap/internal/cache"
	"linksnap/internal/config"
	"linksnap/internal/metrics"
	"linksnap/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Link{}, &models.Redirect{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func setupTestServices(t *testing.T) (*gorm.DB, *LinkService, *Recorder, *Analytics) {
	t.Helper()
	db := setupTestDB(t)
	logger := testLogger()

	audit := NewAuditService(db, logger)
	store := cache.NewMemoryStore()
	analytics := NewAnalytics(db, logger, store, metrics.NopRecorder{})
	geo := NewGeoService(config.Config{GeoTimeoutSeconds: 1}, logger)
	recorder := NewRecorder(db, logger, geo, analytics, NopPublisher{})
	links := NewLinkService(db, audit, metrics.NopRecorder{})

	return db, links, recorder, analytics
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		APIKey:       username + "-key",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
