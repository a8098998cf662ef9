package repository

import (
	"testing"

	"linksnap/internal/config"
	"linksnap/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestInitDB(t *testing.T) {
	t.Run("SQLite In-Memory", func(t *testing.T) {
		cfg := config.Config{DatabaseURL: "sqlite://:memory:"}
		db, err := InitDB(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, db)

		assert.NoError(t, AutoMigrate(db))

		// Schema is usable after AutoMigrate.
		user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", APIKey: "key-1"}
		assert.NoError(t, db.Create(&user).Error)

		link := models.Link{UserID: user.ID, Slug: "abc123", TargetURL: "https://example.com"}
		assert.NoError(t, db.Create(&link).Error)

		var count int64
		db.Model(&models.Link{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Unsupported Driver", func(t *testing.T) {
		cfg := config.Config{DatabaseURL: "mysql://nope"}
		_, err := InitDB(cfg)
		assert.Error(t, err)
	})
}
