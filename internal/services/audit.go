package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"linksnap/internal/models"

	"gorm.io/gorm"
)

type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	channel chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		channel: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.channel:
			if err := s.db.Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

func (s *AuditService) LogAction(userID *uint, action, entityID string, details interface{}, ip string) {
	detailBytes, _ := json.Marshal(details)

	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		IPAddress: ip,
		Timestamp: time.Now(),
	}

	select {
	case s.channel <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}
