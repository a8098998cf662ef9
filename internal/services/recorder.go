package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linksnap/internal/models"
	"linksnap/pkg/utils"

	"gorm.io/gorm"
)

// Recorder persists one redirect row per resolution, synchronously, then
// hands the rest to a background worker: the atomic counter increment, the
// owner's analytics cache invalidation and the pub/sub broadcast. Failures
// past the insert never reach the redirect response.
type Recorder struct {
	db        *gorm.DB
	logger    *slog.Logger
	geo       *GeoService
	analytics *Analytics
	publisher Publisher
	queue     chan recordedHit
}

type recordedHit struct {
	hit  models.Redirect
	link models.Link
}

func NewRecorder(db *gorm.DB, logger *slog.Logger, geo *GeoService, analytics *Analytics, publisher Publisher) *Recorder {
	return &Recorder{
		db:        db,
		logger:    logger,
		geo:       geo,
		analytics: analytics,
		publisher: publisher,
		queue:     make(chan recordedHit, 1000),
	}
}

// Record derives the hit's fields and inserts it. An insert failure
// propagates and aborts the redirect; everything downstream is queued
// fire-and-forget.
func (r *Recorder) Record(ctx context.Context, link *models.Link, ip, userAgent, referrer string) (*models.Redirect, error) {
	hit := models.Redirect{
		LinkID:    link.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		Referrer:  referrer,
		Country:   r.geo.Country(ctx, ip),
		Device:    ClassifyDevice(userAgent),
		Browser:   ClassifyBrowser(userAgent),
		CreatedAt: time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(&hit).Error; err != nil {
		return nil, fmt.Errorf("record redirect: %w", err)
	}

	select {
	case r.queue <- recordedHit{hit: hit, link: *link}:
	default:
		r.logger.Warn("Redirect queue full, dropping post-insert work", "link_id", link.ID)
	}

	return &hit, nil
}

func (r *Recorder) Start(ctx context.Context) {
	r.logger.Info("Redirect worker starting")
	for {
		select {
		case ev := <-r.queue:
			r.process(ctx, ev)
		case <-ctx.Done():
			r.logger.Info("Redirect worker stopping")
			return
		}
	}
}

func (r *Recorder) process(ctx context.Context, ev recordedHit) {
	// Single-row atomic increment; readers may transiently see a counter
	// behind the redirects table.
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ?", ev.link.ID).
		UpdateColumn("hits", gorm.Expr("hits + ?", 1)).Error
	if err != nil {
		r.logger.Error("Failed to increment hit counter", "link_id", ev.link.ID, "error", err)
	}

	r.analytics.Invalidate(ctx, ev.link.UserID)

	msg := ClickMessage{
		Slug:     ev.link.Slug,
		Title:    ev.link.Title,
		Time:     ev.hit.CreatedAt.Format("2006-01-02 15:04:05"),
		Country:  ev.hit.Country,
		Browser:  ev.hit.Browser,
		Device:   ev.hit.Device,
		Referrer: utils.NormalizeReferrer(ev.hit.Referrer),
		Target:   ev.link.TargetURL,
	}
	if err := r.publisher.Publish(ctx, UserTopic(ev.link.UserID), msg); err != nil {
		r.logger.Warn("Failed to publish click event", "link_id", ev.link.ID, "error", err)
	}
	if err := r.publisher.Publish(ctx, GlobalTopic, ev.hit); err != nil {
		r.logger.Warn("Failed to publish global click event", "link_id", ev.link.ID, "error", err)
	}
}
