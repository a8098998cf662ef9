package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"linksnap/internal/config"
	"linksnap/internal/metrics"
	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handler struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *gorm.DB
	rdb       *redis.Client
	links     *services.LinkService
	recorder  *services.Recorder
	analytics *services.Analytics
	audit     *services.AuditService
	qr        *services.QRService
	metrics   metrics.Recorder
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	db *gorm.DB,
	rdb *redis.Client,
	links *services.LinkService,
	recorder *services.Recorder,
	analytics *services.Analytics,
	audit *services.AuditService,
	qr *services.QRService,
	rec metrics.Recorder,
) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		links:     links,
		recorder:  recorder,
		analytics: analytics,
		audit:     audit,
		qr:        qr,
		metrics:   rec,
	}
}

// respond shapes every JSON body as {success, data, message}.
func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": status < 400,
		"data":    data,
		"message": message,
	})
}

// fail maps service errors onto the HTTP taxonomy. Internal detail stays in
// the logs outside production either way.
func (h *Handler) fail(c *gin.Context, err error, operation string) {
	var verr *services.ValidationError

	switch {
	case errors.As(err, &verr):
		respond(c, http.StatusUnprocessableEntity, nil, verr.Error())
	case errors.Is(err, services.ErrSlugTaken):
		respond(c, http.StatusUnprocessableEntity, nil, "slug already taken")
	case errors.Is(err, services.ErrNotFound):
		respond(c, http.StatusNotFound, nil, "not found")
	case errors.Is(err, services.ErrExpired):
		respond(c, http.StatusGone, nil, "link expired")
	default:
		userID, _ := c.Get(contextUserKey)
		h.logger.Error("Internal error", "operation", operation, "user_id", userID, "error", err)
		msg := "internal server error"
		if h.cfg.AppEnv != "production" {
			msg = err.Error()
		}
		respond(c, http.StatusInternalServerError, nil, msg)
	}
}
