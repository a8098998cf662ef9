package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// GlobalTopic carries the raw redirect row for every recorded hit.
const GlobalTopic = "clicks.all"

// UserTopic is the per-owner channel carrying enriched click events.
func UserTopic(userID uint) string {
	return fmt.Sprintf("clicks.user.%d", userID)
}

// ClickMessage is the enriched payload published to an owner's channel.
type ClickMessage struct {
	Slug     string `json:"slug"`
	Title    string `json:"title,omitempty"`
	Time     string `json:"time"`
	Country  string `json:"country"`
	Browser  string `json:"browser"`
	Device   string `json:"device"`
	Referrer string `json:"referrer"`
	Target   string `json:"target"`
}

// Publisher pushes one message per recorded hit. Delivery is at-most-once
// and best-effort; subscribers that were disconnected backfill through the
// redirects feed.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type RedisPublisher struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisPublisher(rdb *redis.Client, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal broadcast payload: %w", err)
	}
	if err := p.rdb.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// NopPublisher drops everything. Used when redis is down and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, payload any) error {
	return nil
}
