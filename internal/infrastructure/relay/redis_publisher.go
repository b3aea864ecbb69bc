package relay

import (
	"context"
	"fmt"

	"github.com/kanban/backend/internal/config"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

var _ ports.SnapshotPublisher = (*RedisPublisher)(nil)

// RedisPublisher relays board snapshot frames to a redis pub/sub channel.
// Nothing is stored; subscribers that are not listening miss the frame.
type RedisPublisher struct {
	rc      *redis.Client
	channel string
	log     *logger.Logger
}

func NewRedisPublisher(rc *redis.Client, channel string, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{rc: rc, channel: channel, log: log}
}

// Connect dials redis from config and verifies the connection with PING.
func Connect(ctx context.Context, cfg config.RelayConfig, log *logger.Logger) (*RedisPublisher, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("relay: ping %s: %w", cfg.Addr, err)
	}
	return NewRedisPublisher(rc, cfg.Channel, log), nil
}

func (p *RedisPublisher) PublishSnapshot(ctx context.Context, frame []byte) error {
	receivers, err := p.rc.Publish(ctx, p.channel, frame).Result()
	if err != nil {
		return fmt.Errorf("relay: publish to %s: %w", p.channel, err)
	}
	p.log.Debugw("relay_snapshot_published", "channel", p.channel, "bytes", len(frame), "receivers", receivers)
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.rc.Close()
}
