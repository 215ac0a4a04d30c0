package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/givebridge/givebridge/internal/pkg/distlock"
	"github.com/givebridge/givebridge/internal/pkg/logger"
)

// EngagementStore rebuilds the cached recipient engagement columns.
type EngagementStore interface {
	RefreshEngagement(ctx context.Context, outreachCampaignID string) error
}

// Consumer drains the refresh queue with a blocking pop loop. Errors are
// logged and swallowed; a failed task is dropped, not retried, because
// the next click or donation enqueues a fresh one anyway.
type Consumer struct {
	rdb      *redis.Client
	queueKey string
	store    EngagementStore
	done     chan struct{}
}

// NewConsumer creates a refresh consumer.
func NewConsumer(rdb *redis.Client, queueKey string, store EngagementStore) *Consumer {
	return &Consumer{rdb: rdb, queueKey: queueKey, store: store, done: make(chan struct{})}
}

// Start launches the pop loop in the background.
func (c *Consumer) Start(ctx context.Context) {
	logger.Info("refresh consumer started", "queue", c.queueKey)
	go c.loop(ctx)
}

// Stop signals the loop to exit after its current pop.
func (c *Consumer) Stop() {
	close(c.done)
}

func (c *Consumer) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		res, err := c.rdb.BRPop(ctx, 5*time.Second, c.queueKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("refresh queue pop", "error", err.Error())
			time.Sleep(2 * time.Second)
			continue
		}
		// BRPop returns [key, value]
		if len(res) < 2 {
			continue
		}

		var task RefreshTask
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			logger.Error("bad refresh task", "error", err.Error())
			continue
		}
		if task.OutreachCampaignID == "" {
			continue
		}

		// One worker per outreach campaign at a time; a losing worker
		// drops the task since the holder is doing the same rebuild.
		lock := distlock.New(c.rdb, "refresh:"+task.OutreachCampaignID, 30*time.Second)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("acquire refresh lock", "error", err.Error())
			continue
		}
		if !ok {
			continue
		}

		if err := c.store.RefreshEngagement(ctx, task.OutreachCampaignID); err != nil {
			logger.Error("refresh engagement", "error", err.Error(),
				"outreach_campaign_id", task.OutreachCampaignID)
		} else {
			logger.Debug("refreshed engagement", "outreach_campaign_id", task.OutreachCampaignID)
		}
		if err := lock.Release(ctx); err != nil {
			logger.Error("release refresh lock", "error", err.Error())
		}
	}
}
