// Package tracking hosts the public pixel and click endpoints plus the
// stats-refresh queue around them. Both endpoints fail open: a broken
// token still gets the pixel or a redirect, never an error page.
package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/givebridge/givebridge/internal/pkg/logger"
)

// RefreshTask asks the worker to rebuild one outreach campaign's cached
// engagement columns.
type RefreshTask struct {
	OutreachCampaignID string    `json:"outreach_campaign_id"`
	EnqueuedAt         time.Time `json:"enqueued_at"`
}

// Publisher pushes refresh tasks onto a redis list. Publishing is
// fire-and-forget: the caller is never blocked and never sees an error.
type Publisher struct {
	rdb      *redis.Client
	queueKey string
}

// NewPublisher creates a publisher for the given queue key.
func NewPublisher(rdb *redis.Client, queueKey string) *Publisher {
	return &Publisher{rdb: rdb, queueKey: queueKey}
}

// PublishRefresh enqueues a refresh task in the background. A lost task
// only delays the cache rebuild until the next one.
func (p *Publisher) PublishRefresh(outreachCampaignID string) {
	body, err := json.Marshal(RefreshTask{
		OutreachCampaignID: outreachCampaignID,
		EnqueuedAt:         time.Now().UTC(),
	})
	if err != nil {
		logger.Error("marshal refresh task", "error", err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.rdb.LPush(ctx, p.queueKey, body).Err(); err != nil {
			logger.Error("publish refresh task", "error", err.Error(),
				"outreach_campaign_id", outreachCampaignID)
		}
	}()
}
