package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// PubSub fans accepted token records out over Redis Pub/Sub so other
// processes (the archiver, WS gateways) can tail the live feed.
type PubSub struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSub(client *redis.Client, logger *logrus.Logger) *PubSub {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSub{client: client, logger: logger}
}

// PublishRecord publishes one record to the firehose channel and its
// category channel.
func (p *PubSub) PublishRecord(ctx context.Context, rec *models.TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	channels := []string{
		constants.PubSubChannelLive,
		constants.PubSubChannelPrefixByCat + string(rec.Category),
	}

	pipe := p.client.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, data)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe delivers records from one channel until ctx is cancelled.
// Undecodable payloads are logged and skipped.
func (p *PubSub) Subscribe(ctx context.Context, channel string) (<-chan *models.TokenRecord, error) {
	sub := p.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan *models.TokenRecord, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var rec models.TokenRecord
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					p.logger.WithError(err).Warn("dropping undecodable pubsub record")
					continue
				}
				select {
				case out <- &rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
