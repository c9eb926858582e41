package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisRelay spreads events across server instances: Publish writes to a
// Redis channel and Run forwards everything received on it to the local
// publisher, typically the websocket hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   Publisher
	log     *zap.Logger
}

func NewRedisClient(c RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

func NewRedisRelay(client *redis.Client, channel string, local Publisher, log *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local, log: log.Named("redis_relay")}
}

func (r *RedisRelay) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return errors.Wrapf(err, "redis publish %s", evt.Kind)
	}
	return nil
}

// Run subscribes to the channel until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "redis subscribe")
	}
	r.log.Info("relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			evt, err := decodeEvent([]byte(m.Payload))
			if err != nil {
				r.log.Warn("discarding malformed relay event", zap.Error(err))
				continue
			}
			if err := r.local.Publish(ctx, evt); err != nil {
				r.log.Warn("local delivery failed", zap.String("event", string(evt.Kind)), zap.Error(err))
			}
		}
	}
}

func decodeEvent(data []byte) (Event, error) {
	var wire struct {
		Kind    Kind            `json:"event"`
		Room    string          `json:"room"`
		Payload json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, err
	}
	if wire.Kind == "" {
		return Event{}, errors.New("event kind missing")
	}
	evt := Event{Kind: wire.Kind, Room: wire.Room}
	if len(wire.Payload) > 0 {
		evt.Payload = wire.Payload
	}
	return evt, nil
}
