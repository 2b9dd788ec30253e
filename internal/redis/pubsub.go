package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// BookingsPubSub broadcasts booking mutations so that live feeds can
// refresh without polling.
type BookingsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewBookingsPubSub(rdb *redis.Client) *BookingsPubSub {
	return &BookingsPubSub{
		rdb:     rdb,
		channel: ChannelBookingsChanged(),
	}
}

// BookingChange identifies the day and owner a mutation touched.
type BookingChange struct {
	Type    string `json:"type"`
	DateStr string `json:"date_str"`
	UserID  string `json:"user_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *BookingsPubSub) PublishBookingChanged(ctx context.Context, dateStr, userID string) error {
	msg := BookingChange{
		Type:    "booking_changed",
		DateStr: dateStr,
		UserID:  userID,
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *BookingsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, change BookingChange)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var change BookingChange
			if err := json.Unmarshal([]byte(m.Payload), &change); err == nil &&
				change.Type == "booking_changed" {
				handler(ctx, change)
			}
		}
	}
}
