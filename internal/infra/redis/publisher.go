package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/event"
)

// Envelope is the JSON document published for every lifecycle event.
type Envelope struct {
	Event string      `json:"event"`
	Code  string      `json:"code"`
	At    time.Time   `json:"at"`
	Data  event.Event `json:"data"`
}

// Publisher fans lifecycle events out on Redis pub/sub channels
// {prefix}:session:{code}.
type Publisher struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewPublisher(client *redis.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix, now: time.Now}
}

// Channel returns the channel events for code are published on.
func (p *Publisher) Channel(code string) string {
	return p.prefix + ":session:" + code
}

// Handle is an event.Handler.
func (p *Publisher) Handle(ctx context.Context, e event.Event) error {
	raw, err := json.Marshal(Envelope{Event: e.Name(), Code: e.SessionCode(), At: p.now().UTC(), Data: e})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.Channel(e.SessionCode()), raw).Err()
}
