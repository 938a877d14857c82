package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"live-quiz-service/internal/event"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

type envelope struct {
	Event string      `json:"event"`
	Code  string      `json:"code"`
	At    time.Time   `json:"at"`
	Data  event.Event `json:"data"`
}

// Publisher forwards lifecycle events to NATS subjects
// {prefix}.{code}.{event name}.
type Publisher struct {
	conn   Conn
	prefix string
	now    func() time.Time
}

func NewPublisher(conn Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, now: time.Now}
}

// Connect dials url with the reconnect settings the service runs with.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

func (p *Publisher) Subject(code, name string) string {
	return p.prefix + "." + code + "." + name
}

// Handle is an event.Handler.
func (p *Publisher) Handle(_ context.Context, e event.Event) error {
	raw, err := json.Marshal(envelope{Event: e.Name(), Code: e.SessionCode(), At: p.now().UTC(), Data: e})
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(e.SessionCode(), e.Name()), raw)
}
