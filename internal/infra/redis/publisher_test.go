package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"live-quiz-service/internal/domain"
)

func TestPublisherPublishesEnvelope(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	pub := NewPublisher(client, "quiz")
	pub.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, pub.Channel("AB12"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := pub.Handle(ctx, domain.EventGameStarted{Code: "AB12", Players: 2}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.Channel != "quiz:session:AB12" {
		t.Fatalf("unexpected channel %s", msg.Channel)
	}

	var got struct {
		Event string          `json:"event"`
		Code  string          `json:"code"`
		At    time.Time       `json:"at"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Event != domain.EventNameGameStarted || got.Code != "AB12" {
		t.Fatalf("unexpected envelope %+v", got)
	}
	if !got.At.Equal(pub.now()) {
		t.Fatalf("unexpected timestamp %v", got.At)
	}
}
