package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/ports"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []envelope
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	var e envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return err
	}
	if e.Type != routingKey {
		return errors.New("routing key mismatch")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) snapshot() []envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]envelope(nil), p.msgs...)
}

func TestDispatcher_PublishesAndPreservesPerUserOrder(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(4, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Notify(ports.Notification{Type: ports.NotifyMessageSent, UserID: "u1", Payload: i})
	}
	cancel()
	d.Wait()

	msgs := pub.snapshot()
	if len(msgs) != 50 {
		t.Fatalf("expected 50 published, got %d", len(msgs))
	}
	for i, m := range msgs {
		if int(m.Payload.(float64)) != i {
			t.Fatalf("out of order at %d: %v", i, m.Payload)
		}
		if m.OccurredAt.IsZero() {
			t.Fatalf("expected occurredAt to be stamped")
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingPublisher{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index %d out of range", first)
	}
}

func TestDispatcher_NotifyDoesNotBlockWhenFull(t *testing.T) {
	d := NewDispatcher(1, &recordingPublisher{}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Notify(ports.Notification{Type: ports.NotifyReminderDue, UserID: "u1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Notify blocked with no running workers")
	}
}

func TestDispatcher_PublishFailureIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(2, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Notify(ports.Notification{Type: ports.NotifyAppointmentCreated, UserID: "u1"})
	cancel()
	d.Wait()

	if len(pub.snapshot()) != 1 {
		t.Fatalf("expected publish to be attempted once")
	}
}
