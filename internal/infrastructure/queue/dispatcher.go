package queue

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/ports"
	"github.com/carepoint/scheduling-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

// envelope is the wire format of a published notification.
type envelope struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the user id, preserving per-user ordering.
type Dispatcher struct {
	workers   []chan ports.Notification
	publisher ports.EventPublisher
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.Notification, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify never blocks: when the owning worker is saturated the notification
// is dropped and counted.
func (d *Dispatcher) Notify(n ports.Notification) {
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}
	idx := d.shardIndex(n.UserID)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.NotificationsErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().Str("type", n.Type).Str("user_id", n.UserID).Int("worker_id", idx).Msg("notification queue full, dropping")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, label, ch)
			return
		case n := <-ch:
			metrics.NotificationsQueueDepth.WithLabelValues(label).Dec()
			d.publish(context.Background(), id, n)
		}
	}
}

// drain publishes whatever is already queued so shutdown does not lose it.
func (d *Dispatcher) drain(id int, label string, ch <-chan ports.Notification) {
	for {
		select {
		case n := <-ch:
			metrics.NotificationsQueueDepth.WithLabelValues(label).Dec()
			d.publish(context.Background(), id, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, workerID int, n ports.Notification) {
	body, err := json.Marshal(envelope{Type: n.Type, UserID: n.UserID, OccurredAt: n.OccurredAt, Payload: n.Payload})
	if err != nil {
		metrics.NotificationsErrorsTotal.WithLabelValues("encode_failed").Inc()
		d.log.Error().Err(err).Str("type", n.Type).Msg("notification encoding failed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	err = d.publisher.Publish(ctx, n.Type, body)
	metrics.NotificationPublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NotificationsErrorsTotal.WithLabelValues("publish_failed").Inc()
		d.log.Error().Err(err).
			Str("type", n.Type).
			Str("user_id", n.UserID).
			Int("worker_id", workerID).
			Msg("notification publish failed")
		return
	}
	metrics.NotificationsPublishedTotal.WithLabelValues(n.Type).Inc()
}
