package queue

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher stands in for a broker when none is configured; it only logs.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.log.Debug().Str("routing_key", routingKey).RawJSON("body", body).Msg("notification (no broker configured)")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
