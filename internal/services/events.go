package services

import (
	"stylefinder/internal/logging"
	"stylefinder/internal/models"
)

// EventPublisher announces completed searches and trend rankings.
// *rabbitmq.Client implements it.
type EventPublisher interface {
	PublishSearchPerformed(event models.SearchEvent) error
	PublishTrendsComputed(event models.TrendEvent) error
}

// publish runs fn when a publisher is configured. Failures are logged only.
func publish(p EventPublisher, kind string, fn func(EventPublisher) error) {
	if p == nil {
		logging.Debug().Str("event", kind).Msg("no event publisher configured, skipping")
		return
	}
	if err := fn(p); err != nil {
		logging.Warn().Err(err).Str("event", kind).Msg("failed to publish event")
	}
}
