// Package circuitbreaker wraps gobreaker with the settings shared by the
// service's outbound calls.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type Config struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	Interval    time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold consecutive failures trip the breaker.
	FailureThreshold uint32
}

func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

func New[T any](cfg Config, log *slog.Logger) *gobreaker.CircuitBreaker[T] {
	if log == nil {
		log = slog.Default()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}
