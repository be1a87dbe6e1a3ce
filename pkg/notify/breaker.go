package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fastplanner/planner/pkg/slogx"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the breaker is open and sends are skipped.
var ErrUnavailable = errors.New("notify: provider unavailable")

// Breaker stops calling a failing provider for a cool-down period so a
// provider outage does not pile up slow outbound requests.
type Breaker struct {
	next    Notifier
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// BreakerSettings tunes the breaker. Zero values pick defaults.
type BreakerSettings struct {
	// SendTimeout bounds each provider call.
	SendTimeout time.Duration
	// OpenFor is how long the breaker stays open before probing again.
	OpenFor time.Duration
	// MinRequests and FailureRatio decide when to trip.
	MinRequests  uint32
	FailureRatio float64
}

func NewBreaker(name string, next Notifier, s BreakerSettings) *Breaker {
	if s.SendTimeout <= 0 {
		s.SendTimeout = 10 * time.Second
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 3
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("notifier breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		// Caller mistakes must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidMessage)
		},
	})

	return &Breaker{next: next, cb: cb, timeout: s.SendTimeout}
}

func (b *Breaker) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		return nil, b.next.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slogx.FromContext(ctx).Warn("email skipped, breaker open", slog.String("to", msg.To))
		return ErrUnavailable
	}
	return err
}

// State reports the breaker state ("closed", "half-open", "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}
