package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fastplanner/planner/pkg/slogx"
)

// Log writes messages to the context logger instead of delivering them.
// It keeps the last messages sent so tests can inspect them.
type Log struct {
	mu   sync.Mutex
	sent []Message
}

func NewLog() *Log { return &Log{} }

func (l *Log) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	l.sent = append(l.sent, msg)
	l.mu.Unlock()

	slogx.FromContext(ctx).Info("email not delivered (log provider)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Sent returns a copy of every message accepted so far.
func (l *Log) Sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.sent...)
}
