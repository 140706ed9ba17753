package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sink delivers one event.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Deliver(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogSink writes events to a logger. It stands in for mail delivery.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, ev Event) error {
	s.Log.Info("notification",
		zap.String("kind", string(ev.Kind)),
		zap.String("item_id", ev.ItemID),
		zap.String("item", ev.ItemName),
		zap.String("recipient", ev.Recipient),
		zap.String("actor", ev.Actor),
		zap.Time("at", ev.At),
	)
	return nil
}

// Dispatcher moves events from a queue to a sink.
type Dispatcher struct {
	queue     Queue
	sink      Sink
	log       *zap.Logger
	delivered func(Kind, error)
}

// NewDispatcher creates a dispatcher. observe, if non-nil, is called after
// every delivery attempt.
func NewDispatcher(q Queue, sink Sink, log *zap.Logger, observe func(Kind, error)) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if observe == nil {
		observe = func(Kind, error) {}
	}
	return &Dispatcher{queue: q, sink: sink, log: log, delivered: observe}
}

// Run delivers events until ctx is done. It returns nil on cancellation.
func (d *Dispatcher) Run(ctx context.Context) error {
	events, err := d.queue.Consume(ctx)
	if err != nil {
		return err
	}

	d.log.Info("notification dispatcher started")
	for ev := range events {
		err := d.sink.Deliver(ctx, ev)
		if err != nil {
			d.log.Error("delivering notification failed", zap.String("kind", string(ev.Kind)), zap.String("item_id", ev.ItemID), zap.Error(err))
		}
		d.delivered(ev.Kind, err)
	}
	d.log.Info("notification dispatcher stopped")
	return nil
}
