package audit

import (
	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/utils/broadcast"
)

// Dispatcher is an in-process fan-out Sink. The resolve path publishes
// into a buffered source channel; listeners (NATS forwarder, batch
// report writer) subscribe independently and may come and go during a
// session.
type Dispatcher struct {
	source chan *Event
	server broadcast.BroadcastServer[*Event]
	l      *log.Logger
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(arg *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.l = arg
	}
}

const sourceBuffer = 64

func NewDispatcher(sessionID string, opts ...DispatcherOption) *Dispatcher {
	ret := &Dispatcher{
		source: make(chan *Event, sourceBuffer),
		l:      log.Default().Named("audit"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.server = broadcast.NewBroadcastServer(sessionID, "audit", ret.source)
	return ret
}

// Publish hands the event to the fan-out. Never blocks; when the
// buffer is full the event is dropped and counted as lost.
func (d *Dispatcher) Publish(event *Event) error {
	select {
	case d.source <- event:
	default:
		d.l.Warn("audit buffer full, event dropped",
			log.String("image", event.ImagePath))
	}
	return nil
}

func (d *Dispatcher) Subscribe() <-chan *Event {
	return d.server.Subscribe()
}

func (d *Dispatcher) CancelSubscription(ch <-chan *Event) {
	d.server.CancelSubscription(ch)
}

// Forward pipes all events into another sink until the dispatcher is
// closed. Returns a cancel func detaching the sink.
func (d *Dispatcher) Forward(sink Sink) func() {
	ch := d.server.Subscribe()
	go func() {
		for event := range ch {
			if err := sink.Publish(event); err != nil {
				d.l.Warn("forwarding audit event", log.ErrorField(err))
			}
		}
	}()
	return func() { d.server.CancelSubscription(ch) }
}

func (d *Dispatcher) Close() {
	d.server.Close()
}
