package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/audit"
)

// Publisher forwards audit events to NATS. Subjects are
// <prefix>.audit.match and <prefix>.audit.correction; downstream
// consumers (billing, review UI) subscribe on their own terms.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
	l             *log.Logger
}

type Option func(*Publisher)

func WithSubjectPrefix(arg string) Option {
	return func(p *Publisher) {
		p.subjectPrefix = arg
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(p *Publisher) {
		p.l = arg
	}
}

func NewPublisher(conn *nats.Conn, opts ...Option) *Publisher {
	ret := &Publisher{
		conn:          conn,
		subjectPrefix: "raceident",
		l:             log.Default().Named("audit.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Publisher) Publish(event *audit.Event) error {
	subject := fmt.Sprintf("%s.audit.%s", p.subjectPrefix, event.Kind)
	data := []byte(oj.JSON(event))
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing audit event: %w", err)
	}
	p.l.Debug("published audit event",
		log.String("subject", subject),
		log.String("image", event.ImagePath))
	return nil
}

func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.l.Warn("draining nats connection", log.ErrorField(err))
	}
}
