package notify

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds the connection settings of a NATSObserver
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the default NATS settings
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "scout.sync.changed",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// publisher is the part of *nats.Conn the observer uses
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes an Event on a subject after each sync cycle
type NATSObserver struct {
	nc      *nats.Conn
	pub     publisher
	subject string
	clock   clockwork.Clock
}

// NewNATSObserver connects to NATS
func NewNATSObserver(cfg NATSConfig, clock clockwork.Clock) (*NATSObserver, error) {
	opts := []nats.Option{
		nats.Name("scout-sync"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	o := newNATSObserver(nc, cfg.Subject, clock)
	o.nc = nc
	return o, nil
}

func newNATSObserver(pub publisher, subject string, clock clockwork.Clock) *NATSObserver {
	return &NATSObserver{pub: pub, subject: subject, clock: clock}
}

// Notify publishes a data changed event. Failures are logged; NATS
// buffers publishes while reconnecting.
func (o *NATSObserver) Notify() {
	event := newEvent(o.clock.Now())
	data, err := event.marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to build sync event")
		return
	}

	if err := o.pub.Publish(o.subject, data); err != nil {
		log.Warn().Err(err).Str("subject", o.subject).Msg("failed to publish sync event")
		return
	}

	log.Debug().
		Str("subject", o.subject).
		Str("event_id", event.ID).
		Msg("published sync event")
}

// Close drains the connection
func (o *NATSObserver) Close() error {
	if o.nc == nil {
		return nil
	}
	if err := o.nc.Drain(); err != nil {
		o.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
