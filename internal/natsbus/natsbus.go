// Package natsbus publishes club status over NATS instead of MQTT.
package natsbus

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sweeney/club-controller/internal/mqtt"
)

const flushTimeout = 5 * time.Second

// Publisher implements the same surface as the MQTT publisher on a NATS
// connection. Topics are mapped to subjects with Subject.
type Publisher struct {
	conn        *nats.Conn
	systemTopic string
	logger      *slog.Logger
}

var (
	_ mqtt.Publisher        = (*Publisher)(nil)
	_ mqtt.ConnectionStatus = (*Publisher)(nil)
)

// Connect dials the NATS server at url. Reconnects are retried forever.
func Connect(url, name, topic string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("connected", "url", url)
	return &Publisher{
		conn:        conn,
		systemTopic: mqtt.SystemTopic(topic),
		logger:      logger,
	}, nil
}

// Subject converts an MQTT-style topic ("club/status") to a NATS subject
// ("club.status").
func Subject(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

// Publish sends payload on the subject derived from topic. While
// disconnected nats.go buffers the message in its reconnect buffer.
func (p *Publisher) Publish(topic string, payload []byte) error {
	if err := p.conn.Publish(Subject(topic), payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event and waits for the server to
// acknowledge it.
func (p *Publisher) PublishSystem(event mqtt.SystemEvent) error {
	payload, err := mqtt.FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if err := p.conn.Publish(Subject(p.systemTopic), payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	if err := p.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// IsConnected reports whether the connection is up.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
