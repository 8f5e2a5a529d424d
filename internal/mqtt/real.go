package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	connectRetryInterval = 5 * time.Second
	publishTimeout       = 5 * time.Second
	disconnectQuiesce    = 1000 // milliseconds
	defaultBufferSize    = 64
)

// Options configures the MQTT publisher.
type Options struct {
	Broker     string
	ClientID   string // generated when empty
	Username   string
	Password   string
	QoS        byte
	Topic      string // status topic; lifecycle events go to SystemTopic(Topic)
	BufferSize int    // messages kept while disconnected
	Logger     *slog.Logger
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are buffered and replayed
// on reconnect.
type RealPublisher struct {
	client      paho.Client
	qos         byte
	systemTopic string
	logger      *slog.Logger

	mu  sync.Mutex
	buf *outbox
}

var (
	_ Publisher        = (*RealPublisher)(nil)
	_ ConnectionStatus = (*RealPublisher)(nil)
)

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background and retried until it succeeds.
func NewRealPublisher(o Options) *RealPublisher {
	if o.ClientID == "" {
		o.ClientID = "club-controller-" + uuid.NewString()[:8]
	}
	if o.Topic == "" {
		o.Topic = DefaultTopic
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	p := &RealPublisher{
		qos:         o.QoS,
		systemTopic: SystemTopic(o.Topic),
		logger:      o.Logger.With("component", "mqtt"),
		buf:         newOutbox(o.BufferSize),
	}

	lwt, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetBinaryWill(p.systemTopic, lwt, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.logger.Warn("connection lost", "error", err)
		})
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	p.client = paho.NewClient(opts)
	p.client.Connect()
	p.logger.Info("connecting", "broker", o.Broker, "client_id", o.ClientID)
	return p
}

// Publish sends payload on topic as a retained message.
func (p *RealPublisher) Publish(topic string, payload []byte) error {
	return p.send(outMsg{topic: topic, payload: payload, qos: p.qos, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.send(outMsg{topic: p.systemTopic, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)
	return nil
}

// send publishes msg, or queues it while disconnected. The connection check
// and the queueing happen under mu, which handleConnect also takes before
// draining, so a message is never queued after the drain it should have
// been part of.
func (p *RealPublisher) send(msg outMsg) error {
	p.mu.Lock()
	if p.client.IsConnectionOpen() {
		p.mu.Unlock()
		return p.publish(msg)
	}
	dropped := p.buf.add(msg)
	p.mu.Unlock()
	if dropped {
		p.logger.Warn("outbox full, dropping oldest", "capacity", p.buf.capacity)
	}
	return nil
}

func (p *RealPublisher) publish(msg outMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// handleConnect runs on every (re)connect: announce ONLINE, then replay
// anything buffered while offline.
func (p *RealPublisher) handleConnect() {
	online, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "ONLINE"})
	if err := p.publish(outMsg{topic: p.systemTopic, payload: online, qos: 1, retained: true}); err != nil {
		p.logger.Warn("publish online status failed", "error", err)
	}

	p.mu.Lock()
	pending := p.buf.take()
	p.mu.Unlock()

	if len(pending) > 0 {
		p.logger.Info("replaying buffered messages", "count", len(pending))
	}
	for _, msg := range pending {
		if err := p.publish(msg); err != nil {
			p.logger.Warn("replay failed", "topic", msg.topic, "error", err)
		}
	}
}
