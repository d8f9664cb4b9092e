// Package mqtt implements the Ingress/Egress transport (SPEC_FULL.md §4.9):
// an MQTT v3.1.1 client, built on eclipse/paho.mqtt.golang, behind the
// narrow interfaces the dispatcher depends on.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/marmos91/multilocator/internal/logger"
	"github.com/marmos91/multilocator/pkg/angle"
	"github.com/marmos91/multilocator/pkg/dispatcher"
	"github.com/marmos91/multilocator/pkg/position"
)

// Config holds the MQTT transport's tunables.
type Config struct {
	Broker         string // e.g. "tcp://localhost:1883"
	ClientID       string
	IngressPrefix  string // e.g. "aoa/angle"
	EgressPrefix   string // e.g. "aoa/position"
	MultilocatorID string
	QueueSize      int           // buffered Events() channel capacity
	ConnectTimeout time.Duration // 0 uses a 10s default
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return c
}

// Client is the dispatcher's Ingress and Egress, both implemented by the
// same underlying paho client and connection.
type Client struct {
	cfg     Config
	paho    paho.Client
	events  chan dispatcher.IngressEvent
	metrics dispatcher.Recorder
}

// Connect dials the broker and returns a ready-to-use Client. Connect
// failures are fatal at startup (spec.md §7.2); the returned client's
// built-in auto-reconnect handles transient disconnects afterward without
// any retry logic of our own (spec.md §7's propagation policy).
func Connect(cfg Config, metrics dispatcher.Recorder) (*Client, error) {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = dispatcher.NoopRecorder{}
	}

	c := &Client{
		cfg:     cfg,
		events:  make(chan dispatcher.IngressEvent, cfg.QueueSize),
		metrics: metrics,
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetCleanSession(true).
		SetOrderMatters(false)

	c.paho = paho.NewClient(opts)

	tok := c.paho.Connect()
	if !tok.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	return c, nil
}

// Subscribe subscribes to every tag topic published under one locator,
// matching the original subscribe_angle: one subscription per configured
// locator, wildcarded over the tag suffix.
func (c *Client) Subscribe(ctx context.Context, locatorID string) error {
	topic := fmt.Sprintf("%s/%s/#", c.cfg.IngressPrefix, locatorID)
	tok := c.paho.Subscribe(topic, 1, c.onMessage)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %q: %w", topic, err)
	}
	return nil
}

// Events returns the channel the dispatcher's event loop reads from. The
// paho client's own network goroutines feed it via onMessage; the
// dispatcher goroutine is the sole reader (spec.md §5).
func (c *Client) Events() <-chan dispatcher.IngressEvent {
	return c.events
}

// onMessage parses the topic and decodes the payload, dropping malformed
// messages before they ever reach the dispatcher (spec.md §7.3).
func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	locatorID, tagID, err := parseIngressTopic(c.cfg.IngressPrefix, msg.Topic())
	if err != nil {
		logger.Warn("dropping message with malformed topic", logger.KeyTopic, msg.Topic(), logger.Reason("%v", err))
		c.metrics.RecordEvent(dispatcher.ResultDroppedParseError)
		return
	}

	a, err := angle.Decode(msg.Payload())
	if err != nil {
		logger.Warn("dropping message with malformed payload", logger.LocatorID(locatorID), logger.TagID(tagID), logger.Reason("%v", err))
		c.metrics.RecordEvent(dispatcher.ResultDroppedParseError)
		return
	}

	ev := dispatcher.IngressEvent{LocatorID: locatorID, TagID: tagID, Angle: a}
	select {
	case c.events <- ev:
	default:
		logger.Warn("ingress queue full, dropping event", logger.LocatorID(locatorID), logger.TagID(tagID))
		c.metrics.RecordEvent(dispatcher.ResultDroppedParseError)
	}
}

// Publish implements dispatcher.Egress: formats the position to its wire
// representation and publishes it on the per-tag output topic. Failure is
// fatal to the current event (spec.md §4.7).
func (c *Client) Publish(_ context.Context, tagID string, pos position.Position) error {
	payload, err := position.Encode(pos)
	if err != nil {
		return fmt.Errorf("mqtt: encode position for tag %q: %w", tagID, err)
	}

	topic := fmt.Sprintf("%s/%s/%s", c.cfg.EgressPrefix, c.cfg.MultilocatorID, tagID)
	tok := c.paho.Publish(topic, 1, false, payload)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %q: %w", topic, err)
	}
	return nil
}

// Disconnect gracefully closes the connection, waiting up to quiesce for
// in-flight work to drain.
func (c *Client) Disconnect(quiesce time.Duration) {
	c.paho.Disconnect(uint(quiesce.Milliseconds()))
}

// parseIngressTopic splits "<prefix>/<locator-id>/<tag-id>" into its two
// identifier tokens.
func parseIngressTopic(prefix, topic string) (locatorID, tagID string, err error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return "", "", fmt.Errorf("topic %q does not start with prefix %q", topic, prefix)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed ingress topic %q", topic)
	}
	return parts[0], parts[1], nil
}
