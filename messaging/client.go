// Package messaging is the hub's device channel. It hides the broker
// behind a small publish/subscribe surface with two interchangeable
// backends: MQTT (the default, matching the deployed dispensers) and
// Kafka.
package messaging

import (
	"fmt"
	"log"
	"sync"

	"dispensecore/config"
)

// Handler receives one inbound message.
type Handler func(topic string, payload []byte)

type backend interface {
	connect() error
	publish(topic string, payload []byte) error
	subscribe(topic string, h Handler) error
	connected() bool
	close()
}

type subscription struct {
	topic   string
	handler Handler
}

type Client struct {
	mu      sync.Mutex
	cfg     config.MessagingConfig
	backend backend
	subs    []subscription
}

func NewClient(cfg *config.MessagingConfig) *Client {
	c := &Client{cfg: *cfg}
	c.backend = newBackend(&c.cfg)
	return c
}

func newBackend(cfg *config.MessagingConfig) backend {
	switch cfg.Backend {
	case "kafka":
		return newKafkaBackend(cfg)
	default:
		return newMQTTBackend(cfg)
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.connect(); err != nil {
		return err
	}
	for _, s := range c.subs {
		if err := c.backend.subscribe(s.topic, s.handler); err != nil {
			log.Printf("messaging: subscribe %s: %v", s.topic, err)
		}
	}
	return nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	b := c.backend
	c.mu.Unlock()
	if !b.connected() {
		return fmt.Errorf("messaging: not connected")
	}
	return b.publish(topic, payload)
}

// Subscribe registers a handler. Subscriptions survive Reconfigure; they
// are replayed against the new backend.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, subscription{topic: topic, handler: h})
	if !c.backend.connected() {
		return nil
	}
	return c.backend.subscribe(topic, h)
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.connected()
}

// Reconfigure tears the current backend down and reconnects with the new
// settings, resubscribing every registered handler.
func (c *Client) Reconfigure(cfg *config.MessagingConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.backend.close()
	c.cfg = *cfg
	c.backend = newBackend(&c.cfg)
	if err := c.backend.connect(); err != nil {
		return err
	}
	for _, s := range c.subs {
		if err := c.backend.subscribe(s.topic, s.handler); err != nil {
			log.Printf("messaging: resubscribe %s: %v", s.topic, err)
		}
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend.close()
}
