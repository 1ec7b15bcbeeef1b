package messaging

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"dispensecore/config"
)

type mqttBackend struct {
	cfg    *config.MessagingConfig
	client mqtt.Client
}

func newMQTTBackend(cfg *config.MessagingConfig) *mqttBackend {
	return &mqttBackend{cfg: cfg}
}

func (b *mqttBackend) connect() error {
	clientID := b.cfg.ClientID
	if clientID == "" {
		clientID = "dispensecore"
	}
	// Broker-side client id collisions kick the older session off, so a
	// random suffix keeps restarts and multiple instances apart.
	clientID = fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true)

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	timeout := b.cfg.ConnectTimeout.Std()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt connect to %s: timeout", b.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", b.cfg.Broker, err)
	}
	return nil
}

func (b *mqttBackend) publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

func (b *mqttBackend) subscribe(topic string, h Handler) error {
	token := b.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (b *mqttBackend) connected() bool {
	return b.client != nil && b.client.IsConnected()
}

func (b *mqttBackend) close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}
