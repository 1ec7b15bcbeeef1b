package messaging

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"dispensecore/config"
)

// kafkaBackend maps the channel's MQTT-style topics onto Kafka. Kafka
// has no topic wildcards and forbids '/' in names, so path separators
// become dots and wildcard segments ('+', '#') are dropped: per-room
// topics collapse into one topic, with the room carried in the payload.
type kafkaBackend struct {
	cfg    *config.MessagingConfig
	mu     sync.Mutex
	writer *kafka.Writer
	stops  []context.CancelFunc
	up     bool
}

func newKafkaBackend(cfg *config.MessagingConfig) *kafkaBackend {
	return &kafkaBackend{cfg: cfg}
}

func kafkaTopic(topic string) string {
	segs := strings.Split(topic, "/")
	kept := segs[:0]
	for _, s := range segs {
		if s == "+" || s == "#" || s == "" {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, ".")
}

func (b *kafkaBackend) connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writer = &kafka.Writer{
		Addr:                   kafka.TCP(b.cfg.Broker),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	b.up = true
	return nil
}

func (b *kafkaBackend) publish(topic string, payload []byte) error {
	b.mu.Lock()
	w := b.writer
	b.mu.Unlock()
	return w.WriteMessages(context.Background(), kafka.Message{
		Topic: kafkaTopic(topic),
		Value: payload,
	})
}

func (b *kafkaBackend) subscribe(topic string, h Handler) error {
	resolved := kafkaTopic(topic)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{b.cfg.Broker},
		GroupID: b.cfg.KafkaGroup,
		Topic:   resolved,
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.stops = append(b.stops, cancel)
	b.mu.Unlock()

	go func() {
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("messaging: kafka read %s: %v", resolved, err)
				time.Sleep(time.Second)
				continue
			}
			h(resolved, msg.Value)
		}
	}()
	return nil
}

func (b *kafkaBackend) connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.up
}

func (b *kafkaBackend) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, stop := range b.stops {
		stop()
	}
	b.stops = nil
	if b.writer != nil {
		b.writer.Close()
	}
	b.up = false
}
