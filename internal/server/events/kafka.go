package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const writeTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events keyed by email, so all events of one
// user land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher builds a synchronous writer for topic on broker. SASL
// PLAIN over TLS is used when username is set.
func NewKafkaPublisher(broker, topic, username, password string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: writeTimeout,
	}

	if username != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{
				Username: username,
				Password: password,
			},
			TLS: &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishVerificationRequested(ctx context.Context, email, name, token string) error {
	ev := VerificationRequested{
		Type:       TypeVerificationRequested,
		Email:      email,
		Name:       name,
		Token:      token,
		OccurredAt: time.Now().UTC(),
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(email),
		Value: value,
		Time:  ev.OccurredAt,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
