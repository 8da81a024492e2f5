// Package kafka forwards audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "xup/pkg/platform/audit"
)

// Sink produces one record per audit event, keyed by subject so events for
// the same buid stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects to brokers and produces to topic.
func NewSink(brokers []string, topic string, opts ...kgo.Opt) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1 << 20),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// EnsureTopic creates the audit topic if it is missing.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", s.topic, resp.Err)
	}
	return nil
}

// Append produces event synchronously.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Ping checks broker connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close flushes pending records and closes the client.
func (s *Sink) Close() {
	s.client.Close()
}
